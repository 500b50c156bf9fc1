package memory

import (
	"github.com/google/uuid"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

// edit records the state of an entity before it was changed.
type edit struct {
	name   string
	before transform
}

// transaction is one undo step. It may hold several edits.
type transaction struct {
	ID    string
	Label string
	edits []edit
}

func newTransaction(label string) *transaction {
	return &transaction{ID: uuid.NewString(), Label: label}
}

// revert restores every touched entity, newest edit first. Caller holds the lock.
func (h *Host) revert(tx *transaction) {
	for i := len(tx.edits) - 1; i >= 0; i-- {
		e := tx.edits[i]
		if ent, ok := h.entities[e.name]; ok {
			ent.xf = e.before
		}
	}
}

// record stores the pre-edit state of ent in the open transaction or, when
// none is open, as an undo step of its own. Caller holds the lock.
func (h *Host) record(ent *entity, label string) {
	e := edit{name: ent.name, before: ent.xf}
	if h.open != nil {
		h.open.edits = append(h.open.edits, e)
		return
	}
	tx := newTransaction(label)
	tx.edits = append(tx.edits, e)
	h.undo = append(h.undo, tx)
}

func (h *Host) BeginUndoTransaction(label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open != nil {
		return host.ErrTransactionOpen
	}
	h.open = newTransaction(label)
	h.logger.Debug("Undo transaction opened",
		log.String("id", h.open.ID),
		log.String("label", label))
	return nil
}

func (h *Host) EndUndoTransaction() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return host.ErrNoTransaction
	}
	tx := h.open
	h.open = nil
	if len(tx.edits) == 0 {
		return nil
	}
	h.undo = append(h.undo, tx)
	h.logger.Debug("Undo transaction closed",
		log.String("id", tx.ID),
		log.String("label", tx.Label),
		log.Int("edits", len(tx.edits)))
	return nil
}

// Rollback reverts and discards the open transaction.
func (h *Host) Rollback() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return host.ErrNoTransaction
	}
	tx := h.open
	h.open = nil
	h.revert(tx)
	h.logger.Info("Undo transaction rolled back",
		log.String("id", tx.ID),
		log.String("label", tx.Label))
	return nil
}

// Undo reverts the most recent closed transaction and returns its label.
func (h *Host) Undo() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open != nil {
		return "", host.ErrTransactionOpen
	}
	if len(h.undo) == 0 {
		return "", host.ErrNothingToUndo
	}
	tx := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.revert(tx)
	h.logger.Info("Undo", log.String("id", tx.ID), log.String("label", tx.Label))
	return tx.Label, nil
}

// UndoDepth is the number of steps Undo can revert.
func (h *Host) UndoDepth() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.undo)
}
