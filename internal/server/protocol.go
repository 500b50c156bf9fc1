package server

import (
	"errors"
	"fmt"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/nudge"
)

// Actions a client can send.
const (
	ActionNudge = "nudge"
	ActionUndo  = "undo"
)

// Message types sent to clients.
const (
	TypeResult = "result"
	TypeUndone = "undone"
	TypeError  = "error"
	TypeEvent  = "event"
)

// Error codes sent to clients.
const (
	CodeInvalidTarget          = "invalid_target"
	CodeInvalidViewport        = "invalid_viewport"
	CodeTargetNotProjectable   = "target_not_projectable"
	CodeSingularViewProjection = "singular_view_projection"
	CodeInvalidRequest         = "invalid_request"
	CodeUndoFailed             = "undo_failed"
	CodeInternal               = "internal"
)

// Command is one client message. An empty action means nudge. Amount scales
// Direction; an empty Target nudges the first selected entity.
type Command struct {
	ID         string  `json:"id,omitempty"`
	Action     string  `json:"action,omitempty"`
	Direction  string  `json:"direction,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	MoveObject bool    `json:"move_object,omitempty"`
	RotateView bool    `json:"rotate_view,omitempty"`
	Target     string  `json:"target,omitempty"`
	View       string  `json:"view,omitempty"`
}

// Reply is every server to client message.
type Reply struct {
	Type   string        `json:"type"`
	ID     string        `json:"id,omitempty"`
	Result *nudge.Result `json:"result,omitempty"`
	Label  string        `json:"label,omitempty"`
	Event  string        `json:"event,omitempty"`
	Error  *ErrorReply   `json:"error,omitempty"`
}

type ErrorReply struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// request turns a nudge command into a nudge.Request.
func (c Command) request(selection host.Selection) (nudge.Request, error) {
	direction, err := nudge.ParseDirection(c.Direction)
	if err != nil {
		return nudge.Request{}, err
	}
	target := c.Target
	if target == "" && selection != nil {
		if selected := selection.CurrentSelection(); len(selected) > 0 {
			target = selected[0]
		}
	}
	if target == "" {
		return nudge.Request{}, fmt.Errorf("%w: nothing selected", nudge.ErrInvalidTarget)
	}

	req, err := nudge.NewRequest(target, direction, c.Amount, c.MoveObject, c.RotateView)
	if err != nil {
		return nudge.Request{}, err
	}
	if c.View != "" {
		req = req.WithView(host.ViewportNamed(c.View))
	}
	return req, nil
}

func errorReply(id string, err error) Reply {
	return Reply{
		Type:  TypeError,
		ID:    id,
		Error: &ErrorReply{Code: errorCode(err), Message: err.Error()},
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, nudge.ErrInvalidTarget):
		return CodeInvalidTarget
	case errors.Is(err, nudge.ErrInvalidViewport):
		return CodeInvalidViewport
	case errors.Is(err, nudge.ErrTargetNotProjectable):
		return CodeTargetNotProjectable
	case errors.Is(err, nudge.ErrSingularViewProjection):
		return CodeSingularViewProjection
	case errors.Is(err, nudge.ErrInvalidRequest), errors.Is(err, ErrInvalidMessage):
		return CodeInvalidRequest
	case errors.Is(err, host.ErrNothingToUndo), errors.Is(err, nudge.ErrUndoUnsupported):
		return CodeUndoFailed
	default:
		return CodeInternal
	}
}
