package host

import "errors"

// Host errors
var (
	ErrEntityNotFound    = errors.New("entity not found")
	ErrViewportNotFound  = errors.New("viewport not found")
	ErrNoActiveViewport  = errors.New("no active viewport")
	ErrNotACamera        = errors.New("entity is not a camera")
	ErrNoTransaction     = errors.New("no undo transaction is open")
	ErrTransactionOpen   = errors.New("an undo transaction is already open")
	ErrNothingToUndo     = errors.New("undo stack is empty")
	ErrInvalidTransform  = errors.New("transform contains non-finite values")
	ErrDuplicateEntity   = errors.New("entity already exists")
	ErrDuplicateViewport = errors.New("viewport already exists")
)
