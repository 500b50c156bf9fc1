package client

import "errors"

// Client-specific errors
var (
	ErrClientClosed     = errors.New("client is closed")
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connected")
	ErrReplyTimeout     = errors.New("timed out waiting for reply")
	ErrInvalidReply     = errors.New("invalid reply")
	ErrUndoFailed       = errors.New("undo failed")
)
