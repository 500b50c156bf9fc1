package nudge

import (
	"errors"

	"github.com/chrisdevito/ViewNudger/internal/core/projection"
)

// Nudge errors. Every one of them is returned before the scene is touched.
var (
	ErrInvalidTarget          = errors.New("invalid nudge target")
	ErrInvalidViewport        = errors.New("invalid viewport")
	ErrTargetNotProjectable   = errors.New("target cannot be projected to the viewport")
	ErrSingularViewProjection = projection.ErrSingularViewProjection
	ErrInvalidRequest         = errors.New("invalid nudge request")
	ErrStalePlan              = errors.New("scene changed since the nudge was planned")
	ErrUndoUnsupported        = errors.New("host has no undo stack")
)
