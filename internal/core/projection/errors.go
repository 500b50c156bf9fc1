package projection

import "errors"

// Projection errors
var (
	ErrInvalidView            = errors.New("invalid view state")
	ErrInvalidDepth           = errors.New("depth must be a positive finite number")
	ErrSingularViewProjection = errors.New("view-projection matrix is not invertible")
	ErrDegenerateRay          = errors.New("screen point does not define a viewing ray")
)
