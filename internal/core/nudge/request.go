package nudge

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/projection"
)

// Request is a single user nudge. The pixel offsets are required; there is
// no default amount.
type Request struct {
	Target string
	DX     float64
	DY     float64
	// MoveObject moves Target itself instead of the camera.
	MoveObject bool
	// RotateView re-aims the camera after it moved. Ignored with MoveObject.
	RotateView bool
	// View selects the viewport. The zero value uses the active one.
	View host.ViewportRef
}

// NewRequest builds a Request from a compass direction scaled by amount
// pixels. The direction carries the sign, so amount must be positive.
func NewRequest(target string, direction Direction, amount float64, moveObject, rotateView bool) (Request, error) {
	if !direction.Valid() {
		return Request{}, fmt.Errorf("%w: direction %s", ErrInvalidRequest, direction)
	}
	if !(amount > 0) || math.IsInf(amount, 0) {
		return Request{}, fmt.Errorf("%w: amount %v must be a positive number of pixels", ErrInvalidRequest, amount)
	}
	dx, dy := direction.Step()
	return Request{
		Target:     target,
		DX:         dx * amount,
		DY:         dy * amount,
		MoveObject: moveObject,
		RotateView: rotateView,
	}, nil
}

// WithView returns a copy of r bound to the given viewport.
func (r Request) WithView(ref host.ViewportRef) Request {
	r.View = ref
	return r
}

func (r Request) validate() error {
	if !projection.Finite(mgl64.Vec3{r.DX, r.DY, 0}) {
		return fmt.Errorf("%w: pixel offset (%v, %v)", ErrInvalidRequest, r.DX, r.DY)
	}
	if r.Target == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTarget)
	}
	return nil
}

// rotates reports whether the camera gets re-aimed.
func (r Request) rotates() bool {
	return r.RotateView && !r.MoveObject
}
