package projection

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Point2D is a viewport pixel coordinate. The origin is the bottom-left corner
// of the viewport and Y grows upward.
type Point2D struct {
	X float64
	Y float64
}

// Add returns the point shifted by (dx, dy) pixels.
func (p Point2D) Add(dx, dy float64) Point2D {
	return Point2D{X: p.X + dx, Y: p.Y + dy}
}

func (p Point2D) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// ViewState is a snapshot of a viewport taken for a single nudge.
// Matrices use the OpenGL column-vector convention, so the combined
// world to clip transform is Projection * View.
type ViewState struct {
	View       mgl64.Mat4
	Projection mgl64.Mat4
	Width      int
	Height     int
}

// Validate reports whether the snapshot can be used for projection.
func (v ViewState) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: viewport size %dx%d", ErrInvalidView, v.Width, v.Height)
	}
	for i := range v.View {
		if !finite(v.View[i]) || !finite(v.Projection[i]) {
			return fmt.Errorf("%w: matrix contains non-finite values", ErrInvalidView)
		}
	}
	return nil
}

// ViewProjection returns Projection * View.
func (v ViewState) ViewProjection() mgl64.Mat4 {
	return v.Projection.Mul4(v.View)
}

// Fingerprint returns a digest of the snapshot. Two snapshots with the same
// fingerprint were taken from an identical viewport configuration.
func (v ViewState) Fingerprint() uint64 {
	buf := make([]byte, 0, 8*(len(v.View)+len(v.Projection))+16)
	for _, f := range v.View {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	for _, f := range v.Projection {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Width))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Height))
	return xxhash.Sum64(buf)
}

// CameraFrame is the camera eye point and forward view direction in world space.
type CameraFrame struct {
	Eye     mgl64.Vec3
	Forward mgl64.Vec3
}
