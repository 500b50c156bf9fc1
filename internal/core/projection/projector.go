package projection

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

// VisibilityThreshold is the smallest distance along the camera forward axis
// at which a point still gets a screen coordinate. It guards the perspective
// divide rather than modelling the near clipping plane.
const VisibilityThreshold = 0.01

// singularDeterminant is the determinant magnitude under which the combined
// view-projection matrix is treated as not invertible.
const singularDeterminant = 1e-12

// minClipW is the smallest clip-space w accepted as "in front of the eye".
const minClipW = 1e-9

// WorldToScreen projects a world-space point into viewport pixel coordinates.
// ok is false when the point lies behind, or too close to, the camera plane.
func WorldToScreen(point mgl64.Vec3, camera CameraFrame, view ViewState) (screen Point2D, ok bool, err error) {
	if err = view.Validate(); err != nil {
		return Point2D{}, false, err
	}

	// Positive means the point is in front of the camera.
	if point.Sub(camera.Eye).Dot(camera.Forward) < VisibilityThreshold {
		return Point2D{}, false, nil
	}

	clip := view.ViewProjection().Mul4x1(point.Vec4(1))
	if math.Abs(clip.W()) < minClipW {
		return Point2D{}, false, nil
	}

	screen = Point2D{
		X: ((clip.X()/clip.W() + 1.0) / 2.0) * float64(view.Width),
		Y: ((clip.Y()/clip.W() + 1.0) / 2.0) * float64(view.Height),
	}
	return screen, true, nil
}

// ScreenToWorld converts a viewport pixel coordinate back into world space.
// The returned point lies on the viewing ray through the pixel at exactly
// depth units from eye.
func ScreenToWorld(point Point2D, depth float64, view ViewState, eye mgl64.Vec3) (mgl64.Vec3, error) {
	if err := view.Validate(); err != nil {
		return mgl64.Vec3{}, err
	}
	if !finite(depth) || depth <= 0 {
		return mgl64.Vec3{}, fmt.Errorf("%w: %v", ErrInvalidDepth, depth)
	}

	viewProjection := view.ViewProjection()
	if math.Abs(viewProjection.Det()) < singularDeterminant {
		return mgl64.Vec3{}, ErrSingularViewProjection
	}

	ndcX := (2.0 * (point.X / float64(view.Width))) - 1.0
	ndcY := (2.0 * (point.Y / float64(view.Height))) - 1.0

	// The clip image of the world origin supplies a representative z/w pair.
	// When the origin sits at or behind the eye that pair would land on the
	// backward half of the ray, so use the near plane instead.
	origin := viewProjection.Col(3)
	z, w := origin.Z(), origin.W()
	if !(w > minClipW) {
		z, w = -1, 1
	}

	homogeneous := viewProjection.Inv().Mul4x1(mgl64.Vec4{ndcX * w, ndcY * w, z, w})
	if math.Abs(homogeneous.W()) < minClipW {
		return mgl64.Vec3{}, fmt.Errorf("%w: unprojected point at infinity", ErrDegenerateRay)
	}
	onRay := homogeneous.Vec3().Mul(1 / homogeneous.W())

	// Project the point into the requested depth.
	dir, _, ok := Direction(eye, onRay)
	if !ok {
		return mgl64.Vec3{}, fmt.Errorf("%w: pixel %s", ErrDegenerateRay, point)
	}
	return eye.Add(dir.Mul(depth)), nil
}

// Projector converts points between world space and viewport pixels.
// It holds no view state; every call takes a fresh snapshot.
type Projector struct {
	logger log.Log
}

// NewProjector creates a Projector. A nil logger disables logging.
func NewProjector(logger log.Log) *Projector {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Projector{logger: logger.With(log.String("component", "projector"))}
}

// WorldToScreen is the logged form of the package-level WorldToScreen.
func (p *Projector) WorldToScreen(point mgl64.Vec3, camera CameraFrame, view ViewState) (Point2D, bool, error) {
	screen, ok, err := WorldToScreen(point, camera, view)
	if err != nil {
		return screen, ok, err
	}
	if !ok {
		p.logger.Debug("Point is behind the camera",
			log.Vec3("point", point),
			log.Vec3("eye", camera.Eye))
		return screen, ok, nil
	}
	p.logger.Debug("Projected world point",
		log.Vec3("point", point),
		log.Float64("x", screen.X),
		log.Float64("y", screen.Y))
	return screen, ok, nil
}

// ScreenToWorld is the logged form of the package-level ScreenToWorld.
func (p *Projector) ScreenToWorld(point Point2D, depth float64, view ViewState, eye mgl64.Vec3) (mgl64.Vec3, error) {
	world, err := ScreenToWorld(point, depth, view, eye)
	if err != nil {
		return world, err
	}
	p.logger.Debug("Unprojected screen point",
		log.Float64("x", point.X),
		log.Float64("y", point.Y),
		log.Float64("depth", depth),
		log.Vec3("world", world))
	return world, nil
}
