// Package nudge moves a camera, or an object seen through it, by a pixel
// offset in a viewport while keeping the object at the same depth.
package nudge

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/events/bus"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
	"github.com/chrisdevito/ViewNudger/internal/core/projection"
)

// Event types published on the bus.
const (
	EventApplied  = "nudge.applied"
	EventRejected = "nudge.rejected"
	EventUndone   = "nudge.undone"

	eventSource = "nudger"
)

// Plan is a fully computed nudge that has not touched the scene yet.
type Plan struct {
	Request Request

	Viewport string
	Camera   string
	// Entity is what gets translated: the target or the camera.
	Entity string

	Eye      mgl64.Vec3
	Position mgl64.Vec3
	Distance float64
	Screen   projection.Point2D

	// AxisX and AxisY are the world points one axis shift away from the target.
	AxisX mgl64.Vec3
	AxisY mgl64.Vec3

	Offset   mgl64.Vec3
	Rotation mgl64.Vec3 // pitch, yaw, roll in degrees

	Fingerprint uint64

	viewport host.Viewport
}

// Rotates reports whether applying the plan re-aims the camera.
func (p *Plan) Rotates() bool {
	return p.Request.rotates()
}

// Result describes an applied nudge.
type Result struct {
	Target      string     `json:"target"`
	Moved       string     `json:"moved"`
	Viewport    string     `json:"viewport"`
	Offset      mgl64.Vec3 `json:"offset"`
	Rotation    mgl64.Vec3 `json:"rotation"`
	Distance    float64    `json:"distance"`
	ScreenX     float64    `json:"screen_x"`
	ScreenY     float64    `json:"screen_y"`
	Transaction string     `json:"transaction"`
	Fingerprint uint64     `json:"fingerprint"`
}

// Rejection is the payload of EventRejected.
type Rejection struct {
	Target string
	DX, DY float64
	Err    error
}

// Nudger runs nudges against a host. Calls must not overlap: a nudge assumes
// exclusive access to the camera and the target for its duration.
type Nudger struct {
	host      host.Host
	projector *projection.Projector
	events    bus.EventBus
	logger    log.Log
}

// New creates a Nudger. events and logger may be nil.
func New(h host.Host, events bus.EventBus, logger log.Log) *Nudger {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Nudger{
		host:      h,
		projector: projection.NewProjector(logger),
		events:    events,
		logger:    logger.With(log.String("component", "nudger")),
	}
}

// Nudge plans and applies req as one undoable step.
func (n *Nudger) Nudge(req Request) (*Result, error) {
	plan, err := n.Plan(req)
	if err != nil {
		return nil, err
	}
	return n.Apply(plan)
}

// Plan reads the scene and computes the nudge without editing anything.
func (n *Nudger) Plan(req Request) (*Plan, error) {
	plan, err := n.plan(req)
	if err != nil {
		n.reject(req, err)
		return nil, err
	}
	n.logger.Debug("Nudge planned",
		log.String("target", req.Target),
		log.Float64("screen_x", plan.Screen.X),
		log.Float64("screen_y", plan.Screen.Y),
		log.Vec3("xyz_x", plan.AxisX),
		log.Vec3("xyz_y", plan.AxisY),
		log.Vec3("offset", plan.Offset),
		log.Float64("pitch", plan.Rotation[0]),
		log.Float64("yaw", plan.Rotation[1]),
		log.Uint64("view", plan.Fingerprint))
	return plan, nil
}

func (n *Nudger) plan(req Request) (*Plan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !n.host.Exists(req.Target) {
		return nil, fmt.Errorf("%w: %q does not exist", ErrInvalidTarget, req.Target)
	}
	kind, err := n.host.KindOf(req.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if kind != host.KindTransform && kind != host.KindCamera {
		return nil, fmt.Errorf("%w: %q is a %s", ErrInvalidTarget, req.Target, kind)
	}

	viewport, err := req.View.Resolve(n.host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidViewport, req.View, err)
	}
	camera, err := n.host.CameraOf(viewport)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidViewport, viewport.Name(), err)
	}

	view, frame, err := n.snapshot(viewport, camera)
	if err != nil {
		return nil, err
	}
	position, err := n.host.WorldPosition(req.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	startDirection, startDistance, ok := projection.Direction(frame.Eye, position)
	if !ok {
		return nil, fmt.Errorf("%w: %q sits on the eye point", ErrTargetNotProjectable, req.Target)
	}

	screen, visible, err := n.projector.WorldToScreen(position, frame, view)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidViewport, err)
	}
	if !visible {
		return nil, fmt.Errorf("%w: %q is behind %q", ErrTargetNotProjectable, req.Target, camera)
	}

	// A camera move of +d makes the target appear at -d, so camera mode
	// measures the screen point on the opposite side.
	shift := 1.0
	if !req.MoveObject {
		shift = -1.0
	}
	xyzX, err := n.unproject(screen.Add(shift*req.DX, 0), startDistance, view, frame.Eye)
	if err != nil {
		return nil, err
	}
	xyzY, err := n.unproject(screen.Add(0, shift*req.DY), startDistance, view, frame.Eye)
	if err != nil {
		return nil, err
	}

	// Sum the axis contributions, then put the result back on the sphere of
	// radius startDistance so diagonal nudges keep their depth too.
	combined := xyzX.Add(xyzY).Sub(position)
	dir, _, ok := projection.Direction(frame.Eye, combined)
	if !ok {
		return nil, fmt.Errorf("%w: shifted point collapses onto the eye", ErrTargetNotProjectable)
	}
	landing := frame.Eye.Add(dir.Mul(startDistance))

	plan := &Plan{
		Request:     req,
		Viewport:    viewport.Name(),
		Camera:      camera,
		Eye:         frame.Eye,
		Position:    position,
		Distance:    startDistance,
		Screen:      screen,
		AxisX:       xyzX,
		AxisY:       xyzY,
		Fingerprint: view.Fingerprint(),
		viewport:    viewport,
	}
	switch {
	case req.DX == 0 && req.DY == 0:
		plan.Entity = camera
		if req.MoveObject {
			plan.Entity = req.Target
		}
	case req.MoveObject:
		plan.Entity = req.Target
		plan.Offset = landing.Sub(position)
	default:
		plan.Entity = camera
		plan.Offset = position.Sub(landing)
	}

	if req.rotates() {
		plan.Rotation = reaim(startDirection, frame.Eye, xyzX, xyzY, req.DX, req.DY)
	}
	return plan, nil
}

// snapshot reads the view state and camera frame for this call only.
func (n *Nudger) snapshot(viewport host.Viewport, camera string) (projection.ViewState, projection.CameraFrame, error) {
	view := projection.ViewState{
		View:       viewport.ViewMatrix(),
		Projection: viewport.ProjectionMatrix(),
		Width:      viewport.Width(),
		Height:     viewport.Height(),
	}
	if err := view.Validate(); err != nil {
		return view, projection.CameraFrame{}, fmt.Errorf("%w: %s: %w", ErrInvalidViewport, viewport.Name(), err)
	}

	eye, err := n.host.EyePoint(camera)
	if err != nil {
		return view, projection.CameraFrame{}, fmt.Errorf("%w: camera %q: %w", ErrInvalidViewport, camera, err)
	}
	forward, err := n.host.ForwardDirection(camera)
	if err != nil {
		return view, projection.CameraFrame{}, fmt.Errorf("%w: camera %q: %w", ErrInvalidViewport, camera, err)
	}
	return view, projection.CameraFrame{Eye: eye, Forward: forward}, nil
}

func (n *Nudger) unproject(point projection.Point2D, depth float64, view projection.ViewState, eye mgl64.Vec3) (mgl64.Vec3, error) {
	world, err := n.projector.ScreenToWorld(point, depth, view, eye)
	switch {
	case err == nil:
		return world, nil
	case errors.Is(err, projection.ErrSingularViewProjection):
		return mgl64.Vec3{}, err
	case errors.Is(err, projection.ErrInvalidView):
		return mgl64.Vec3{}, fmt.Errorf("%w: %w", ErrInvalidViewport, err)
	default:
		return mgl64.Vec3{}, fmt.Errorf("%w: %w", ErrTargetNotProjectable, err)
	}
}

// reaim returns the local (pitch, yaw, roll) in degrees that turns the camera
// back towards the target. A zero pixel delta contributes exactly zero.
func reaim(startDirection, eye, xyzX, xyzY mgl64.Vec3, dx, dy float64) mgl64.Vec3 {
	var rotation mgl64.Vec3
	if dy != 0 {
		rotation[0] = -sign(dy) * projection.AngleBetweenDegrees(startDirection, xyzY.Sub(eye))
	}
	if dx != 0 {
		rotation[1] = sign(dx) * projection.AngleBetweenDegrees(startDirection, xyzX.Sub(eye))
	}
	return rotation
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// Apply performs a planned nudge inside one undo transaction. It fails with
// ErrStalePlan if the viewport or the target changed since Plan.
func (n *Nudger) Apply(plan *Plan) (*Result, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrInvalidRequest)
	}
	if err := n.checkFresh(plan); err != nil {
		n.reject(plan.Request, err)
		return nil, err
	}

	label := fmt.Sprintf("nudge %s (%g, %g)", plan.Request.Target, plan.Request.DX, plan.Request.DY)
	if err := n.host.BeginUndoTransaction(label); err != nil {
		err = fmt.Errorf("begin undo transaction: %w", err)
		n.reject(plan.Request, err)
		return nil, err
	}

	if err := n.edit(plan); err != nil {
		if abortErr := n.abort(); abortErr != nil {
			n.logger.Error("Failed to close nudge transaction",
				log.String("transaction", label),
				log.ErrorWithKey("edit_error", err),
				log.Error(abortErr))
			err = errors.Join(err, abortErr)
		}
		n.reject(plan.Request, err)
		return nil, err
	}
	if err := n.host.EndUndoTransaction(); err != nil {
		err = fmt.Errorf("end undo transaction: %w", err)
		n.reject(plan.Request, err)
		return nil, err
	}

	res := &Result{
		Target:      plan.Request.Target,
		Moved:       plan.Entity,
		Viewport:    plan.Viewport,
		Offset:      plan.Offset,
		Rotation:    plan.Rotation,
		Distance:    plan.Distance,
		ScreenX:     plan.Screen.X,
		ScreenY:     plan.Screen.Y,
		Transaction: label,
		Fingerprint: plan.Fingerprint,
	}
	n.logger.Info("Nudge applied",
		log.String("target", res.Target),
		log.String("moved", res.Moved),
		log.Vec3("offset", res.Offset),
		log.Vec3("rotation", res.Rotation))
	n.publish(EventApplied, res)
	return res, nil
}

func (n *Nudger) edit(plan *Plan) error {
	if err := n.host.Translate(plan.Entity, plan.Offset, true); err != nil {
		return fmt.Errorf("translate %q: %w", plan.Entity, err)
	}
	if !plan.Rotates() {
		return nil
	}
	if err := n.host.Rotate(plan.Camera, plan.Rotation, true, true); err != nil {
		return fmt.Errorf("rotate %q: %w", plan.Camera, err)
	}
	return nil
}

// abort closes the open transaction, discarding its edits when the host can.
func (n *Nudger) abort() error {
	if rb, ok := n.host.(host.Rollbacker); ok {
		if err := rb.Rollback(); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		return nil
	}
	if err := n.host.EndUndoTransaction(); err != nil {
		return fmt.Errorf("end undo transaction: %w", err)
	}
	return nil
}

func (n *Nudger) checkFresh(plan *Plan) error {
	view := projection.ViewState{
		View:       plan.viewport.ViewMatrix(),
		Projection: plan.viewport.ProjectionMatrix(),
		Width:      plan.viewport.Width(),
		Height:     plan.viewport.Height(),
	}
	if view.Fingerprint() != plan.Fingerprint {
		return fmt.Errorf("%w: viewport %s", ErrStalePlan, plan.Viewport)
	}
	position, err := n.host.WorldPosition(plan.Request.Target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}
	if position != plan.Position {
		return fmt.Errorf("%w: %q moved", ErrStalePlan, plan.Request.Target)
	}
	return nil
}

// Undo reverts the last undo step of the host, usually the last nudge.
func (n *Nudger) Undo() (string, error) {
	undoer, ok := n.host.(host.Undoer)
	if !ok {
		return "", ErrUndoUnsupported
	}
	label, err := undoer.Undo()
	if err != nil {
		return "", fmt.Errorf("undo: %w", err)
	}
	n.logger.Info("Nudge undone", log.String("transaction", label))
	n.publish(EventUndone, label)
	return label, nil
}

func (n *Nudger) reject(req Request, err error) {
	n.logger.Warn("Nudge rejected",
		log.String("target", req.Target),
		log.Float64("dx", req.DX),
		log.Float64("dy", req.DY),
		log.Error(err))
	n.publish(EventRejected, Rejection{Target: req.Target, DX: req.DX, DY: req.DY, Err: err})
}

// publish never fails the nudge: by the time it runs the scene has changed.
func (n *Nudger) publish(eventType string, data any) {
	if n.events == nil {
		return
	}
	if err := n.events.Publish(bus.NewEvent(eventType, eventSource, data, 0, nil)); err != nil {
		n.logger.Warn("Event handler failed",
			log.String("event", eventType),
			log.Error(err))
	}
}
