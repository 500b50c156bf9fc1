// Package memory is an in-process scene host: a flat table of named
// transforms and cameras, a set of viewport panels and an undo stack.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

var (
	_ host.Host       = (*Host)(nil)
	_ host.Rollbacker = (*Host)(nil)
	_ host.Undoer     = (*Host)(nil)
)

// Host is an in-process scene: named entities, cameras, viewport panels, a
// selection list and an undo stack. It is safe for concurrent use.
type Host struct {
	mu sync.RWMutex

	entities map[string]*entity
	order    []string

	panels     map[string]*panelState
	panelOrder []string
	active     string

	selection []string

	undo []*transaction
	open *transaction

	logger log.Log
}

// New creates an empty host. A nil logger disables logging.
func New(logger log.Log) *Host {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Host{
		entities: make(map[string]*entity),
		panels:   make(map[string]*panelState),
		logger:   logger.With(log.String("component", "memory_host")),
	}
}

// AddEntity adds a non-camera entity at position with no rotation.
func (h *Host) AddEntity(name string, kind host.EntityKind, position mgl64.Vec3) error {
	if kind == host.KindCamera {
		return fmt.Errorf("add %q: use AddCamera for cameras", name)
	}
	return h.add(&entity{name: name, kind: kind, xf: identityTransform(position)})
}

// AddCamera adds a camera at eye looking at target with +Y up.
func (h *Host) AddCamera(name string, eye, target mgl64.Vec3) error {
	orientation, err := aim(eye, target)
	if err != nil {
		return fmt.Errorf("add camera %q: %w", name, err)
	}
	return h.add(&entity{name: name, kind: host.KindCamera, xf: transform{Position: eye, Orientation: orientation}})
}

func (h *Host) add(ent *entity) error {
	if ent.name == "" {
		return errors.New("entity name is empty")
	}
	if !finiteVec(ent.xf.Position) {
		return fmt.Errorf("%w: %q", host.ErrInvalidTransform, ent.name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.entities[ent.name]; exists {
		return fmt.Errorf("%w: %q", host.ErrDuplicateEntity, ent.name)
	}
	h.entities[ent.name] = ent
	h.order = append(h.order, ent.name)
	h.logger.Debug("Entity added",
		log.String("name", ent.name),
		log.String("kind", ent.kind.String()),
		log.Vec3("position", ent.xf.Position))
	return nil
}

// LookAt re-aims an existing camera at target. It is not recorded for undo.
func (h *Host) LookAt(camera string, target mgl64.Vec3) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ent, err := h.cameraLocked(camera)
	if err != nil {
		return err
	}
	orientation, err := aim(ent.xf.Position, target)
	if err != nil {
		return fmt.Errorf("look at from %q: %w", camera, err)
	}
	ent.xf.Orientation = orientation
	return nil
}

func aim(eye, target mgl64.Vec3) (mgl64.Quat, error) {
	if q, ok := lookAtQuat(eye, target, worldUp); ok {
		return q, nil
	}
	// Looking straight up or down.
	if q, ok := lookAtQuat(eye, target, mgl64.Vec3{0, 0, -1}); ok {
		return q, nil
	}
	return mgl64.Quat{}, fmt.Errorf("%w: eye and target coincide", host.ErrInvalidTransform)
}

// AddViewport adds a panel bound to camera. The first panel becomes active.
func (h *Host) AddViewport(name, camera string, width, height int, lens Lens) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("viewport %q: size %dx%d", name, width, height)
	}
	if err := lens.validate(); err != nil {
		return fmt.Errorf("viewport %q: %w", name, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.panels[name]; exists {
		return fmt.Errorf("%w: %q", host.ErrDuplicateViewport, name)
	}
	if _, err := h.cameraLocked(camera); err != nil {
		return fmt.Errorf("viewport %q: %w", name, err)
	}
	h.panels[name] = &panelState{name: name, camera: camera, width: width, height: height, lens: lens}
	h.panelOrder = append(h.panelOrder, name)
	if h.active == "" {
		h.active = name
	}
	return nil
}

// SetActive gives focus to the named panel.
func (h *Host) SetActive(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.panels[name]; !ok {
		return fmt.Errorf("%w: %q", host.ErrViewportNotFound, name)
	}
	h.active = name
	return nil
}

// Resize changes the pixel size of a panel.
func (h *Host) Resize(name string, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("viewport %q: size %dx%d", name, width, height)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.panels[name]
	if !ok {
		return fmt.Errorf("%w: %q", host.ErrViewportNotFound, name)
	}
	state.width, state.height = width, height
	return nil
}

// SetCamera looks through a different camera in the named panel.
func (h *Host) SetCamera(name, camera string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.panels[name]
	if !ok {
		return fmt.Errorf("%w: %q", host.ErrViewportNotFound, name)
	}
	if _, err := h.cameraLocked(camera); err != nil {
		return err
	}
	state.camera = camera
	return nil
}

func (h *Host) Active() (host.Viewport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.active == "" {
		return nil, host.ErrNoActiveViewport
	}
	return &panel{host: h, name: h.active}, nil
}

func (h *Host) Resolve(name string) (host.Viewport, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.panels[name]; !ok {
		return nil, fmt.Errorf("%w: %q", host.ErrViewportNotFound, name)
	}
	return &panel{host: h, name: name}, nil
}

// PanelNames lists viewport panels in creation order.
func (h *Host) PanelNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.panelOrder...)
}

func (h *Host) CameraOf(viewport host.Viewport) (string, error) {
	if viewport == nil {
		return "", host.ErrViewportNotFound
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	state, ok := h.panels[viewport.Name()]
	if !ok {
		return "", fmt.Errorf("%w: %q", host.ErrViewportNotFound, viewport.Name())
	}
	return state.camera, nil
}

func (h *Host) EyePoint(camera string) (mgl64.Vec3, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, err := h.cameraLocked(camera)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return ent.xf.Position, nil
}

func (h *Host) ForwardDirection(camera string) (mgl64.Vec3, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, err := h.cameraLocked(camera)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return ent.xf.Forward(), nil
}

func (h *Host) WorldTransform(camera string) (mgl64.Mat4, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, err := h.cameraLocked(camera)
	if err != nil {
		return mgl64.Mat4{}, err
	}
	return ent.xf.Matrix(), nil
}

func (h *Host) cameraLocked(name string) (*entity, error) {
	ent, ok := h.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	if ent.kind != host.KindCamera {
		return nil, fmt.Errorf("%w: %q is a %s", host.ErrNotACamera, name, ent.kind)
	}
	return ent, nil
}

func (h *Host) Exists(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.entities[name]
	return ok
}

func (h *Host) KindOf(name string) (host.EntityKind, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, ok := h.entities[name]
	if !ok {
		return host.KindUnknown, fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	return ent.kind, nil
}

func (h *Host) WorldPosition(name string) (mgl64.Vec3, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, ok := h.entities[name]
	if !ok {
		return mgl64.Vec3{}, fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	return ent.xf.Position, nil
}

func (h *Host) Translate(name string, offset mgl64.Vec3, relative bool) error {
	if !finiteVec(offset) {
		return fmt.Errorf("%w: translate %q by %v", host.ErrInvalidTransform, name, offset)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ent, ok := h.entities[name]
	if !ok {
		return fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	h.record(ent, "translate "+name)
	if relative {
		ent.xf.Position = ent.xf.Position.Add(offset)
	} else {
		ent.xf.Position = offset
	}
	h.logger.Debug("Translated",
		log.String("name", name),
		log.Vec3("offset", offset),
		log.Bool("relative", relative))
	return nil
}

func (h *Host) Rotate(name string, eulerDegrees mgl64.Vec3, relative, local bool) error {
	if !finiteVec(eulerDegrees) {
		return fmt.Errorf("%w: rotate %q by %v", host.ErrInvalidTransform, name, eulerDegrees)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ent, ok := h.entities[name]
	if !ok {
		return fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	h.record(ent, "rotate "+name)

	q := eulerQuat(eulerDegrees)
	switch {
	case !relative:
		ent.xf.Orientation = q
	case local:
		ent.xf.Orientation = ent.xf.Orientation.Mul(q).Normalize()
	default:
		ent.xf.Orientation = q.Mul(ent.xf.Orientation).Normalize()
	}
	h.logger.Debug("Rotated",
		log.String("name", name),
		log.Vec3("degrees", eulerDegrees),
		log.Bool("relative", relative),
		log.Bool("local", local))
	return nil
}

// Orientation returns the world orientation of an entity.
func (h *Host) Orientation(name string) (mgl64.Quat, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, ok := h.entities[name]
	if !ok {
		return mgl64.Quat{}, fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	return ent.xf.Orientation, nil
}

// Entity returns a snapshot of one entity.
func (h *Host) Entity(name string) (EntityInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ent, ok := h.entities[name]
	if !ok {
		return EntityInfo{}, fmt.Errorf("%w: %q", host.ErrEntityNotFound, name)
	}
	return info(ent), nil
}

// Entities lists every entity in creation order.
func (h *Host) Entities() []EntityInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]EntityInfo, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, info(h.entities[name]))
	}
	return out
}

func info(ent *entity) EntityInfo {
	return EntityInfo{
		Name:     ent.name,
		Kind:     ent.kind,
		Position: ent.xf.Position,
		Rotation: quatEuler(ent.xf.Orientation),
	}
}

// Select replaces the selection. Unknown names are rejected.
func (h *Host) Select(names ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, name := range names {
		if _, ok := h.entities[name]; !ok {
			return fmt.Errorf("select: %w: %q", host.ErrEntityNotFound, name)
		}
	}
	h.selection = append([]string(nil), names...)
	return nil
}

func (h *Host) CurrentSelection() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.selection...)
}
