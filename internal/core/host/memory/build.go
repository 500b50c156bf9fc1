package memory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/config"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

// FromConfig builds a host populated from a scene description.
func FromConfig(scene config.SceneConfig, logger log.Log) (*Host, error) {
	h := New(logger)

	for _, cam := range scene.Cameras {
		if err := h.AddCamera(cam.Name, cam.Position, cam.Target); err != nil {
			return nil, err
		}
	}
	for _, obj := range scene.Objects {
		kind := host.KindTransform
		if obj.Kind != "" {
			k, err := host.ParseEntityKind(obj.Kind)
			if err != nil {
				return nil, fmt.Errorf("object %q: %w", obj.Name, err)
			}
			kind = k
		}
		if kind == host.KindCamera {
			return nil, fmt.Errorf("object %q: cameras belong in the cameras section", obj.Name)
		}
		if err := h.AddEntity(obj.Name, kind, obj.Position); err != nil {
			return nil, err
		}
		if obj.Rotation != (mgl64.Vec3{}) {
			h.setRotation(obj.Name, obj.Rotation)
		}
	}
	for _, vp := range scene.Viewports {
		lens := Lens{FovY: vp.FovY, Near: vp.Near, Far: vp.Far}
		if err := h.AddViewport(vp.Name, vp.Camera, vp.Width, vp.Height, lens); err != nil {
			return nil, err
		}
	}
	if scene.ActiveViewport != "" {
		if err := h.SetActive(scene.ActiveViewport); err != nil {
			return nil, err
		}
	}
	if len(scene.Selection) > 0 {
		if err := h.Select(scene.Selection...); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// setRotation sets an initial orientation without touching the undo stack.
func (h *Host) setRotation(name string, degrees mgl64.Vec3) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ent, ok := h.entities[name]; ok {
		ent.xf.Orientation = eulerQuat(degrees)
	}
}
