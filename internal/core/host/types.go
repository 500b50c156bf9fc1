package host

import "fmt"

// EntityKind is the node type of a scene entity.
type EntityKind uint8

const (
	KindUnknown EntityKind = iota
	KindTransform
	KindCamera
	KindMesh
	KindLight
)

func (k EntityKind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindCamera:
		return "camera"
	case KindMesh:
		return "mesh"
	case KindLight:
		return "light"
	default:
		return "unknown"
	}
}

// ParseEntityKind is the inverse of EntityKind.String.
func ParseEntityKind(s string) (EntityKind, error) {
	switch s {
	case "transform":
		return KindTransform, nil
	case "camera":
		return KindCamera, nil
	case "mesh":
		return KindMesh, nil
	case "light":
		return KindLight, nil
	default:
		return KindUnknown, fmt.Errorf("unknown entity kind %q", s)
	}
}

// ViewportRef selects the viewport of a request: either an already resolved
// handle or a panel name. The zero value means the active viewport.
type ViewportRef struct {
	handle Viewport
	name   string
}

// ActiveViewport refers to whichever viewport has focus when the request runs.
func ActiveViewport() ViewportRef {
	return ViewportRef{}
}

// ViewportHandle refers to a viewport the caller already holds.
func ViewportHandle(v Viewport) ViewportRef {
	return ViewportRef{handle: v}
}

// ViewportNamed refers to a viewport by panel name.
func ViewportNamed(name string) ViewportRef {
	return ViewportRef{name: name}
}

// IsActive reports whether the reference defers to the active viewport.
func (r ViewportRef) IsActive() bool {
	return r.handle == nil && r.name == ""
}

// Resolve turns the reference into a concrete viewport.
func (r ViewportRef) Resolve(viewports Viewports) (Viewport, error) {
	switch {
	case r.handle != nil:
		return r.handle, nil
	case r.name != "":
		return viewports.Resolve(r.name)
	default:
		return viewports.Active()
	}
}

func (r ViewportRef) String() string {
	switch {
	case r.handle != nil:
		return r.handle.Name()
	case r.name != "":
		return r.name
	default:
		return "<active>"
	}
}
