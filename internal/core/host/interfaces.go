package host

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Viewport is a live 3D panel of the host application. Values read from it
// are only valid until the panel is resized or switches camera.
type Viewport interface {
	Name() string
	ProjectionMatrix() mgl64.Mat4
	ViewMatrix() mgl64.Mat4
	Width() int
	Height() int
}

// Viewports resolves the panel a nudge is computed against.
type Viewports interface {
	// Active returns the viewport that currently has focus.
	Active() (Viewport, error)
	// Resolve looks a viewport up by panel name.
	Resolve(name string) (Viewport, error)
}

// Cameras exposes the camera bound to a viewport and its world-space frame.
type Cameras interface {
	CameraOf(viewport Viewport) (string, error)
	EyePoint(camera string) (mgl64.Vec3, error)
	ForwardDirection(camera string) (mgl64.Vec3, error)
	WorldTransform(camera string) (mgl64.Mat4, error)
}

// Scene reads and edits entity transforms.
type Scene interface {
	Exists(name string) bool
	KindOf(name string) (EntityKind, error)
	WorldPosition(name string) (mgl64.Vec3, error)
	// Translate moves name by offset (relative) or to offset (absolute).
	Translate(name string, offset mgl64.Vec3, relative bool) error
	// Rotate applies XYZ euler angles in degrees. local rotates about the
	// entity's own axes instead of the world axes.
	Rotate(name string, eulerDegrees mgl64.Vec3, relative, local bool) error

	BeginUndoTransaction(label string) error
	EndUndoTransaction() error
}

// Rollbacker is implemented by scenes that can discard the edits of the
// currently open undo transaction.
type Rollbacker interface {
	Rollback() error
}

// Undoer is implemented by scenes that keep an undo stack.
type Undoer interface {
	Undo() (label string, err error)
}

// Selection reports the user's current selection, in selection order.
type Selection interface {
	CurrentSelection() []string
}

// Host bundles every collaborator of a nudge.
type Host interface {
	Viewports
	Cameras
	Scene
	Selection
}
