package memory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
)

// Lens is a perspective lens. FovY is the vertical field of view in degrees.
type Lens struct {
	FovY float64
	Near float64
	Far  float64
}

// DefaultLens matches a 35mm-ish perspective camera.
func DefaultLens() Lens {
	return Lens{FovY: 54.43, Near: 0.1, Far: 10000}
}

func (l Lens) validate() error {
	if !(l.FovY > 0 && l.FovY < 180) {
		return fmt.Errorf("fov %v out of range", l.FovY)
	}
	if !(l.Near > 0 && l.Far > l.Near) {
		return fmt.Errorf("clip planes near=%v far=%v", l.Near, l.Far)
	}
	return nil
}

type panelState struct {
	name   string
	camera string
	width  int
	height int
	lens   Lens
}

func (p panelState) projection() mgl64.Mat4 {
	aspect := float64(p.width) / float64(p.height)
	return mgl64.Perspective(mgl64.DegToRad(p.lens.FovY), aspect, p.lens.Near, p.lens.Far)
}

// panel is a live viewport handle. Every read goes back to the host so a
// resize or camera switch is visible through handles obtained earlier.
type panel struct {
	host *Host
	name string
}

var _ host.Viewport = (*panel)(nil)

func (p *panel) Name() string {
	return p.name
}

func (p *panel) ProjectionMatrix() mgl64.Mat4 {
	p.host.mu.RLock()
	defer p.host.mu.RUnlock()

	state, ok := p.host.panels[p.name]
	if !ok || state.width <= 0 || state.height <= 0 {
		return mgl64.Mat4{}
	}
	return state.projection()
}

func (p *panel) ViewMatrix() mgl64.Mat4 {
	p.host.mu.RLock()
	defer p.host.mu.RUnlock()

	state, ok := p.host.panels[p.name]
	if !ok {
		return mgl64.Mat4{}
	}
	cam, ok := p.host.entities[state.camera]
	if !ok {
		return mgl64.Mat4{}
	}
	return cam.xf.Inverse()
}

func (p *panel) Width() int {
	p.host.mu.RLock()
	defer p.host.mu.RUnlock()

	if state, ok := p.host.panels[p.name]; ok {
		return state.width
	}
	return 0
}

func (p *panel) Height() int {
	p.host.mu.RLock()
	defer p.host.mu.RUnlock()

	if state, ok := p.host.panels[p.name]; ok {
		return state.height
	}
	return 0
}
