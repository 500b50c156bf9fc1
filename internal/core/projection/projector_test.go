package projection

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

const tolerance = 1e-7

type testCamera struct {
	eye, center mgl64.Vec3
	fovY        float64
	width       int
	height      int
}

func (c testCamera) view() ViewState {
	return ViewState{
		View:       mgl64.LookAtV(c.eye, c.center, mgl64.Vec3{0, 1, 0}),
		Projection: mgl64.Perspective(mgl64.DegToRad(c.fovY), float64(c.width)/float64(c.height), 0.1, 10000),
		Width:      c.width,
		Height:     c.height,
	}
}

func (c testCamera) frame() CameraFrame {
	return CameraFrame{Eye: c.eye, Forward: c.center.Sub(c.eye).Normalize()}
}

var (
	originCamera = testCamera{eye: mgl64.Vec3{0, 0, 0}, center: mgl64.Vec3{0, 0, -1}, fovY: 54.43, width: 512, height: 512}
	orbitCamera  = testCamera{eye: mgl64.Vec3{3, 2, 10}, center: mgl64.Vec3{0, 0, 0}, fovY: 40, width: 960, height: 540}
	// The world origin is behind this camera.
	awayCamera = testCamera{eye: mgl64.Vec3{0, 0, -20}, center: mgl64.Vec3{0, 0, -21}, fovY: 60, width: 640, height: 480}
)

func assertVecInDelta(t *testing.T, expected, actual mgl64.Vec3, delta float64) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], delta, "component %d of %v vs %v", i, expected, actual)
	}
}

func TestWorldToScreenCentersTargetOnAxis(t *testing.T) {
	screen, ok, err := WorldToScreen(mgl64.Vec3{0, 0, -10}, originCamera.frame(), originCamera.view())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 256.0, screen.X, tolerance)
	assert.InDelta(t, 256.0, screen.Y, tolerance)
}

func TestWorldToScreenOrientation(t *testing.T) {
	cam := originCamera
	right, ok, err := WorldToScreen(mgl64.Vec3{1, 0, -10}, cam.frame(), cam.view())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, right.X, 256.0)
	assert.InDelta(t, 256.0, right.Y, tolerance)

	up, ok, err := WorldToScreen(mgl64.Vec3{0, 1, -10}, cam.frame(), cam.view())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, up.Y, 256.0, "screen Y grows upward")
}

func TestWorldToScreenBehindCamera(t *testing.T) {
	cases := map[string]mgl64.Vec3{
		"behind":          {0, 0, 5},
		"on eye":          {0, 0, 0},
		"inside guard":    {0, 0, -0.005},
		"beside the lens": {3, 0, 0},
	}
	for name, point := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok, err := WorldToScreen(point, originCamera.frame(), originCamera.view())
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestWorldToScreenInvalidView(t *testing.T) {
	view := originCamera.view()
	view.Width = 0
	_, _, err := WorldToScreen(mgl64.Vec3{0, 0, -10}, originCamera.frame(), view)
	assert.ErrorIs(t, err, ErrInvalidView)

	view = originCamera.view()
	view.View[3] = math.NaN()
	_, _, err = WorldToScreen(mgl64.Vec3{0, 0, -10}, originCamera.frame(), view)
	assert.ErrorIs(t, err, ErrInvalidView)
}

func TestRoundTrip(t *testing.T) {
	cameras := map[string]testCamera{
		"origin": originCamera,
		"orbit":  orbitCamera,
		"away":   awayCamera,
	}
	points := []mgl64.Vec3{
		{0, 0, -10},
		{1.5, -2, -7},
		{-4, 3, -25},
		{0.25, 0.5, -40},
	}
	for name, cam := range cameras {
		t.Run(name, func(t *testing.T) {
			for _, p := range points {
				// Express the sample relative to the camera so every point is in front.
				world := cam.eye.Add(p)
				if name == "orbit" {
					world = p.Mul(0.2)
				}
				screen, ok, err := WorldToScreen(world, cam.frame(), cam.view())
				require.NoError(t, err)
				require.True(t, ok, "point %v should be visible", world)

				back, err := ScreenToWorld(screen, world.Sub(cam.eye).Len(), cam.view(), cam.eye)
				require.NoError(t, err)
				assertVecInDelta(t, world, back, 1e-6)
			}
		})
	}
}

func TestScreenToWorldKeepsDepth(t *testing.T) {
	cam := orbitCamera
	for _, pixel := range []Point2D{{0, 0}, {960, 540}, {480, 270}, {13, 500}} {
		for _, depth := range []float64{0.5, 10, 250} {
			world, err := ScreenToWorld(pixel, depth, cam.view(), cam.eye)
			require.NoError(t, err)
			assert.InDelta(t, depth, world.Sub(cam.eye).Len(), 1e-9*depth+1e-9)
			assert.Positive(t, world.Sub(cam.eye).Dot(cam.frame().Forward), "point must be in front of the camera")
		}
	}
}

func TestScreenToWorldCameraAtOrigin(t *testing.T) {
	cam := originCamera

	center, err := ScreenToWorld(Point2D{256, 256}, 10, cam.view(), cam.eye)
	require.NoError(t, err)
	assertVecInDelta(t, mgl64.Vec3{0, 0, -10}, center, tolerance)

	// The left edge of a square viewport sits half the vertical fov off axis.
	edge, err := ScreenToWorld(Point2D{0, 256}, 10, cam.view(), cam.eye)
	require.NoError(t, err)
	half := mgl64.DegToRad(cam.fovY / 2)
	expected := mgl64.Vec3{-math.Tan(half), 0, -1}.Normalize().Mul(10)
	assertVecInDelta(t, expected, edge, 1e-6)
}

func TestScreenToWorldErrors(t *testing.T) {
	cam := originCamera

	for _, depth := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := ScreenToWorld(Point2D{256, 256}, depth, cam.view(), cam.eye)
		assert.ErrorIs(t, err, ErrInvalidDepth, "depth %v", depth)
	}

	view := cam.view()
	view.Height = -1
	_, err := ScreenToWorld(Point2D{256, 256}, 10, view, cam.eye)
	assert.ErrorIs(t, err, ErrInvalidView)

	singular := cam.view()
	singular.Projection = mgl64.Mat4{}
	_, err = ScreenToWorld(Point2D{256, 256}, 10, singular, cam.eye)
	assert.ErrorIs(t, err, ErrSingularViewProjection)
}

func TestViewStateFingerprint(t *testing.T) {
	a := originCamera.view()
	b := originCamera.view()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Width = 511
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	c := orbitCamera.view()
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestProjectorLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewProjector(log.FromZap(zap.New(core)))

	_, ok, err := p.WorldToScreen(mgl64.Vec3{0, 0, -10}, originCamera.frame(), originCamera.view())
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = p.WorldToScreen(mgl64.Vec3{0, 0, 10}, originCamera.frame(), originCamera.view())
	require.NoError(t, err)
	require.False(t, ok)
	_, err = p.ScreenToWorld(Point2D{10, 10}, 3, originCamera.view(), originCamera.eye)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("Projected world point").Len())
	assert.Equal(t, 1, logs.FilterMessage("Point is behind the camera").Len())
	entries := logs.FilterMessage("Unprojected screen point").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "projector", entries[0].ContextMap()["component"])
}

func TestNewProjectorNilLogger(t *testing.T) {
	p := NewProjector(nil)
	_, ok, err := p.WorldToScreen(mgl64.Vec3{0, 0, -10}, originCamera.frame(), originCamera.view())
	require.NoError(t, err)
	assert.True(t, ok)
}
