package memory

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdevito/ViewNudger/internal/config"
	"github.com/chrisdevito/ViewNudger/internal/core/host"
)

const eps = 1e-9

func assertVec(t *testing.T, expected, actual mgl64.Vec3) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], eps, "component %d of %v vs %v", i, expected, actual)
	}
}

func assertMat(t *testing.T, expected, actual mgl64.Mat4) {
	t.Helper()
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], eps, "element %d of\n%v\nvs\n%v", i, expected, actual)
	}
}

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h := New(nil)
	require.NoError(t, h.AddCamera("persp", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}))
	require.NoError(t, h.AddCamera("side", mgl64.Vec3{10, 0, -10}, mgl64.Vec3{0, 0, -10}))
	require.NoError(t, h.AddEntity("pSphere1", host.KindTransform, mgl64.Vec3{0, 0, -10}))
	require.NoError(t, h.AddEntity("pCubeShape1", host.KindMesh, mgl64.Vec3{1, 1, -5}))
	require.NoError(t, h.AddViewport("modelPanel1", "persp", 512, 512, DefaultLens()))
	require.NoError(t, h.AddViewport("modelPanel2", "side", 640, 480, DefaultLens()))
	return h
}

func TestCameraFrame(t *testing.T) {
	h := newTestHost(t)

	eye, err := h.EyePoint("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{}, eye)

	fwd, err := h.ForwardDirection("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{0, 0, -1}, fwd)

	fwd, err = h.ForwardDirection("side")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, fwd)

	world, err := h.WorldTransform("side")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{10, 0, -10}, world.Col(3).Vec3())
}

func TestLookAt(t *testing.T) {
	h := newTestHost(t)

	require.NoError(t, h.LookAt("persp", mgl64.Vec3{10, 0, 0}))
	forward, err := h.ForwardDirection("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{1, 0, 0}, forward)

	eye, err := h.EyePoint("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{}, eye)
	assert.Zero(t, h.UndoDepth())

	// Straight down falls back to a different up vector.
	require.NoError(t, h.LookAt("persp", mgl64.Vec3{0, -5, 0}))
	forward, err = h.ForwardDirection("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{0, -1, 0}, forward)

	assert.ErrorIs(t, h.LookAt("persp", mgl64.Vec3{}), host.ErrInvalidTransform)
	assert.ErrorIs(t, h.LookAt("pSphere1", mgl64.Vec3{}), host.ErrNotACamera)
	assert.ErrorIs(t, h.LookAt("ghost", mgl64.Vec3{}), host.ErrEntityNotFound)
}

func TestViewMatrixMatchesLookAt(t *testing.T) {
	h := New(nil)
	eye := mgl64.Vec3{3, 2, 10}
	require.NoError(t, h.AddCamera("cam", eye, mgl64.Vec3{}))
	require.NoError(t, h.AddViewport("p", "cam", 100, 50, Lens{FovY: 40, Near: 0.1, Far: 100}))

	vp, err := h.Resolve("p")
	require.NoError(t, err)
	expected := mgl64.LookAtV(eye, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	assertMat(t, expected, vp.ViewMatrix())
	assert.Equal(t, mgl64.Perspective(mgl64.DegToRad(40), 2, 0.1, 100), vp.ProjectionMatrix())

	// The view matrix is the inverse of the camera world transform.
	world, err := h.WorldTransform("cam")
	require.NoError(t, err)
	assertMat(t, mgl64.Ident4(), vp.ViewMatrix().Mul4(world))
}

func TestAddCameraLookingStraightDown(t *testing.T) {
	h := New(nil)
	require.NoError(t, h.AddCamera("top", mgl64.Vec3{0, 10, 0}, mgl64.Vec3{}))
	fwd, err := h.ForwardDirection("top")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{0, -1, 0}, fwd)

	err = h.AddCamera("bad", mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1})
	assert.ErrorIs(t, err, host.ErrInvalidTransform)
}

func TestViewportHandlesAreLive(t *testing.T) {
	h := newTestHost(t)

	active, err := h.Active()
	require.NoError(t, err)
	assert.Equal(t, "modelPanel1", active.Name())
	assert.Equal(t, 512, active.Width())

	require.NoError(t, h.Resize("modelPanel1", 800, 600))
	assert.Equal(t, 800, active.Width())
	assert.Equal(t, 600, active.Height())

	before := active.ViewMatrix()
	require.NoError(t, h.SetCamera("modelPanel1", "side"))
	assert.NotEqual(t, before, active.ViewMatrix())

	cam, err := h.CameraOf(active)
	require.NoError(t, err)
	assert.Equal(t, "side", cam)

	require.NoError(t, h.SetActive("modelPanel2"))
	active, err = h.Active()
	require.NoError(t, err)
	assert.Equal(t, "modelPanel2", active.Name())
	assert.Equal(t, []string{"modelPanel1", "modelPanel2"}, h.PanelNames())
}

func TestViewportErrors(t *testing.T) {
	h := New(nil)
	_, err := h.Active()
	assert.ErrorIs(t, err, host.ErrNoActiveViewport)

	h = newTestHost(t)
	_, err = h.Resolve("modelPanel9")
	assert.ErrorIs(t, err, host.ErrViewportNotFound)
	assert.ErrorIs(t, h.SetActive("nope"), host.ErrViewportNotFound)
	assert.ErrorIs(t, h.Resize("nope", 1, 1), host.ErrViewportNotFound)
	assert.Error(t, h.Resize("modelPanel1", 0, 10))
	assert.ErrorIs(t, h.SetCamera("modelPanel1", "pSphere1"), host.ErrNotACamera)
	assert.ErrorIs(t, h.AddViewport("modelPanel1", "persp", 10, 10, DefaultLens()), host.ErrDuplicateViewport)
	assert.ErrorIs(t, h.AddViewport("x", "ghost", 10, 10, DefaultLens()), host.ErrEntityNotFound)
	assert.Error(t, h.AddViewport("y", "persp", 10, 10, Lens{FovY: 190, Near: 1, Far: 2}))

	_, err = h.CameraOf(nil)
	assert.ErrorIs(t, err, host.ErrViewportNotFound)
}

func TestSceneQueries(t *testing.T) {
	h := newTestHost(t)

	assert.True(t, h.Exists("pSphere1"))
	assert.False(t, h.Exists("pSphere2"))

	kind, err := h.KindOf("pCubeShape1")
	require.NoError(t, err)
	assert.Equal(t, host.KindMesh, kind)

	_, err = h.KindOf("ghost")
	assert.ErrorIs(t, err, host.ErrEntityNotFound)

	_, err = h.EyePoint("pSphere1")
	assert.ErrorIs(t, err, host.ErrNotACamera)

	assert.ErrorIs(t, h.AddEntity("pSphere1", host.KindTransform, mgl64.Vec3{}), host.ErrDuplicateEntity)
	assert.Error(t, h.AddEntity("cam", host.KindCamera, mgl64.Vec3{}))
	assert.ErrorIs(t, h.AddEntity("nan", host.KindTransform, mgl64.Vec3{math.NaN(), 0, 0}), host.ErrInvalidTransform)

	names := make([]string, 0)
	for _, e := range h.Entities() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"persp", "side", "pSphere1", "pCubeShape1"}, names)
}

func TestTranslate(t *testing.T) {
	h := newTestHost(t)

	require.NoError(t, h.Translate("pSphere1", mgl64.Vec3{1, 2, 3}, true))
	pos, err := h.WorldPosition("pSphere1")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{1, 2, -7}, pos)

	require.NoError(t, h.Translate("pSphere1", mgl64.Vec3{5, 5, 5}, false))
	pos, err = h.WorldPosition("pSphere1")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{5, 5, 5}, pos)

	assert.ErrorIs(t, h.Translate("ghost", mgl64.Vec3{}, true), host.ErrEntityNotFound)
	assert.ErrorIs(t, h.Translate("pSphere1", mgl64.Vec3{math.Inf(1), 0, 0}, true), host.ErrInvalidTransform)
}

func TestRotateLocalAndGlobal(t *testing.T) {
	h := newTestHost(t)

	require.NoError(t, h.Rotate("persp", mgl64.Vec3{0, 90, 0}, true, true))
	fwd, err := h.ForwardDirection("persp")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, fwd)

	// After pitching up 90 degrees, a local yaw turns the view, a global yaw
	// spins it about the view axis.
	local := New(nil)
	require.NoError(t, local.AddCamera("c", mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}))
	require.NoError(t, local.Rotate("c", mgl64.Vec3{90, 0, 0}, true, true))
	require.NoError(t, local.Rotate("c", mgl64.Vec3{0, 90, 0}, true, true))
	fwd, err = local.ForwardDirection("c")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, fwd)

	global := New(nil)
	require.NoError(t, global.AddCamera("c", mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}))
	require.NoError(t, global.Rotate("c", mgl64.Vec3{90, 0, 0}, true, true))
	require.NoError(t, global.Rotate("c", mgl64.Vec3{0, 90, 0}, true, false))
	fwd, err = global.ForwardDirection("c")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{0, 1, 0}, fwd)
}

func TestRotateAbsolute(t *testing.T) {
	h := newTestHost(t)
	require.NoError(t, h.Rotate("pSphere1", mgl64.Vec3{5, 5, 5}, true, true))
	require.NoError(t, h.Rotate("pSphere1", mgl64.Vec3{10, 20, 30}, false, false))

	info, err := h.Entity("pSphere1")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{10, 20, 30}, info.Rotation)
}

func TestUndoTransaction(t *testing.T) {
	h := newTestHost(t)
	before, err := h.Orientation("persp")
	require.NoError(t, err)

	require.NoError(t, h.BeginUndoTransaction("nudge"))
	assert.ErrorIs(t, h.BeginUndoTransaction("again"), host.ErrTransactionOpen)
	require.NoError(t, h.Translate("persp", mgl64.Vec3{1, 0, 0}, true))
	require.NoError(t, h.Rotate("persp", mgl64.Vec3{0, 5, 0}, true, true))
	_, err = h.Undo()
	assert.ErrorIs(t, err, host.ErrTransactionOpen)
	require.NoError(t, h.EndUndoTransaction())
	assert.Equal(t, 1, h.UndoDepth())

	label, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "nudge", label)

	pos, err := h.WorldPosition("persp")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, pos)
	after, err := h.Orientation("persp")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, err = h.Undo()
	assert.ErrorIs(t, err, host.ErrNothingToUndo)
	assert.ErrorIs(t, h.EndUndoTransaction(), host.ErrNoTransaction)
}

func TestEditsOutsideTransactionAreSeparateSteps(t *testing.T) {
	h := newTestHost(t)
	require.NoError(t, h.Translate("pSphere1", mgl64.Vec3{1, 0, 0}, true))
	require.NoError(t, h.Translate("pSphere1", mgl64.Vec3{1, 0, 0}, true))
	assert.Equal(t, 2, h.UndoDepth())

	label, err := h.Undo()
	require.NoError(t, err)
	assert.Equal(t, "translate pSphere1", label)
	pos, err := h.WorldPosition("pSphere1")
	require.NoError(t, err)
	assertVec(t, mgl64.Vec3{1, 0, -10}, pos)
}

func TestEmptyTransactionIsDropped(t *testing.T) {
	h := newTestHost(t)
	require.NoError(t, h.BeginUndoTransaction("noop"))
	require.NoError(t, h.EndUndoTransaction())
	assert.Zero(t, h.UndoDepth())
}

func TestRollback(t *testing.T) {
	h := newTestHost(t)
	assert.ErrorIs(t, h.Rollback(), host.ErrNoTransaction)

	require.NoError(t, h.BeginUndoTransaction("partial"))
	require.NoError(t, h.Translate("persp", mgl64.Vec3{0, 3, 0}, true))
	require.NoError(t, h.Translate("persp", mgl64.Vec3{0, 3, 0}, true))
	require.NoError(t, h.Rollback())

	pos, err := h.WorldPosition("persp")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{}, pos)
	assert.Zero(t, h.UndoDepth())
	// The transaction is closed.
	require.NoError(t, h.BeginUndoTransaction("next"))
	require.NoError(t, h.EndUndoTransaction())
}

func TestSelection(t *testing.T) {
	h := newTestHost(t)
	assert.Empty(t, h.CurrentSelection())

	require.NoError(t, h.Select("pSphere1", "persp"))
	sel := h.CurrentSelection()
	assert.Equal(t, []string{"pSphere1", "persp"}, sel)
	sel[0] = "mutated"
	assert.Equal(t, "pSphere1", h.CurrentSelection()[0])

	assert.ErrorIs(t, h.Select("ghost"), host.ErrEntityNotFound)
	assert.Equal(t, []string{"pSphere1", "persp"}, h.CurrentSelection())
}

func TestFromConfigDefault(t *testing.T) {
	h, err := FromConfig(config.Default().Scene, nil)
	require.NoError(t, err)

	vp, err := h.Active()
	require.NoError(t, err)
	assert.Equal(t, "modelPanel1", vp.Name())
	assert.Equal(t, 512, vp.Width())

	cam, err := h.CameraOf(vp)
	require.NoError(t, err)
	assert.Equal(t, "persp", cam)

	pos, err := h.WorldPosition("pSphere1")
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{0, 0, -10}, pos)
	assert.Equal(t, []string{"pSphere1"}, h.CurrentSelection())
	assert.Zero(t, h.UndoDepth())
}

func TestFromConfigRotationAndKinds(t *testing.T) {
	scene := config.Default().Scene
	scene.Objects = append(scene.Objects,
		config.ObjectConfig{Name: "key", Kind: "light", Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.Vec3{0, 45, 0}},
	)
	h, err := FromConfig(scene, nil)
	require.NoError(t, err)

	info, err := h.Entity("key")
	require.NoError(t, err)
	assert.Equal(t, host.KindLight, info.Kind)
	assert.InDelta(t, 45.0, info.Rotation[1], eps)

	scene.Objects = append(scene.Objects, config.ObjectConfig{Name: "odd", Kind: "nurbs"})
	_, err = FromConfig(scene, nil)
	assert.Error(t, err)
}
