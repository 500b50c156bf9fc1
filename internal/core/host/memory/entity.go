package memory

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chrisdevito/ViewNudger/internal/core/host"
)

var (
	worldUp      = mgl64.Vec3{0, 1, 0}
	localForward = mgl64.Vec3{0, 0, -1}
)

// transform is the world placement of an entity. Entities have no parent, so
// local and world space coincide.
type transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

func identityTransform(position mgl64.Vec3) transform {
	return transform{Position: position, Orientation: mgl64.QuatIdent()}
}

// Matrix returns the local to world matrix.
func (t transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position[0], t.Position[1], t.Position[2]).Mul4(t.Orientation.Mat4())
}

// Inverse returns the world to local matrix without a general inversion.
func (t transform) Inverse() mgl64.Mat4 {
	return t.Orientation.Conjugate().Mat4().Mul4(mgl64.Translate3D(-t.Position[0], -t.Position[1], -t.Position[2]))
}

// Forward is the direction the entity looks down, local -Z.
func (t transform) Forward() mgl64.Vec3 {
	return t.Orientation.Rotate(localForward).Normalize()
}

type entity struct {
	name string
	kind host.EntityKind
	xf   transform
}

// EntityInfo is a read-only view of an entity.
type EntityInfo struct {
	Name     string
	Kind     host.EntityKind
	Position mgl64.Vec3
	Rotation mgl64.Vec3 // XYZ euler degrees
}

// eulerQuat builds the rotation for XYZ euler angles in degrees: X is applied
// first, then Y, then Z.
func eulerQuat(degrees mgl64.Vec3) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(degrees[0]), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(degrees[1]), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(degrees[2]), mgl64.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx).Normalize()
}

// quatEuler is the inverse of eulerQuat for reporting purposes.
func quatEuler(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	// Column-major: m[col*4+row]. For R = Rz*Ry*Rx, R[2][0] = -sin(y).
	r20 := m[2]
	y := math.Asin(mgl64.Clamp(-r20, -1, 1))
	var x, z float64
	if math.Abs(r20) < 1-1e-9 {
		x = math.Atan2(m[6], m[10])
		z = math.Atan2(m[1], m[0])
	} else {
		// Gimbal lock, fold Z into X.
		x = math.Atan2(-m[9], m[5])
		z = 0
	}
	return mgl64.Vec3{mgl64.RadToDeg(x), mgl64.RadToDeg(y), mgl64.RadToDeg(z)}
}

// lookAtQuat orients an entity at eye so that its -Z axis points at target.
func lookAtQuat(eye, target, up mgl64.Vec3) (mgl64.Quat, bool) {
	f := target.Sub(eye)
	if f.Len() < 1e-12 {
		return mgl64.QuatIdent(), false
	}
	f = f.Normalize()
	s := f.Cross(up)
	if s.Len() < 1e-12 {
		return mgl64.QuatIdent(), false
	}
	s = s.Normalize()
	u := s.Cross(f)

	basis := mgl64.Mat4FromCols(s.Vec4(0), u.Vec4(0), f.Mul(-1).Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return mgl64.Mat4ToQuat(basis).Normalize(), true
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
