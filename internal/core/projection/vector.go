package projection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// minLength is the shortest vector that is still given a direction.
const minLength = 1e-12

// AngleBetween returns the unsigned angle between a and b in radians.
// It uses atan2 of the cross and dot products, which stays accurate near 0
// and pi: identical directions give exactly zero and the result is never NaN.
// A zero-length input yields zero.
func AngleBetween(a, b mgl64.Vec3) float64 {
	if a.Len() < minLength || b.Len() < minLength {
		return 0
	}
	return math.Atan2(a.Cross(b).Len(), a.Dot(b))
}

// AngleBetweenDegrees is AngleBetween in degrees.
func AngleBetweenDegrees(a, b mgl64.Vec3) float64 {
	return mgl64.RadToDeg(AngleBetween(a, b))
}

// Direction returns the unit vector from `from` towards `to` and the distance
// between them. ok is false when the two points coincide.
func Direction(from, to mgl64.Vec3) (dir mgl64.Vec3, dist float64, ok bool) {
	d := to.Sub(from)
	dist = d.Len()
	if dist < minLength {
		return mgl64.Vec3{}, 0, false
	}
	return d.Mul(1 / dist), dist, true
}

// Finite reports whether every component of v is a finite number.
func Finite(v mgl64.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
