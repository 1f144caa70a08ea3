package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Gravity is the downward acceleration along world -Y, in m/s².
const Gravity = 9.82

var (
	AxisX   = mgl64.Vec3{1, 0, 0}
	AxisY   = mgl64.Vec3{0, 1, 0}
	AxisZ   = mgl64.Vec3{0, 0, 1}
	WorldUp = AxisY
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EulerXYZ builds a rotation from intrinsic X, then Y, then Z angles.
func EulerXYZ(x, y, z float64) mgl64.Quat {
	return mgl64.QuatRotate(x, AxisX).
		Mul(mgl64.QuatRotate(y, AxisY)).
		Mul(mgl64.QuatRotate(z, AxisZ)).
		Normalize()
}

// HeadingPitchRoll builds Ry(yaw) * Rx(pitch) * Rz(roll).
func HeadingPitchRoll(yaw, pitch, roll float64) mgl64.Quat {
	return mgl64.QuatRotate(yaw, AxisY).
		Mul(mgl64.QuatRotate(pitch, AxisX)).
		Mul(mgl64.QuatRotate(roll, AxisZ)).
		Normalize()
}

// DecomposeHeadingPitchRoll is the inverse of HeadingPitchRoll.
func DecomposeHeadingPitchRoll(q mgl64.Quat) (yaw, pitch, roll float64) {
	m := q.Normalize().Mat4()
	m12 := Clamp(m.At(1, 2), -1, 1)
	pitch = math.Asin(-m12)
	if math.Abs(m12) < 0.9999999 {
		yaw = math.Atan2(m.At(0, 2), m.At(2, 2))
		roll = math.Atan2(m.At(1, 0), m.At(1, 1))
		return yaw, pitch, roll
	}
	yaw = math.Atan2(-m.At(2, 0), m.At(0, 0))
	return yaw, pitch, 0
}

// WrapAngle maps a to (-π, π].
func WrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// ParseVec3 accepts a three element slice of numbers, as produced by config
// and YAML decoders.
func ParseVec3(raw []float64) (mgl64.Vec3, bool) {
	if len(raw) != 3 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{raw[0], raw[1], raw[2]}, true
}
