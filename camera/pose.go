package camera

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Pose is where the camera sits and what it looks at, in world space.
type Pose struct {
	Position mgl64.Vec3
	Target   mgl64.Vec3
}

// Chassis-local offsets.
var (
	ThirdPersonOffset = mgl64.Vec3{0, 2, -5}
	FrontOffset       = mgl64.Vec3{0, 2, 5}
	DriverLookOffset  = mgl64.Vec3{0, 0.45, 0.5}
)

// DecomposeWorld extracts translation and rotation from a rigid world
// matrix. Any scale on the basis columns is divided out first.
func DecomposeWorld(m mgl64.Mat4) (mgl64.Vec3, mgl64.Quat) {
	position := m.Col(3).Vec3()

	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()
	if l := x.Len(); l > 0 {
		x = x.Mul(1 / l)
	}
	if l := y.Len(); l > 0 {
		y = y.Mul(1 / l)
	}
	if l := z.Len(); l > 0 {
		z = z.Mul(1 / l)
	}
	rot := mgl64.Mat4FromCols(x.Vec4(0), y.Vec4(0), z.Vec4(0), mgl64.Vec4{0, 0, 0, 1})
	return position, mgl64.Mat4ToQuat(rot).Normalize()
}

// ComputePose frames a chassis at position with the given rotation. It
// reports false for None, where the camera is left untouched.
func ComputePose(mode ViewMode, position mgl64.Vec3, rotation mgl64.Quat) (Pose, bool) {
	switch mode {
	case ThirdPerson:
		return Pose{Position: position.Add(rotation.Rotate(ThirdPersonOffset)), Target: position}, true
	case Front:
		return Pose{Position: position.Add(rotation.Rotate(FrontOffset)), Target: position}, true
	case Driver:
		return Pose{Position: position, Target: position.Add(rotation.Rotate(DriverLookOffset))}, true
	default:
		return Pose{}, false
	}
}

// ComputePoseFromMatrix is ComputePose for a chassis world matrix.
func ComputePoseFromMatrix(mode ViewMode, world mgl64.Mat4) (Pose, bool) {
	if mode == None {
		return Pose{}, false
	}
	position, rotation := DecomposeWorld(world)
	return ComputePose(mode, position, rotation)
}
