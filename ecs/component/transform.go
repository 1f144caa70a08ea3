package component

import "github.com/go-gl/mathgl/mgl64"

// Transform is a world-space pose. Physics-backed entities get it rewritten
// every step.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func (t Transform) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).Mul4(t.Rotation.Normalize().Mat4())
}

var TransformComponent = NewComponent[Transform]()
