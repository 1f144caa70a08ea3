package camera

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/common"
)

const (
	DefaultFOV  = 40.0
	DefaultNear = 0.1
	DefaultFar  = 1000.0
)

// Camera is a perspective camera oriented by look-at with a fixed world up.
type Camera struct {
	Position    mgl64.Vec3
	Target      mgl64.Vec3
	Orientation mgl64.Quat
	// FOV is the vertical field of view in degrees.
	FOV  float64
	Near float64
	Far  float64
}

func New(position, target mgl64.Vec3, fov float64) *Camera {
	if fov <= 0 {
		fov = DefaultFOV
	}
	c := &Camera{Position: position, FOV: fov, Near: DefaultNear, Far: DefaultFar}
	c.LookAt(target)
	return c
}

// LookAt points the camera at target. The orientation is left unchanged when
// target coincides with the camera position.
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.Target = target
	if target.Sub(c.Position).Len() < 1e-9 {
		if c.Orientation == (mgl64.Quat{}) {
			c.Orientation = mgl64.QuatIdent()
		}
		return
	}
	view := mgl64.LookAtV(c.Position, target, c.up())
	c.Orientation = mgl64.Mat4ToQuat(view).Conjugate().Normalize()
}

// Apply moves the camera to p.Position and looks at p.Target.
func (c *Camera) Apply(p Pose) {
	c.Position = p.Position
	c.LookAt(p.Target)
}

func (c *Camera) Pose() Pose {
	return Pose{Position: c.Position, Target: c.Target}
}

// Forward is the unit view direction, -Z of the camera frame.
func (c *Camera) Forward() mgl64.Vec3 {
	return c.Orientation.Rotate(mgl64.Vec3{0, 0, -1})
}

// up falls back to +Z when looking straight along the world up axis.
func (c *Camera) up() mgl64.Vec3 {
	dir := c.Target.Sub(c.Position).Normalize()
	if d := dir.Dot(common.WorldUp); d > 0.9999 || d < -0.9999 {
		return common.AxisZ
	}
	return common.WorldUp
}

func (c *Camera) ViewMatrix() mgl64.Mat4 {
	if c.Target.Sub(c.Position).Len() < 1e-9 {
		return c.Orientation.Conjugate().Mat4().Mul4(mgl64.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z()))
	}
	return mgl64.LookAtV(c.Position, c.Target, c.up())
}

func (c *Camera) Projection(aspect float64) mgl64.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl64.Perspective(mgl64.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// Project maps a world point to screen pixels for a width x height target.
// ok is false for points behind the near plane.
func (c *Camera) Project(p mgl64.Vec3, width, height float64) (x, y float64, ok bool) {
	return ProjectWith(c.Projection(width/height).Mul4(c.ViewMatrix()), c.Near, p, width, height)
}

// ProjectWith projects p with a precomputed view-projection matrix.
func ProjectWith(viewProj mgl64.Mat4, near float64, p mgl64.Vec3, width, height float64) (x, y float64, ok bool) {
	clip := viewProj.Mul4x1(p.Vec4(1))
	if clip.W() < near {
		return 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x = (ndc.X() + 1) * 0.5 * width
	y = (1 - ndc.Y()) * 0.5 * height
	return x, y, true
}
