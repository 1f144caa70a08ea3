package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/carsim/common"
)

// maxTilt keeps pitch and roll away from the heading/pitch/roll singularity.
const maxTilt = math.Pi/2 - 0.05

// Body is a rigid body in a World. Chipmunk coordinates map world X to cp X
// and world Z to cp Y; the cp angle is the negated heading.
type Body struct {
	world     *World
	body      *cp.Body
	shape     *cp.Shape
	kinematic bool

	width, height, length float64
	mass                  float64
	ix, iz                float64

	y, vy               float64
	pitch, roll         float64
	pitchRate, rollRate float64
	linearDamping       float64
	angularDamping      float64
	rot                 mgl64.Quat // kinematic bodies only
}

func toCP(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v.X(), Y: v.Z()}
}

// World returns the world the body was added to.
func (b *Body) World() *World {
	return b.world
}

func (b *Body) Kinematic() bool {
	return b.kinematic
}

func (b *Body) Mass() float64 {
	return b.mass
}

func (b *Body) Dimensions() (width, height, length float64) {
	return b.width, b.height, b.length
}

func (b *Body) heading() float64 {
	return -b.body.Angle()
}

func (b *Body) Position() mgl64.Vec3 {
	p := b.body.Position()
	return mgl64.Vec3{p.X, b.y, p.Y}
}

func (b *Body) Rotation() mgl64.Quat {
	if b.kinematic {
		return b.rot
	}
	return common.HeadingPitchRoll(b.heading(), b.pitch, b.roll)
}

func (b *Body) Velocity() mgl64.Vec3 {
	v := b.body.Velocity()
	return mgl64.Vec3{v.X, b.vy, v.Y}
}

// AngularVelocity is in world space.
func (b *Body) AngularVelocity() mgl64.Vec3 {
	tilt := common.HeadingPitchRoll(b.heading(), 0, 0).Rotate(mgl64.Vec3{b.pitchRate, 0, b.rollRate})
	return tilt.Add(mgl64.Vec3{0, -b.body.AngularVelocity(), 0})
}

// Matrix is the world transform.
func (b *Body) Matrix() mgl64.Mat4 {
	p := b.Position()
	return mgl64.Translate3D(p.X(), p.Y(), p.Z()).Mul4(b.Rotation().Mat4())
}

func (b *Body) LocalToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return b.Position().Add(b.Rotation().Rotate(p))
}

// PointVelocity is the world velocity of a world point rigidly attached to b.
func (b *Body) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	r := point.Sub(b.Position())
	return b.Velocity().Add(b.AngularVelocity().Cross(r))
}

func (b *Body) SetPosition(p mgl64.Vec3) {
	b.body.SetPosition(toCP(p))
	b.y = p.Y()
}

func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.body.SetVelocityVector(toCP(v))
	b.vy = v.Y()
}

func (b *Body) SetAngularVelocity(w mgl64.Vec3) {
	b.body.SetAngularVelocity(-w.Y())
	local := common.HeadingPitchRoll(b.heading(), 0, 0).Inverse().Rotate(w)
	b.pitchRate = local.X()
	b.rollRate = local.Z()
}

func (b *Body) SetRotation(q mgl64.Quat) {
	if b.kinematic {
		b.rot = q.Normalize()
		yaw, _, _ := common.DecomposeHeadingPitchRoll(q)
		b.body.SetAngle(-yaw)
		return
	}
	yaw, pitch, roll := common.DecomposeHeadingPitchRoll(q)
	b.body.SetAngle(-yaw)
	b.pitch = common.Clamp(pitch, -maxTilt, maxTilt)
	b.roll = common.Clamp(roll, -maxTilt, maxTilt)
}

func (b *Body) setTransform(p mgl64.Vec3, q mgl64.Quat) {
	b.body.SetPosition(toCP(p))
	b.y = p.Y()
	b.SetRotation(q)
}

// ApplyLocalImpulse applies an impulse given in body space at a body-space
// point.
func (b *Body) ApplyLocalImpulse(impulse, point mgl64.Vec3) {
	rot := b.Rotation()
	b.ApplyWorldImpulse(rot.Rotate(impulse), b.Position().Add(rot.Rotate(point)))
}

// ApplyWorldImpulse applies an impulse at a world point. The planar part goes
// to Chipmunk, the rest changes vertical speed and tilt rates.
func (b *Body) ApplyWorldImpulse(impulse, point mgl64.Vec3) {
	if b.kinematic || b.mass <= 0 {
		return
	}
	if impulse.X() != 0 || impulse.Z() != 0 {
		b.body.ApplyImpulseAtWorldPoint(toCP(impulse), toCP(point))
	}
	b.vy += impulse.Y() / b.mass

	torque := point.Sub(b.Position()).Cross(impulse)
	local := b.Rotation().Inverse().Rotate(torque)
	b.pitchRate += local.X() / b.ix
	b.rollRate += local.Z() / b.iz
}

func (b *Body) updateVelocity(body *cp.Body, gravity cp.Vector, damping, dt float64) {
	cp.BodyUpdateVelocity(body, gravity, damping, dt)
	body.SetVelocityVector(body.Velocity().Mult(math.Pow(1-b.linearDamping, dt)))
	body.SetAngularVelocity(body.AngularVelocity() * math.Pow(1-b.angularDamping, dt))
}

// integrateVertical advances height, pitch and roll and keeps the chassis
// above the ground plane.
func (b *Body) integrateVertical(dt float64) {
	b.vy -= b.world.params.Gravity * dt
	b.vy *= math.Pow(1-b.linearDamping, dt)
	b.pitchRate *= math.Pow(1-b.angularDamping, dt)
	b.rollRate *= math.Pow(1-b.angularDamping, dt)

	b.y += b.vy * dt
	b.pitch = common.Clamp(b.pitch+b.pitchRate*dt, -maxTilt, maxTilt)
	b.roll = common.Clamp(b.roll+b.rollRate*dt, -maxTilt, maxTilt)

	floor := b.world.params.GroundHeight + b.height/2
	if b.y < floor {
		b.y = floor
		if b.vy < 0 {
			b.vy = 0
		}
		b.pitchRate *= 0.5
		b.rollRate *= 0.5
		b.pitch *= 0.9
		b.roll *= 0.9
	}
}
