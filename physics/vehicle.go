package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/common"
)

// WheelInfo is the static configuration of one raycast wheel. Points and
// directions are in chassis space.
type WheelInfo struct {
	ConnectionPoint mgl64.Vec3
	Direction       mgl64.Vec3
	Axle            mgl64.Vec3
	Radius          float64
	Width           float64

	SuspensionStiffness  float64
	SuspensionRestLength float64
	MaxSuspensionTravel  float64
	MaxSuspensionForce   float64
	DampingRelaxation    float64
	DampingCompression   float64

	FrictionSlip  float64
	RollInfluence float64

	CustomSlidingRotationalSpeed    float64
	UseCustomSlidingRotationalSpeed bool

	Front bool
}

func (wi WheelInfo) validate() error {
	if wi.Radius <= 0 {
		return fmt.Errorf("%w: radius %g", ErrInvalidWheel, wi.Radius)
	}
	if wi.Direction.Len() == 0 || wi.Axle.Len() == 0 {
		return fmt.Errorf("%w: zero direction or axle", ErrInvalidWheel)
	}
	if wi.SuspensionRestLength < 0 || wi.MaxSuspensionTravel < 0 {
		return fmt.Errorf("%w: negative suspension length", ErrInvalidWheel)
	}
	return nil
}

// WheelState is the per-step runtime state of a wheel.
type WheelState struct {
	Steering    float64
	EngineForce float64
	Brake       float64

	InContact        bool
	Sliding          bool
	SuspensionLength float64
	SuspensionForce  float64
	// SkidInfo is 1 while gripping and drops towards 0 while sliding.
	SkidInfo      float64
	Rotation      float64
	DeltaRotation float64
	ContactPoint  mgl64.Vec3
}

// RaycastVehicle keeps a chassis on its wheels by casting one ray per wheel
// against the ground plane.
type RaycastVehicle struct {
	world   *World
	chassis *Body
	infos   []WheelInfo
	states  []WheelState
	wheels  []*Body

	// RollingFriction is the largest impulse per wheel and step that slows an
	// unbraked, undriven wheel.
	RollingFriction float64
}

// NewRaycastVehicle links a chassis and its wheel bodies. wheelBodies may be
// shorter than infos or contain nil entries for wheels without a visual body.
func (w *World) NewRaycastVehicle(chassis *Body, infos []WheelInfo, wheelBodies []*Body) (*RaycastVehicle, error) {
	if chassis == nil || chassis.kinematic {
		return nil, fmt.Errorf("%w: vehicle needs a dynamic chassis", ErrInvalidBody)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: no wheels", ErrInvalidWheel)
	}
	for i, info := range infos {
		if err := info.validate(); err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
	}

	v := &RaycastVehicle{
		world:           w,
		chassis:         chassis,
		infos:           append([]WheelInfo(nil), infos...),
		states:          make([]WheelState, len(infos)),
		wheels:          make([]*Body, len(infos)),
		RollingFriction: 0.2,
	}
	copy(v.wheels, wheelBodies)
	for i := range v.states {
		v.states[i].SuspensionLength = infos[i].SuspensionRestLength
		v.states[i].SkidInfo = 1
	}
	w.vehicles = append(w.vehicles, v)
	v.updateWheelTransforms(0)
	return v, nil
}

func (v *RaycastVehicle) Chassis() *Body {
	return v.chassis
}

func (v *RaycastVehicle) NumWheels() int {
	return len(v.infos)
}

func (v *RaycastVehicle) WheelInfo(i int) (WheelInfo, bool) {
	if i < 0 || i >= len(v.infos) {
		return WheelInfo{}, false
	}
	return v.infos[i], true
}

func (v *RaycastVehicle) Wheel(i int) (WheelState, bool) {
	if i < 0 || i >= len(v.states) {
		return WheelState{}, false
	}
	return v.states[i], true
}

func (v *RaycastVehicle) WheelBody(i int) *Body {
	if i < 0 || i >= len(v.wheels) {
		return nil
	}
	return v.wheels[i]
}

// ApplyEngineForce sets the drive force of a wheel. Negative values drive
// towards chassis +Z. Out of range indices are ignored.
func (v *RaycastVehicle) ApplyEngineForce(value float64, wheel int) {
	if wheel >= 0 && wheel < len(v.states) {
		v.states[wheel].EngineForce = value
	}
}

// SetBrake sets the largest braking impulse per step for a wheel.
func (v *RaycastVehicle) SetBrake(value float64, wheel int) {
	if wheel >= 0 && wheel < len(v.states) {
		v.states[wheel].Brake = value
	}
}

// SetSteeringValue sets the steering angle in radians; positive turns left.
func (v *RaycastVehicle) SetSteeringValue(value float64, wheel int) {
	if wheel >= 0 && wheel < len(v.states) {
		v.states[wheel].Steering = value
	}
}

// Speed is the chassis velocity along its forward axis, in m/s.
func (v *RaycastVehicle) Speed() float64 {
	return v.chassis.Velocity().Dot(v.chassis.Rotation().Rotate(common.AxisZ))
}

func (v *RaycastVehicle) WheelsInContact() int {
	n := 0
	for _, s := range v.states {
		if s.InContact {
			n++
		}
	}
	return n
}

func (v *RaycastVehicle) updateSuspension(dt float64) {
	c := v.chassis
	rot := c.Rotation()
	heading := common.HeadingPitchRoll(c.heading(), 0, 0)
	ground := v.world.params.GroundHeight

	hardpoints := make([]mgl64.Vec3, len(v.infos))
	for i, info := range v.infos {
		s := &v.states[i]
		hp := c.LocalToWorld(info.ConnectionPoint)
		hardpoints[i] = hp
		dir := rot.Rotate(info.Direction.Normalize())

		s.InContact = false
		s.SuspensionForce = 0
		maxLen := info.SuspensionRestLength + info.MaxSuspensionTravel
		if dir.Y() > -1e-3 {
			s.SuspensionLength = maxLen
			continue
		}
		hit := math.Max(0, (ground-hp.Y())/dir.Y())
		length := hit - info.Radius
		if length > maxLen {
			s.SuspensionLength = maxLen
			continue
		}
		minLen := info.SuspensionRestLength - info.MaxSuspensionTravel
		if length < minLen {
			length = minLen
		}
		s.InContact = true
		s.SuspensionLength = length
		s.ContactPoint = hp.Add(dir.Mul(hit))

		// Projected speed along the ground normal; negative while compressing.
		invContactDot := -1 / dir.Y()
		relVel := c.PointVelocity(s.ContactPoint).Y() * invContactDot

		force := info.SuspensionStiffness * (info.SuspensionRestLength - length) * invContactDot
		damping := info.DampingRelaxation
		if relVel < 0 {
			damping = info.DampingCompression
		}
		force -= damping * relVel
		force *= c.mass
		s.SuspensionForce = common.Clamp(force, 0, info.MaxSuspensionForce)
	}

	for i := range v.infos {
		if v.states[i].InContact {
			c.ApplyWorldImpulse(mgl64.Vec3{0, v.states[i].SuspensionForce * dt, 0}, hardpoints[i])
		}
	}

	v.updateFriction(dt, heading)
}

// frictionImpulse is one wheel's contribution to a friction step.
type frictionImpulse struct {
	forward, side mgl64.Vec3
	longitudinal  float64
	lateral       float64
	at, sideAt    mgl64.Vec3
}

// updateFriction solves every wheel against the same pre-friction chassis
// state before any impulse is applied.
func (v *RaycastVehicle) updateFriction(dt float64, heading mgl64.Quat) {
	c := v.chassis
	contacts := v.WheelsInContact()
	if contacts == 0 {
		for i := range v.states {
			v.states[i].Sliding = false
			v.states[i].SkidInfo = 1
		}
		return
	}
	share := c.mass / float64(contacts)
	pos := c.Position()

	impulses := make([]frictionImpulse, 0, contacts)
	for i, info := range v.infos {
		s := &v.states[i]
		s.Sliding = false
		s.SkidInfo = 1
		if !s.InContact {
			continue
		}
		sin, cos := math.Sincos(s.Steering)
		forward := heading.Rotate(mgl64.Vec3{sin, 0, cos})
		side := heading.Rotate(mgl64.Vec3{cos, 0, -sin})
		vel := c.PointVelocity(s.ContactPoint)

		var longitudinal float64
		if s.EngineForce != 0 {
			longitudinal = -s.EngineForce * dt
		} else {
			limit := v.RollingFriction
			if s.Brake != 0 {
				limit = math.Abs(s.Brake)
			}
			longitudinal = common.Clamp(-vel.Dot(forward)*share, -limit, limit)
		}
		lateral := -vel.Dot(side) * share

		maxImpulse := s.SuspensionForce * dt * info.FrictionSlip
		combined := longitudinal*longitudinal*0.25 + lateral*lateral
		if combined > maxImpulse*maxImpulse {
			s.Sliding = true
			if combined > 0 {
				s.SkidInfo = maxImpulse / math.Sqrt(combined)
			} else {
				s.SkidInfo = 0
			}
			longitudinal *= s.SkidInfo
			lateral *= s.SkidInfo
		}

		// Raising the side impulse towards the centre of mass limits body roll.
		sideAt := s.ContactPoint
		sideAt[1] = pos.Y() + (sideAt.Y()-pos.Y())*info.RollInfluence
		impulses = append(impulses, frictionImpulse{
			forward:      forward,
			side:         side,
			longitudinal: longitudinal,
			lateral:      lateral,
			at:           s.ContactPoint,
			sideAt:       sideAt,
		})
	}

	for _, f := range impulses {
		c.ApplyWorldImpulse(f.forward.Mul(f.longitudinal), f.at)
		c.ApplyWorldImpulse(f.side.Mul(f.lateral), f.sideAt)
	}
}

// updateWheelTransforms spins the wheels and writes their body transforms.
func (v *RaycastVehicle) updateWheelTransforms(dt float64) {
	c := v.chassis
	rot := c.Rotation()
	heading := common.HeadingPitchRoll(c.heading(), 0, 0)
	for i, info := range v.infos {
		s := &v.states[i]
		switch {
		case s.InContact && s.Sliding && s.EngineForce != 0 && info.UseCustomSlidingRotationalSpeed:
			s.DeltaRotation = math.Abs(info.CustomSlidingRotationalSpeed) * math.Copysign(dt, -s.EngineForce)
		case s.InContact:
			sin, cos := math.Sincos(s.Steering)
			forward := heading.Rotate(mgl64.Vec3{sin, 0, cos})
			s.DeltaRotation = c.PointVelocity(s.ContactPoint).Dot(forward) * dt / info.Radius
		default:
			s.DeltaRotation *= 0.99
		}
		s.Rotation = common.WrapAngle(s.Rotation + s.DeltaRotation)

		body := v.wheels[i]
		if body == nil {
			continue
		}
		dir := rot.Rotate(info.Direction.Normalize())
		center := c.LocalToWorld(info.ConnectionPoint).Add(dir.Mul(s.SuspensionLength))
		wheelRot := rot.
			Mul(mgl64.QuatRotate(s.Steering, common.AxisY)).
			Mul(mgl64.QuatRotate(s.Rotation, info.Axle.Normalize()))
		body.setTransform(center, wheelRot)
	}
}
