package control

import "github.com/go-gl/mathgl/mgl64"

// VehicleControl is the per-wheel control surface of a raycast vehicle.
type VehicleControl interface {
	ApplyEngineForce(value float64, wheel int)
	SetBrake(value float64, wheel int)
	SetSteeringValue(value float64, wheel int)
}

// ChassisControl is the control surface of the chassis rigid body.
type ChassisControl interface {
	SetPosition(p mgl64.Vec3)
	SetVelocity(v mgl64.Vec3)
	SetAngularVelocity(v mgl64.Vec3)
	SetRotation(q mgl64.Quat)
	ApplyLocalImpulse(impulse, point mgl64.Vec3)
}

// Plan derives the command set for one reconciliation of keys. The engine,
// brake and steering commands are always present so that a released key
// returns its control to zero.
func Plan(keys KeyState, b Bindings, t Tuning) []Command {
	cmds := make([]Command, 0, len(t.DrivenWheels)+len(t.BrakedWheels)+len(t.FrontWheels)+len(t.RearWheels)+2+len(t.Impulses))

	force := t.EngineForce
	if b.Held(keys, Boost) {
		force = t.BoostForce
	}
	switch {
	case b.Held(keys, Forward):
		force = -force
	case b.Held(keys, Reverse):
	default:
		force = 0
	}
	for _, wheel := range t.DrivenWheels {
		cmds = append(cmds, EngineForce(wheel, force))
	}

	brake := 0.0
	if b.Held(keys, Brake) {
		brake = t.BrakeForce
	}
	for _, wheel := range t.BrakedWheels {
		cmds = append(cmds, BrakeCommand(wheel, brake))
	}

	front, rear := 0.0, 0.0
	switch {
	case b.Held(keys, Left):
		front, rear = t.FrontSteering, -t.RearSteering
	case b.Held(keys, Right):
		front, rear = -t.FrontSteering, t.RearSteering
	}
	for _, wheel := range t.FrontWheels {
		cmds = append(cmds, Steering(wheel, front))
	}
	for _, wheel := range t.RearWheels {
		cmds = append(cmds, Steering(wheel, rear))
	}

	if b.Held(keys, Reset) {
		cmds = append(cmds, PositionReset(t.ResetPosition, t.ResetRotation), VelocityReset())
	}

	for _, imp := range t.Impulses {
		if b.Held(keys, imp.Action) {
			cmds = append(cmds, ImpulseApply(imp.Impulse, imp.Point))
		}
	}
	return cmds
}

// Apply issues cmds against the control surfaces in order. Commands whose
// surface is nil are skipped.
func Apply(cmds []Command, vehicle VehicleControl, chassis ChassisControl) {
	for _, c := range cmds {
		switch c.Kind {
		case CommandEngineForce:
			if vehicle != nil {
				vehicle.ApplyEngineForce(c.Value, c.Wheel)
			}
		case CommandBrake:
			if vehicle != nil {
				vehicle.SetBrake(c.Value, c.Wheel)
			}
		case CommandSteering:
			if vehicle != nil {
				vehicle.SetSteeringValue(c.Value, c.Wheel)
			}
		case CommandPositionReset:
			if chassis != nil {
				chassis.SetPosition(c.Position)
				chassis.SetRotation(c.Rotation)
			}
		case CommandVelocityReset:
			if chassis != nil {
				chassis.SetVelocity(mgl64.Vec3{})
				chassis.SetAngularVelocity(mgl64.Vec3{})
			}
		case CommandImpulse:
			if chassis != nil {
				chassis.ApplyLocalImpulse(c.Impulse, c.Point)
			}
		}
	}
}

// Reconcile maps the held keys onto the vehicle and chassis. It does nothing
// until both control surfaces are available.
func Reconcile(keys KeyState, vehicle VehicleControl, chassis ChassisControl, b Bindings, t Tuning) []Command {
	if vehicle == nil || chassis == nil {
		return nil
	}
	cmds := Plan(keys, b, t)
	Apply(cmds, vehicle, chassis)
	return cmds
}
