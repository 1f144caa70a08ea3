package control

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type CommandKind uint8

const (
	CommandEngineForce CommandKind = iota + 1
	CommandBrake
	CommandSteering
	CommandPositionReset
	CommandVelocityReset
	CommandImpulse
)

func (k CommandKind) String() string {
	switch k {
	case CommandEngineForce:
		return "engine_force"
	case CommandBrake:
		return "brake"
	case CommandSteering:
		return "steering"
	case CommandPositionReset:
		return "position_reset"
	case CommandVelocityReset:
		return "velocity_reset"
	case CommandImpulse:
		return "impulse"
	default:
		return "unknown"
	}
}

// Command is one call against a vehicle or chassis control surface.
//
// Wheel and Value are set for the per-wheel kinds. PositionReset carries
// Position and Rotation. Impulse carries Impulse and Point, both local.
type Command struct {
	Kind     CommandKind
	Wheel    int
	Value    float64
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Impulse  mgl64.Vec3
	Point    mgl64.Vec3
}

func EngineForce(wheel int, value float64) Command {
	return Command{Kind: CommandEngineForce, Wheel: wheel, Value: value}
}

func BrakeCommand(wheel int, value float64) Command {
	return Command{Kind: CommandBrake, Wheel: wheel, Value: value}
}

func Steering(wheel int, value float64) Command {
	return Command{Kind: CommandSteering, Wheel: wheel, Value: value}
}

func PositionReset(position mgl64.Vec3, rotation mgl64.Quat) Command {
	return Command{Kind: CommandPositionReset, Position: position, Rotation: rotation}
}

func VelocityReset() Command {
	return Command{Kind: CommandVelocityReset}
}

func ImpulseApply(impulse, point mgl64.Vec3) Command {
	return Command{Kind: CommandImpulse, Impulse: impulse, Point: point}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandEngineForce, CommandBrake, CommandSteering:
		return fmt.Sprintf("%s[%d]=%g", c.Kind, c.Wheel, c.Value)
	case CommandPositionReset:
		return fmt.Sprintf("%s(%.2f %.2f %.2f)", c.Kind, c.Position.X(), c.Position.Y(), c.Position.Z())
	case CommandImpulse:
		return fmt.Sprintf("%s(%.1f %.1f %.1f @ %.1f %.1f %.1f)", c.Kind,
			c.Impulse.X(), c.Impulse.Y(), c.Impulse.Z(), c.Point.X(), c.Point.Y(), c.Point.Z())
	default:
		return c.Kind.String()
	}
}

// EngineForces returns the engine force per wheel carried by cmds.
func EngineForces(cmds []Command) map[int]float64 {
	return valuesOf(cmds, CommandEngineForce)
}

func Brakes(cmds []Command) map[int]float64 {
	return valuesOf(cmds, CommandBrake)
}

func SteeringValues(cmds []Command) map[int]float64 {
	return valuesOf(cmds, CommandSteering)
}

func valuesOf(cmds []Command, kind CommandKind) map[int]float64 {
	out := make(map[int]float64)
	for _, c := range cmds {
		if c.Kind == kind {
			out[c.Wheel] = c.Value
		}
	}
	return out
}
