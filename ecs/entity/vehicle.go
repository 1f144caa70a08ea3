package entity

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/assets"
	"github.com/milk9111/carsim/common"
	"github.com/milk9111/carsim/control"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/physics"
	"github.com/milk9111/carsim/prefabs"
	"github.com/milk9111/carsim/wheels"
)

// Vehicle lists the entities NewVehicle created.
type Vehicle struct {
	Chassis ecs.Entity
	Wheels  [wheels.Count]ecs.Entity
}

// NewVehicle builds the chassis body, the wheel bodies and the raycast
// vehicle from spec, then creates one entity per body carrying its visual
// part.
func NewVehicle(ctx context.Context, w *ecs.World, world *physics.World, spec *prefabs.VehicleSpec, parts *assets.VehicleParts, bindings control.Bindings) (Vehicle, error) {
	var out Vehicle
	if spec == nil || parts == nil {
		return out, fmt.Errorf("vehicle: spec and parts are required")
	}

	c := spec.Chassis
	chassis, err := world.NewChassis(physics.ChassisParams{
		Width:    c.Width,
		Height:   c.Height,
		Length:   c.Length,
		Mass:     c.Mass,
		Position: spec.Spawn.Position.Vec(),
		Rotation: eulerDegrees(spec.Spawn.Rotation),
	})
	if err != nil {
		return out, fmt.Errorf("vehicle: build chassis: %w", err)
	}

	infos, err := wheelInfos(ctx, spec)
	if err != nil {
		return out, err
	}
	bodies := make([]*physics.Body, len(infos))
	for i, info := range infos {
		bodies[i], err = world.NewWheelBody(info.Radius, info.Width)
		if err != nil {
			return out, fmt.Errorf("vehicle: build wheel %d: %w", i, err)
		}
	}

	rv, err := world.NewRaycastVehicle(chassis, infos, bodies)
	if err != nil {
		return out, fmt.Errorf("vehicle: build constraint: %w", err)
	}

	tuning, err := TuningFromSpec(spec.Controls)
	if err != nil {
		return out, err
	}

	out.Chassis = ecs.CreateEntity(w)
	if err := ecs.Add(w, out.Chassis, component.ChassisTagComponent, &component.ChassisTag{}); err != nil {
		return out, fmt.Errorf("vehicle: add chassis tag: %w", err)
	}
	if err := ecs.Add(w, out.Chassis, component.VehicleComponent, &component.Vehicle{
		Name:    spec.Name,
		Model:   spec.Model,
		Chassis: chassis,
		Vehicle: rv,
	}); err != nil {
		return out, fmt.Errorf("vehicle: add vehicle: %w", err)
	}
	if err := ecs.Add(w, out.Chassis, component.ControlsComponent, &component.Controls{
		Mapper:   control.NewMapper(),
		Bindings: bindings,
		Tuning:   tuning,
	}); err != nil {
		return out, fmt.Errorf("vehicle: add controls: %w", err)
	}
	if err := addBody(w, out.Chassis, chassis); err != nil {
		return out, err
	}
	body := sceneNode(assets.PartBody, parts.Body, spec.Scene.Body)
	if err := ecs.Add(w, out.Chassis, component.SceneNodeComponent, &body); err != nil {
		return out, fmt.Errorf("vehicle: add body node: %w", err)
	}

	for i := range out.Wheels {
		e := ecs.CreateEntity(w)
		out.Wheels[i] = e
		if err := ecs.Add(w, e, component.WheelComponent, &component.Wheel{Index: i}); err != nil {
			return out, fmt.Errorf("vehicle: add wheel %d: %w", i, err)
		}
		if err := addBody(w, e, bodies[i]); err != nil {
			return out, err
		}
		name := wheels.PartNames[i]
		node := sceneNode(name, parts.Named(name), spec.Scene.Wheels)
		if err := ecs.Add(w, e, component.SceneNodeComponent, &node); err != nil {
			return out, fmt.Errorf("vehicle: add wheel %d node: %w", i, err)
		}
	}
	return out, nil
}

// RebindParts swaps the visual parts of an existing vehicle, leaving the
// physics untouched.
func RebindParts(w *ecs.World, parts *assets.VehicleParts) int {
	bound := 0
	ecs.ForEach(w, component.SceneNodeComponent, func(e ecs.Entity, node *component.SceneNode) {
		if p := parts.Named(node.Name); p != nil {
			node.SetPart(p)
			bound++
		}
	})
	return bound
}

// TuningFromSpec overlays the non-zero spec values onto DefaultTuning.
func TuningFromSpec(s prefabs.ControlsSpec) (control.Tuning, error) {
	t := control.DefaultTuning()
	if s.EngineForce != 0 {
		t.EngineForce = s.EngineForce
	}
	if s.BoostForce != 0 {
		t.BoostForce = s.BoostForce
	}
	if s.BrakeForce != 0 {
		t.BrakeForce = s.BrakeForce
	}
	if s.FrontSteering != 0 {
		t.FrontSteering = s.FrontSteering
	}
	if s.RearSteering != 0 {
		t.RearSteering = s.RearSteering
	}
	if s.Reset.Position != (prefabs.Vec3{}) {
		t.ResetPosition = s.Reset.Position.Vec()
	}
	if s.Reset.Rotation != (prefabs.Vec3{}) {
		t.ResetRotation = eulerDegrees(s.Reset.Rotation)
	}
	if len(s.Impulses) > 0 {
		t.Impulses = make([]control.LocalImpulse, 0, len(s.Impulses))
		for _, imp := range s.Impulses {
			a, err := control.ParseAction(imp.Action)
			if err != nil {
				return t, fmt.Errorf("vehicle: impulse: %w", err)
			}
			t.Impulses = append(t.Impulses, control.LocalImpulse{
				Action:  a,
				Impulse: imp.Impulse.Vec(),
				Point:   imp.Point.Vec(),
			})
		}
	}
	return t, nil
}

func wheelInfos(ctx context.Context, spec *prefabs.VehicleSpec) ([]physics.WheelInfo, error) {
	c := spec.Chassis
	if spec.Wheels.Script == "" {
		return wheels.Layout(c.Width, c.Height, c.Length, spec.Wheels.Radius), nil
	}
	src, err := prefabs.LoadScript(spec.Wheels.Script)
	if err != nil {
		return nil, fmt.Errorf("vehicle: load wheel script: %w", err)
	}
	infos, err := wheels.ScriptLayout(ctx, src, c.Width, c.Height, c.Length, spec.Wheels.Radius)
	if err != nil {
		return nil, err
	}
	if len(infos) != wheels.Count {
		return nil, fmt.Errorf("vehicle: wheel script produced %d wheels, want %d", len(infos), wheels.Count)
	}
	return infos, nil
}

func addBody(w *ecs.World, e ecs.Entity, b *physics.Body) error {
	if err := ecs.Add(w, e, component.PhysicsBodyComponent, &component.PhysicsBody{Body: b}); err != nil {
		return fmt.Errorf("vehicle: add physics body: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{
		Position: b.Position(),
		Rotation: b.Rotation(),
	}); err != nil {
		return fmt.Errorf("vehicle: add transform: %w", err)
	}
	return nil
}

func sceneNode(name string, part *assets.Part, place prefabs.PartPlacementSpec) component.SceneNode {
	node := component.SceneNode{
		Name:      name,
		RotationY: mgl64.DegToRad(place.RotationY),
		Offset:    place.Offset.Vec(),
	}
	node.SetPart(part)
	return node
}

func eulerDegrees(v prefabs.Vec3) mgl64.Quat {
	r := v.Radians()
	return common.EulerXYZ(r[0], r[1], r[2])
}
