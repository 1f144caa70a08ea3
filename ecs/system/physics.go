package system

import (
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/physics"
)

// PhysicsSystem steps the physics world once per frame and copies body poses
// into transforms.
type PhysicsSystem struct {
	world *physics.World
	dt    float64
	steps uint64
}

func NewPhysicsSystem(world *physics.World) *PhysicsSystem {
	return &PhysicsSystem{world: world, dt: physics.FixedStep}
}

func (ps *PhysicsSystem) World() *physics.World {
	if ps == nil {
		return nil
	}
	return ps.world
}

func (ps *PhysicsSystem) Steps() uint64 {
	return ps.steps
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || ps.world == nil || w == nil {
		return
	}

	ps.world.Step(ps.dt)
	ps.steps++
	SyncTransforms(w)
}

// SyncTransforms writes each physics body's pose to its entity transform.
func SyncTransforms(w *ecs.World) {
	ecs.ForEach2(w, component.PhysicsBodyComponent, component.TransformComponent, func(e ecs.Entity, pb *component.PhysicsBody, t *component.Transform) {
		if pb.Body == nil {
			return
		}
		t.Position = pb.Body.Position()
		t.Rotation = pb.Body.Rotation()
	})
}
