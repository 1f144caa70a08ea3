package system

import (
	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
)

// CameraSystem snaps the camera to the chassis every frame according to the
// camera's view mode. In None the camera is left alone.
type CameraSystem struct {
	camEntity    ecs.Entity
	targetEntity ecs.Entity
}

func NewCameraSystem() *CameraSystem {
	return &CameraSystem{}
}

func (cs *CameraSystem) Update(w *ecs.World) {
	if cs == nil || w == nil {
		return
	}

	if !w.IsAlive(cs.camEntity) {
		camEntity, ok := w.First(component.CameraComponent.Kind())
		if !ok {
			return
		}
		cs.camEntity = camEntity
	}
	cam, ok := ecs.Get(w, cs.camEntity, component.CameraComponent)
	if !ok || cam.Camera == nil {
		return
	}

	for _, evt := range w.Events().Peek(ecs.EventViewModeChanged) {
		if mode, ok := evt.Data.(camera.ViewMode); ok && mode.Valid() {
			cam.Mode = mode
		}
	}

	if !w.IsAlive(cs.targetEntity) {
		target, ok := w.First(component.ChassisTagComponent.Kind())
		if !ok {
			return
		}
		cs.targetEntity = target
	}
	target, ok := ecs.Get(w, cs.targetEntity, component.TransformComponent)
	if !ok {
		return
	}

	pose, ok := camera.ComputePoseFromMatrix(cam.Mode, target.Matrix())
	if !ok {
		return
	}
	cam.Camera.Apply(pose)

	if t, ok := ecs.Get(w, cs.camEntity, component.TransformComponent); ok {
		t.Position = cam.Camera.Position
		t.Rotation = cam.Camera.Orientation
	}
}
