package entity

import (
	"fmt"

	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/prefabs"
)

// NewCamera creates the camera entity at the camera prefab's initial pose. The view
// mode comes from the caller so configuration can override the prefab.
func NewCamera(w *ecs.World, spec *prefabs.CameraSpec, mode camera.ViewMode) (ecs.Entity, error) {
	if spec == nil {
		return 0, fmt.Errorf("camera: spec is required")
	}
	if !mode.Valid() {
		return 0, fmt.Errorf("camera: %w: %d", camera.ErrInvalidViewMode, int(mode))
	}

	cam := camera.New(spec.Position.Vec(), spec.Target.Vec(), spec.FOV)

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.CameraTagComponent, &component.CameraTag{}); err != nil {
		return 0, fmt.Errorf("camera: add camera tag: %w", err)
	}
	if err := ecs.Add(w, e, component.CameraComponent, &component.Camera{Camera: cam, Mode: mode}); err != nil {
		return 0, fmt.Errorf("camera: add camera component: %w", err)
	}
	if err := ecs.Add(w, e, component.TransformComponent, &component.Transform{
		Position: cam.Position,
		Rotation: cam.Orientation,
	}); err != nil {
		return 0, fmt.Errorf("camera: add transform: %w", err)
	}
	return e, nil
}

// LoadCamera reads the camera prefab and creates the entity.
func LoadCamera(w *ecs.World, name string, mode camera.ViewMode) (ecs.Entity, error) {
	spec, err := prefabs.LoadCameraSpec(name)
	if err != nil {
		return 0, fmt.Errorf("camera: load spec: %w", err)
	}
	return NewCamera(w, spec, mode)
}
