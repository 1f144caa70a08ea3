package component

import "github.com/milk9111/carsim/camera"

// Camera binds the rendered camera to the view mode that drives it.
type Camera struct {
	Camera *camera.Camera
	Mode   camera.ViewMode
}

var CameraComponent = NewComponent[Camera]()
