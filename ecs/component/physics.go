package component

import "github.com/milk9111/carsim/physics"

// PhysicsBody links an entity to the physics body that owns its transform.
type PhysicsBody struct {
	Body *physics.Body
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()

// Vehicle is carried by the chassis entity.
type Vehicle struct {
	Name    string
	Model   string
	Chassis *physics.Body
	Vehicle *physics.RaycastVehicle
}

var VehicleComponent = NewComponent[Vehicle]()

// Wheel marks a wheel entity with its index in the raycast vehicle.
type Wheel struct {
	Index int
}

var WheelComponent = NewComponent[Wheel]()
