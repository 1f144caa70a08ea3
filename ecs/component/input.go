package component

import "github.com/milk9111/carsim/control"

// Controls holds the keyboard mapper of a vehicle and the commands issued by
// its most recent reconciliation.
type Controls struct {
	Mapper   *control.Mapper
	Bindings control.Bindings
	Tuning   control.Tuning
	Last     []control.Command
	Runs     int
}

var ControlsComponent = NewComponent[Controls]()
