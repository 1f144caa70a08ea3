package system

import (
	"github.com/milk9111/carsim/control"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/rs/zerolog"
)

// ControlSystem reconciles each vehicle's held keys against its control
// surfaces when the key state changed or the handles just appeared.
type ControlSystem struct {
	log zerolog.Logger
}

func NewControlSystem(log zerolog.Logger) *ControlSystem {
	return &ControlSystem{log: log.With().Str("system", "control").Logger()}
}

func (cs *ControlSystem) Update(w *ecs.World) {
	if cs == nil || w == nil {
		return
	}

	ecs.ForEach2(w, component.ControlsComponent, component.VehicleComponent, func(e ecs.Entity, c *component.Controls, v *component.Vehicle) {
		if c.Mapper == nil {
			return
		}

		var vehicle control.VehicleControl
		var chassis control.ChassisControl
		if v.Vehicle != nil {
			vehicle = v.Vehicle
		}
		if v.Chassis != nil {
			chassis = v.Chassis
		}

		cmds, ran := c.Mapper.Update(vehicle, chassis, c.Bindings, c.Tuning)
		if !ran {
			return
		}
		c.Last = cmds
		c.Runs++

		for _, cmd := range cmds {
			if cmd.Kind == control.CommandPositionReset {
				w.Events().Push(ecs.Event{Type: ecs.EventVehicleReset, Data: e})
				cs.log.Debug().Stringer("entity", e).Msg("vehicle reset")
				break
			}
		}
	})
}
