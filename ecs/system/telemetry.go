package system

import (
	"sort"

	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/telemetry"
	"github.com/rs/zerolog"
)

// TelemetrySystem publishes a snapshot of the first vehicle every Interval
// frames. A sink that fails is logged once and dropped.
type TelemetrySystem struct {
	Interval int

	log    zerolog.Logger
	sinks  []telemetry.Sink
	frame  uint64
	last   telemetry.Snapshot
	hasAny bool
}

func NewTelemetrySystem(log zerolog.Logger, interval int, sinks ...telemetry.Sink) *TelemetrySystem {
	if interval <= 0 {
		interval = 1
	}
	ts := &TelemetrySystem{Interval: interval, log: log.With().Str("system", "telemetry").Logger()}
	for _, s := range sinks {
		ts.AddSink(s)
	}
	return ts
}

func (ts *TelemetrySystem) AddSink(s telemetry.Sink) {
	if s != nil {
		ts.sinks = append(ts.sinks, s)
	}
}

func (ts *TelemetrySystem) Sinks() int {
	return len(ts.sinks)
}

// Last returns the most recent snapshot, published or not.
func (ts *TelemetrySystem) Last() (telemetry.Snapshot, bool) {
	return ts.last, ts.hasAny
}

func (ts *TelemetrySystem) Update(w *ecs.World) {
	if ts == nil || w == nil {
		return
	}
	ts.frame++

	snap, ok := Snapshot(w)
	if !ok {
		return
	}
	snap.Frame = ts.frame
	ts.last = snap
	ts.hasAny = true

	if ts.frame%uint64(ts.Interval) != 0 || len(ts.sinks) == 0 {
		return
	}
	kept := ts.sinks[:0]
	for _, s := range ts.sinks {
		if err := s.Publish(snap); err != nil {
			ts.log.Warn().Err(err).Msg("telemetry sink disabled")
			continue
		}
		kept = append(kept, s)
	}
	ts.sinks = kept
}

// Snapshot describes the first vehicle in w.
func Snapshot(w *ecs.World) (telemetry.Snapshot, bool) {
	var snap telemetry.Snapshot
	e, ok := w.First(component.VehicleComponent.Kind())
	if !ok {
		return snap, false
	}
	v, _ := ecs.Get(w, e, component.VehicleComponent)
	snap.Vehicle = v.Name

	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		snap.SetPose(t.Position, t.Rotation)
	}
	if v.Vehicle != nil {
		snap.Speed = v.Vehicle.Speed()
		snap.Contacts = v.Vehicle.WheelsInContact()
	}
	if v.Chassis != nil {
		snap.Time = v.Chassis.World().Elapsed()
	}

	snap.View = camera.None.String()
	if camEntity, ok := w.First(component.CameraComponent.Kind()); ok {
		if cam, ok := ecs.Get(w, camEntity, component.CameraComponent); ok {
			snap.View = cam.Mode.String()
		}
	}

	if c, ok := ecs.Get(w, e, component.ControlsComponent); ok {
		if c.Mapper != nil {
			for code, held := range c.Mapper.Keys() {
				if held {
					snap.Keys = append(snap.Keys, code)
				}
			}
			sort.Strings(snap.Keys)
		}
		for _, cmd := range c.Last {
			snap.Commands = append(snap.Commands, cmd.String())
		}
	}
	return snap, true
}
