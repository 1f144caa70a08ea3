package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

const (
	// EventViewModeChanged carries the new camera.ViewMode.
	EventViewModeChanged = "camera.view_mode"
	// EventPartsReloaded is pushed after a vehicle asset was re-read from disk.
	EventPartsReloaded = "assets.parts_reloaded"
	// EventVehicleReset is pushed when a reconciliation issued a reset.
	EventVehicleReset = "vehicle.reset"
)

// EventQueue is a simple FIFO queue. Events pushed during a frame are visible
// to later systems of the same frame and are dropped when the frame ends.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Peek returns the pending events of the given type without removing them.
func (q *EventQueue) Peek(eventType string) []Event {
	if q == nil {
		return nil
	}
	var out []Event
	for _, evt := range q.items {
		if evt.Type == eventType {
			out = append(out, evt)
		}
	}
	return out
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
