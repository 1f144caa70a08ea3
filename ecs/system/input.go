package system

import (
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/input"
)

// InputSystem attaches every vehicle mapper to the key sources and then
// delivers this frame's key events.
type InputSystem struct {
	keyboard *input.Keyboard
	hubs     []*input.Hub
}

func NewInputSystem(keyboard *input.Keyboard, hubs ...*input.Hub) *InputSystem {
	return &InputSystem{keyboard: keyboard, hubs: hubs}
}

func (i *InputSystem) Sources() []input.Source {
	var sources []input.Source
	if i.keyboard != nil {
		sources = append(sources, i.keyboard)
	}
	for _, h := range i.hubs {
		if h != nil {
			sources = append(sources, h)
		}
	}
	return sources
}

func (i *InputSystem) Update(w *ecs.World) {
	if i == nil || w == nil {
		return
	}

	ecs.ForEach(w, component.ControlsComponent, func(e ecs.Entity, c *component.Controls) {
		if c.Mapper != nil && !c.Mapper.Attached() {
			c.Mapper.AttachAll(i.Sources()...)
		}
	})

	i.keyboard.Poll()
	for _, h := range i.hubs {
		h.Pump()
	}
}

// Detach releases the subscriptions of every mapper in w.
func (i *InputSystem) Detach(w *ecs.World) {
	ecs.ForEach(w, component.ControlsComponent, func(e ecs.Entity, c *component.Controls) {
		if c.Mapper != nil {
			c.Mapper.Detach()
		}
	})
}
