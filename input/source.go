package input

import "sync"

// Handler receives key transitions as physical key codes ("KeyW", "Space").
type Handler interface {
	OnKeyDown(code string)
	OnKeyUp(code string)
}

// HandlerFuncs adapts two functions to Handler. Nil funcs are ignored.
type HandlerFuncs struct {
	Down func(code string)
	Up   func(code string)
}

func (h HandlerFuncs) OnKeyDown(code string) {
	if h.Down != nil {
		h.Down(code)
	}
}

func (h HandlerFuncs) OnKeyUp(code string) {
	if h.Up != nil {
		h.Up(code)
	}
}

// Source is a subscribable stream of key events. The returned function
// removes the subscription and is safe to call more than once.
type Source interface {
	Subscribe(h Handler) (unsubscribe func())
}

// dispatcher fans events out to subscribers in subscription order.
type dispatcher struct {
	mu       sync.Mutex
	nextID   int
	order    []int
	handlers map[int]Handler
}

func (d *dispatcher) Subscribe(h Handler) func() {
	if h == nil {
		return func() {}
	}
	d.mu.Lock()
	if d.handlers == nil {
		d.handlers = make(map[int]Handler)
	}
	d.nextID++
	id := d.nextID
	d.handlers[id] = h
	d.order = append(d.order, id)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.handlers, id)
			for i, v := range d.order {
				if v == id {
					d.order = append(d.order[:i], d.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (d *dispatcher) snapshot() []Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Handler, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.handlers[id])
	}
	return out
}

func (d *dispatcher) Subscribers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

func (d *dispatcher) dispatch(code string, down bool) {
	for _, h := range d.snapshot() {
		if down {
			h.OnKeyDown(code)
		} else {
			h.OnKeyUp(code)
		}
	}
}
