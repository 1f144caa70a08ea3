package input

import "sync"

type keyEvent struct {
	code string
	down bool
}

// Hub is a Source that other goroutines push key events into. Events are
// queued and only reach subscribers when Pump runs on the game loop.
type Hub struct {
	dispatcher
	mu    sync.Mutex
	queue []keyEvent
}

func NewHub() *Hub {
	return &Hub{}
}

func (h *Hub) KeyDown(code string) {
	h.push(code, true)
}

func (h *Hub) KeyUp(code string) {
	h.push(code, false)
}

func (h *Hub) push(code string, down bool) {
	code = NormalizeCode(code)
	if code == "" {
		return
	}
	h.mu.Lock()
	h.queue = append(h.queue, keyEvent{code: code, down: down})
	h.mu.Unlock()
}

// Pump delivers queued events in arrival order and returns how many were
// delivered.
func (h *Hub) Pump() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	pending := h.queue
	h.queue = nil
	h.mu.Unlock()

	for _, evt := range pending {
		h.dispatch(evt.code, evt.down)
	}
	return len(pending)
}

func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}
