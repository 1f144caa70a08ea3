package input

import (
	"sync"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []string
}

func (r *recordingHandler) OnKeyDown(code string) { r.events = append(r.events, "+"+code) }
func (r *recordingHandler) OnKeyUp(code string)   { r.events = append(r.events, "-"+code) }

func TestCode(t *testing.T) {
	cases := []struct {
		key  ebiten.Key
		want string
	}{
		{ebiten.KeyW, "KeyW"},
		{ebiten.KeyR, "KeyR"},
		{ebiten.KeySpace, "Space"},
		{ebiten.KeyShiftLeft, "ShiftLeft"},
		{ebiten.KeyArrowUp, "ArrowUp"},
		{ebiten.KeyDigit1, "Digit1"},
	}
	for _, c := range cases {
		t.Run(c.want, func(t *testing.T) {
			assert.Equal(t, c.want, Code(c.key))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"w":         "KeyW",
		"W":         "KeyW",
		"keyw":      "KeyW",
		"space":     "Space",
		"arrowup":   "ArrowUp",
		"ShiftLeft": "ShiftLeft",
		"3":         "Digit3",
		" ":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCode(in), "input %q", in)
	}
}

func TestKeyboardPollDispatchesReleasesFirst(t *testing.T) {
	pressed := []ebiten.Key{ebiten.KeyW}
	released := []ebiten.Key{ebiten.KeyW, ebiten.KeySpace}
	kb := newKeyboard(
		func(buf []ebiten.Key) []ebiten.Key { return append(buf, pressed...) },
		func(buf []ebiten.Key) []ebiten.Key { return append(buf, released...) },
	)
	h := &recordingHandler{}
	unsubscribe := kb.Subscribe(h)

	kb.Poll()
	assert.Equal(t, []string{"-KeyW", "-Space", "+KeyW"}, h.events)

	unsubscribe()
	unsubscribe()
	kb.Poll()
	assert.Len(t, h.events, 3, "no events after unsubscribe")
	assert.Equal(t, 0, kb.Subscribers())
}

func TestHubQueuesUntilPump(t *testing.T) {
	hub := NewHub()
	h := &recordingHandler{}
	defer hub.Subscribe(h)()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.KeyDown("w")
		}()
	}
	wg.Wait()

	require.Empty(t, h.events, "nothing is delivered before Pump")
	require.Equal(t, 8, hub.Pending())

	assert.Equal(t, 8, hub.Pump())
	assert.Len(t, h.events, 8)
	assert.Equal(t, "+KeyW", h.events[0])

	hub.KeyUp("KeyW")
	hub.KeyDown("")
	assert.Equal(t, 1, hub.Pump())
	assert.Equal(t, "-KeyW", h.events[len(h.events)-1])
}

func TestSubscribeOrderAndNil(t *testing.T) {
	hub := NewHub()
	var order []string
	hub.Subscribe(HandlerFuncs{Down: func(string) { order = append(order, "a") }})
	hub.Subscribe(nil)()
	hub.Subscribe(HandlerFuncs{Down: func(string) { order = append(order, "b") }})

	hub.KeyDown("KeyA")
	hub.Pump()
	assert.Equal(t, []string{"a", "b"}, order)
}
