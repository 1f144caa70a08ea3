package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

type keyPoller func([]ebiten.Key) []ebiten.Key

// Keyboard is a Source fed by polling ebiten once per frame. Poll must be
// called from the game loop.
type Keyboard struct {
	dispatcher
	justPressed  keyPoller
	justReleased keyPoller
	buf          []ebiten.Key
}

func NewKeyboard() *Keyboard {
	return newKeyboard(inpututil.AppendJustPressedKeys, inpututil.AppendJustReleasedKeys)
}

func newKeyboard(pressed, released keyPoller) *Keyboard {
	return &Keyboard{justPressed: pressed, justReleased: released}
}

// Poll dispatches releases before presses so a key tapped and re-pressed in
// one frame ends up held.
func (k *Keyboard) Poll() {
	if k == nil {
		return
	}
	k.buf = k.justReleased(k.buf[:0])
	for _, key := range k.buf {
		k.dispatch(Code(key), false)
	}
	k.buf = k.justPressed(k.buf[:0])
	for _, key := range k.buf {
		k.dispatch(Code(key), true)
	}
}
