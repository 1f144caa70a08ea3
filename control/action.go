package control

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownAction = errors.New("control: unknown action")

// Action is a logical driving input bound to one physical key code.
type Action uint8

const (
	Forward Action = iota + 1
	Reverse
	Left
	Right
	Brake
	Boost
	Reset
	ImpulseUp
	ImpulseDown
	ImpulseLeft
	ImpulseRight
)

var actionNames = map[Action]string{
	Forward:      "forward",
	Reverse:      "reverse",
	Left:         "left",
	Right:        "right",
	Brake:        "brake",
	Boost:        "boost",
	Reset:        "reset",
	ImpulseUp:    "impulse_up",
	ImpulseDown:  "impulse_down",
	ImpulseLeft:  "impulse_left",
	ImpulseRight: "impulse_right",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// KeyState maps a physical key code to whether it is currently held.
type KeyState map[string]bool

func (k KeyState) Held(code string) bool {
	if code == "" {
		return false
	}
	return k[code]
}

// Bindings maps each action to the key code that triggers it.
type Bindings map[Action]string

func DefaultBindings() Bindings {
	return Bindings{
		Forward:      "KeyW",
		Reverse:      "KeyS",
		Left:         "KeyA",
		Right:        "KeyD",
		Brake:        "Space",
		Boost:        "ShiftLeft",
		Reset:        "KeyR",
		ImpulseUp:    "ArrowUp",
		ImpulseDown:  "ArrowDown",
		ImpulseLeft:  "ArrowLeft",
		ImpulseRight: "ArrowRight",
	}
}

// WithOverrides returns a copy of b with the named actions rebound. Keys of
// overrides are action names as accepted by ParseAction.
func (b Bindings) WithOverrides(overrides map[string]string) (Bindings, error) {
	out := make(Bindings, len(b))
	for a, code := range b {
		out[a] = code
	}
	for name, code := range overrides {
		a, err := ParseAction(name)
		if err != nil {
			return nil, err
		}
		out[a] = strings.TrimSpace(code)
	}
	return out, nil
}

// Held reports whether the key bound to a is held in keys.
func (b Bindings) Held(keys KeyState, a Action) bool {
	return keys.Held(b[a])
}

// Describe lists the bindings as "action=code" pairs sorted by action.
func (b Bindings) Describe() []string {
	actions := make([]Action, 0, len(b))
	for a := range b {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, a.String()+"="+b[a])
	}
	return out
}
