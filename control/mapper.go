package control

import (
	"github.com/milk9111/carsim/input"
)

// Repeat is the auto-repeat of held reset and impulse keys, in Update calls.
// A zero Interval disables it.
type Repeat struct {
	Delay    int
	Interval int
}

// DefaultRepeat matches a typical keyboard repeat at 60 updates per second:
// half a second before the first repeat, then about 30 per second.
var DefaultRepeat = Repeat{Delay: 30, Interval: 2}

var repeatActions = []Action{Reset, ImpulseRight, ImpulseDown, ImpulseLeft, ImpulseUp}

// Mapper owns the held-key state of one controlled vehicle. Key handlers and
// Update must run on the same goroutine.
type Mapper struct {
	Repeat Repeat

	keys        KeyState
	version     uint64
	applied     uint64
	hadHandles  bool
	sinceChange int
	unsubscribe func()
}

func NewMapper() *Mapper {
	return &Mapper{keys: make(KeyState), Repeat: DefaultRepeat}
}

func (m *Mapper) OnKeyDown(code string) {
	m.set(code, true)
}

func (m *Mapper) OnKeyUp(code string) {
	m.set(code, false)
}

func (m *Mapper) set(code string, held bool) {
	if code == "" {
		return
	}
	if m.keys == nil {
		m.keys = make(KeyState)
	}
	m.keys[code] = held
	m.version++
}

// Keys returns a copy of the current key state.
func (m *Mapper) Keys() KeyState {
	out := make(KeyState, len(m.keys))
	for code, held := range m.keys {
		out[code] = held
	}
	return out
}

func (m *Mapper) Held(code string) bool {
	return m.keys.Held(code)
}

// Attach subscribes the mapper to src, replacing any earlier subscription.
func (m *Mapper) Attach(src input.Source) {
	if src == nil {
		return
	}
	m.Detach()
	m.unsubscribe = src.Subscribe(m)
}

// AttachAll subscribes to several sources; Detach releases all of them.
func (m *Mapper) AttachAll(sources ...input.Source) {
	m.Detach()
	var subs []func()
	for _, src := range sources {
		if src != nil {
			subs = append(subs, src.Subscribe(m))
		}
	}
	m.unsubscribe = func() {
		for _, unsub := range subs {
			unsub()
		}
	}
}

// Detach releases the subscriptions and drops every held key, so the next
// reconciliation returns all controls to neutral.
func (m *Mapper) Detach() {
	if m.unsubscribe == nil {
		return
	}
	m.unsubscribe()
	m.unsubscribe = nil
	if len(m.keys) > 0 {
		m.keys = make(KeyState)
		m.version++
	}
}

func (m *Mapper) Attached() bool {
	return m.unsubscribe != nil
}

// Dirty reports whether a reconciliation is due: the key state changed since
// the last one, or the control handles just became available.
func (m *Mapper) Dirty(handlesAvailable bool) bool {
	if !handlesAvailable {
		return false
	}
	return !m.hadHandles || m.version != m.applied
}

// Update reconciles when Dirty, or on the repeat cadence while a reset or
// impulse key stays held. It returns the issued commands, or nil and false
// when nothing was due.
func (m *Mapper) Update(vehicle VehicleControl, chassis ChassisControl, b Bindings, t Tuning) ([]Command, bool) {
	if vehicle == nil || chassis == nil {
		m.hadHandles = false
		return nil, false
	}
	if m.Dirty(true) {
		m.sinceChange = 0
	} else {
		m.sinceChange++
		if !m.repeatDue(b) {
			return nil, false
		}
	}
	cmds := Reconcile(m.keys, vehicle, chassis, b, t)
	m.applied = m.version
	m.hadHandles = true
	return cmds, true
}

func (m *Mapper) repeatDue(b Bindings) bool {
	r := m.Repeat
	if r.Interval <= 0 || m.sinceChange < r.Delay || (m.sinceChange-r.Delay)%r.Interval != 0 {
		return false
	}
	for _, a := range repeatActions {
		if b.Held(m.keys, a) {
			return true
		}
	}
	return false
}
