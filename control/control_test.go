package control

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, append([]any{"axis %d: want %v got %v", i, want, got}, msgAndArgs...)...)
	}
}

func quatNear(t *testing.T, want, got mgl64.Quat, delta float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.W, got.W, delta, msgAndArgs...)
	vecNear(t, want.V, got.V, delta, msgAndArgs...)
}

// fakeSurface records every call made against it.
type fakeSurface struct {
	engine   map[int]float64
	brake    map[int]float64
	steering map[int]float64

	position        *mgl64.Vec3
	velocity        *mgl64.Vec3
	angularVelocity *mgl64.Vec3
	rotation        *mgl64.Quat
	impulses        [][2]mgl64.Vec3
	calls           int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		engine:   map[int]float64{},
		brake:    map[int]float64{},
		steering: map[int]float64{},
	}
}

func (f *fakeSurface) ApplyEngineForce(v float64, wheel int) { f.calls++; f.engine[wheel] = v }
func (f *fakeSurface) SetBrake(v float64, wheel int)         { f.calls++; f.brake[wheel] = v }
func (f *fakeSurface) SetSteeringValue(v float64, wheel int) { f.calls++; f.steering[wheel] = v }
func (f *fakeSurface) SetPosition(p mgl64.Vec3)              { f.calls++; f.position = &p }
func (f *fakeSurface) SetVelocity(v mgl64.Vec3)              { f.calls++; f.velocity = &v }
func (f *fakeSurface) SetAngularVelocity(v mgl64.Vec3)       { f.calls++; f.angularVelocity = &v }
func (f *fakeSurface) SetRotation(q mgl64.Quat)              { f.calls++; f.rotation = &q }
func (f *fakeSurface) ApplyLocalImpulse(impulse, point mgl64.Vec3) {
	f.calls++
	f.impulses = append(f.impulses, [2]mgl64.Vec3{impulse, point})
}

func keys(codes ...string) KeyState {
	out := KeyState{}
	for _, c := range codes {
		out[c] = true
	}
	return out
}

func reconcile(k KeyState) *fakeSurface {
	f := newFakeSurface()
	Reconcile(k, f, f, DefaultBindings(), DefaultTuning())
	return f
}

func TestReconcileForwardBoost(t *testing.T) {
	f := reconcile(keys("KeyW", "ShiftLeft"))

	assert.Equal(t, map[int]float64{2: -800, 3: -800}, f.engine)
	assert.Equal(t, map[int]float64{0: 0, 1: 0, 2: 0, 3: 0}, f.brake)
	assert.Equal(t, map[int]float64{0: 0, 1: 0, 2: 0, 3: 0}, f.steering)
	assert.Nil(t, f.position)
	assert.Empty(t, f.impulses)
}

func TestReconcileLongitudinal(t *testing.T) {
	cases := []struct {
		name string
		keys KeyState
		want float64
	}{
		{"idle", keys(), 0},
		{"forward", keys("KeyW"), -250},
		{"reverse", keys("KeyS"), 250},
		{"reverse_boost", keys("KeyS", "ShiftLeft"), 800},
		{"forward_beats_reverse", keys("KeyW", "KeyS"), -250},
		{"boost_alone", keys("ShiftLeft"), 0},
		{"released", KeyState{"KeyW": false}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := reconcile(c.keys)
			assert.Equal(t, map[int]float64{2: c.want, 3: c.want}, f.engine)
		})
	}
}

func TestBoostIncreasesMagnitudeKeepsSign(t *testing.T) {
	for _, dir := range []string{"KeyW", "KeyS"} {
		plain := reconcile(keys(dir)).engine[2]
		boosted := reconcile(keys(dir, "ShiftLeft")).engine[2]
		assert.Greater(t, math.Abs(boosted), math.Abs(plain), dir)
		assert.Equal(t, math.Signbit(plain), math.Signbit(boosted), dir)
	}
}

func TestReconcileBrakeAndSteering(t *testing.T) {
	f := reconcile(keys("Space", "KeyA"))
	assert.Equal(t, map[int]float64{0: 5, 1: 5, 2: 5, 3: 5}, f.brake)
	assert.Equal(t, map[int]float64{0: 0.5, 1: 0.5, 2: -0.1, 3: -0.1}, f.steering)

	f = reconcile(keys("KeyD"))
	assert.Equal(t, map[int]float64{0: -0.5, 1: -0.5, 2: 0.1, 3: 0.1}, f.steering)

	f = reconcile(keys("KeyA", "KeyD"))
	assert.Equal(t, 0.5, f.steering[0], "left beats right")
}

func TestReconcileReset(t *testing.T) {
	f := reconcile(keys("KeyR"))
	require.NotNil(t, f.position)
	require.NotNil(t, f.velocity)
	require.NotNil(t, f.angularVelocity)
	require.NotNil(t, f.rotation)

	assert.Equal(t, mgl64.Vec3{-10, 1, -3}, *f.position)
	assert.Equal(t, mgl64.Vec3{}, *f.velocity)
	assert.Equal(t, mgl64.Vec3{}, *f.angularVelocity)

	want := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	quatNear(t, *f.rotation, want, 1e-9, "rotation %v", *f.rotation)
}

func TestReconcileImpulsesStack(t *testing.T) {
	f := reconcile(keys("ArrowUp", "ArrowLeft", "ArrowRight", "ArrowDown", "KeyW"))

	require.Len(t, f.impulses, 4)
	assert.Equal(t, [2]mgl64.Vec3{{-0.6, -6, 0}, {-0.6, 0, 0}}, f.impulses[0])
	assert.Equal(t, [2]mgl64.Vec3{{0, -6, -1.4}, {0, 0, -1.4}}, f.impulses[1])
	assert.Equal(t, [2]mgl64.Vec3{{0.6, -6, 0}, {0.6, 0, 0}}, f.impulses[2])
	assert.Equal(t, [2]mgl64.Vec3{{0, -6, 1.4}, {0, 0, 1.4}}, f.impulses[3])
	assert.Equal(t, -250.0, f.engine[2], "impulses leave driving controls alone")
}

func TestReconcileWithoutHandlesIsNoop(t *testing.T) {
	f := newFakeSurface()
	assert.Nil(t, Reconcile(keys("KeyW"), nil, f, DefaultBindings(), DefaultTuning()))
	assert.Nil(t, Reconcile(keys("KeyW"), f, nil, DefaultBindings(), DefaultTuning()))
	assert.Zero(t, f.calls)
}

func TestPlanIsDeterministic(t *testing.T) {
	k := keys("KeyW", "KeyA", "ArrowUp")
	a := Plan(k, DefaultBindings(), DefaultTuning())
	b := Plan(k, DefaultBindings(), DefaultTuning())
	assert.Equal(t, a, b)
	assert.Equal(t, map[int]float64{2: -250, 3: -250}, EngineForces(a))
	assert.Len(t, Brakes(a), 4)
	assert.Len(t, SteeringValues(a), 4)
}

func TestBindingsOverrides(t *testing.T) {
	b, err := DefaultBindings().WithOverrides(map[string]string{"forward": "ArrowUp", "Impulse-Up": "KeyI"})
	require.NoError(t, err)
	assert.Equal(t, "ArrowUp", b[Forward])
	assert.Equal(t, "KeyI", b[ImpulseUp])
	assert.Equal(t, "KeyW", DefaultBindings()[Forward], "defaults are not mutated")

	f := newFakeSurface()
	Reconcile(keys("ArrowUp"), f, f, b, DefaultTuning())
	assert.Equal(t, -250.0, f.engine[2])
	assert.Empty(t, f.impulses)

	_, err = DefaultBindings().WithOverrides(map[string]string{"jump": "Space"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestMapperReleaseReturnsToNeutral(t *testing.T) {
	m := NewMapper()
	f := newFakeSurface()
	b, tun := DefaultBindings(), DefaultTuning()

	m.OnKeyDown("KeyW")
	m.OnKeyDown("Space")
	m.OnKeyDown("KeyD")
	_, ran := m.Update(f, f, b, tun)
	require.True(t, ran)
	assert.Equal(t, -250.0, f.engine[3])
	assert.Equal(t, 5.0, f.brake[0])
	assert.Equal(t, -0.5, f.steering[1])

	m.OnKeyUp("KeyW")
	m.OnKeyUp("Space")
	m.OnKeyUp("KeyD")
	_, ran = m.Update(f, f, b, tun)
	require.True(t, ran)
	for wheel := 0; wheel < 4; wheel++ {
		assert.Zero(t, f.brake[wheel])
		assert.Zero(t, f.steering[wheel])
	}
	assert.Zero(t, f.engine[2])
	assert.Zero(t, f.engine[3])
}

func TestMapperDirtyTracking(t *testing.T) {
	m := NewMapper()
	f := newFakeSurface()
	b, tun := DefaultBindings(), DefaultTuning()

	assert.False(t, m.Dirty(false))
	_, ran := m.Update(nil, nil, b, tun)
	assert.False(t, ran, "no handles, no reconciliation")

	_, ran = m.Update(f, f, b, tun)
	assert.True(t, ran, "handles becoming available triggers a reconciliation")

	_, ran = m.Update(f, f, b, tun)
	assert.False(t, ran, "nothing changed")

	m.OnKeyDown("KeyR")
	_, ran = m.Update(f, f, b, tun)
	assert.True(t, ran)
	f.position = nil
	_, ran = m.Update(f, f, b, tun)
	assert.False(t, ran)
	assert.Nil(t, f.position, "holding reset does not re-issue it every frame")

	_, _ = m.Update(nil, f, b, tun)
	_, ran = m.Update(f, f, b, tun)
	assert.True(t, ran, "handles returning triggers a reconciliation")
}

func TestMapperRepeatsHeldImpulseAndReset(t *testing.T) {
	m := NewMapper()
	m.Repeat = Repeat{Delay: 3, Interval: 2}
	f := newFakeSurface()
	b, tun := DefaultBindings(), DefaultTuning()

	m.OnKeyDown("ArrowUp")
	_, ran := m.Update(f, f, b, tun)
	require.True(t, ran)
	require.Len(t, f.impulses, 1)

	var repeats []int
	for frame := 1; frame <= 10; frame++ {
		if _, ran := m.Update(f, f, b, tun); ran {
			repeats = append(repeats, frame)
		}
	}
	assert.Equal(t, []int{3, 5, 7, 9}, repeats)
	assert.Len(t, f.impulses, 5)

	m.OnKeyUp("ArrowUp")
	_, ran = m.Update(f, f, b, tun)
	require.True(t, ran, "release reconciles at once")
	for frame := 0; frame < 10; frame++ {
		_, ran = m.Update(f, f, b, tun)
		assert.False(t, ran, "nothing held, nothing repeats")
	}
	assert.Len(t, f.impulses, 5)

	m.OnKeyDown("KeyR")
	_, _ = m.Update(f, f, b, tun)
	f.position = nil
	for frame := 1; frame <= 3; frame++ {
		_, _ = m.Update(f, f, b, tun)
	}
	assert.NotNil(t, f.position, "held reset is re-applied")
}

func TestMapperDrivingKeysDoNotRepeat(t *testing.T) {
	m := NewMapper()
	f := newFakeSurface()
	b, tun := DefaultBindings(), DefaultTuning()

	m.OnKeyDown("KeyW")
	m.OnKeyDown("KeyA")
	_, ran := m.Update(f, f, b, tun)
	require.True(t, ran)
	for frame := 0; frame < DefaultRepeat.Delay+10; frame++ {
		_, ran = m.Update(f, f, b, tun)
		require.False(t, ran, "frame %d", frame)
	}

	m.Repeat = Repeat{}
	m.OnKeyDown("ArrowLeft")
	_, _ = m.Update(f, f, b, tun)
	for frame := 0; frame < 100; frame++ {
		_, ran = m.Update(f, f, b, tun)
		require.False(t, ran, "repeat disabled")
	}
}

func TestMapperAttachDetach(t *testing.T) {
	hub := input.NewHub()
	m := NewMapper()

	m.Attach(hub)
	require.True(t, m.Attached())
	require.Equal(t, 1, hub.Subscribers())

	hub.KeyDown("KeyW")
	hub.Pump()
	assert.True(t, m.Held("KeyW"))

	m.Detach()
	m.Detach()
	assert.False(t, m.Attached())
	assert.Equal(t, 0, hub.Subscribers())
	assert.False(t, m.Held("KeyW"), "detach drops held keys")
	assert.True(t, m.Dirty(true))

	hub.KeyDown("KeyS")
	hub.Pump()
	assert.False(t, m.Held("KeyS"))
}

func TestMapperAttachAll(t *testing.T) {
	a, b := input.NewHub(), input.NewHub()
	m := NewMapper()
	m.AttachAll(a, nil, b)

	a.KeyDown("KeyW")
	b.KeyDown("ShiftLeft")
	a.Pump()
	b.Pump()
	assert.Equal(t, KeyState{"KeyW": true, "ShiftLeft": true}, m.Keys())

	m.Detach()
	assert.Equal(t, 0, a.Subscribers())
	assert.Equal(t, 0, b.Subscribers())
}
