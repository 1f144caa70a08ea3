package system

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/assets"
	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/control"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/ecs/entity"
	"github.com/milk9111/carsim/input"
	"github.com/milk9111/carsim/physics"
	"github.com/milk9111/carsim/prefabs"
	"github.com/milk9111/carsim/telemetry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, append([]any{"axis %d: want %v got %v", i, want, got}, msgAndArgs...)...)
	}
}

type scene struct {
	w       *ecs.World
	physics *physics.World
	vehicle entity.Vehicle
	camera  ecs.Entity
	hub     *input.Hub
	input   *InputSystem
	control *ControlSystem
}

func newScene(t *testing.T, mode camera.ViewMode) *scene {
	t.Helper()

	spec, err := prefabs.LoadVehicleSpec("vehicle.yaml")
	require.NoError(t, err)
	parts, err := assets.LoadVehicleParts(spec.Model)
	require.NoError(t, err)
	camSpec, err := prefabs.LoadCameraSpec("camera.yaml")
	require.NoError(t, err)

	s := &scene{
		w:       ecs.NewWorld(),
		physics: physics.NewWorld(physics.WorldParams{ArenaHalfExtent: 40}),
		hub:     input.NewHub(),
		control: NewControlSystem(zerolog.Nop()),
	}
	s.vehicle, err = entity.NewVehicle(context.Background(), s.w, s.physics, spec, parts, control.DefaultBindings())
	require.NoError(t, err)
	s.camera, err = entity.NewCamera(s.w, camSpec, mode)
	require.NoError(t, err)
	s.input = NewInputSystem(nil, s.hub)
	return s
}

func (s *scene) frame() {
	s.input.Update(s.w)
	s.control.Update(s.w)
}

func (s *scene) controls(t *testing.T) *component.Controls {
	t.Helper()
	c, ok := ecs.Get(s.w, s.vehicle.Chassis, component.ControlsComponent)
	require.True(t, ok)
	return c
}

func TestControlSystemReconcilesOnKeyChange(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)

	s.frame()
	c := s.controls(t)
	require.True(t, c.Mapper.Attached())
	assert.Equal(t, 1, c.Runs, "first frame with handles reconciles")
	assert.Equal(t, map[int]float64{2: 0, 3: 0}, control.EngineForces(c.Last))

	s.frame()
	assert.Equal(t, 1, c.Runs, "no key change, no reconciliation")

	s.hub.KeyDown("KeyW")
	s.hub.KeyDown("ShiftLeft")
	s.frame()
	assert.Equal(t, 2, c.Runs)
	assert.Equal(t, map[int]float64{2: -800, 3: -800}, control.EngineForces(c.Last))

	rv, _ := ecs.Get(s.w, s.vehicle.Chassis, component.VehicleComponent)
	ws, ok := rv.Vehicle.Wheel(2)
	require.True(t, ok)
	assert.Equal(t, -800.0, ws.EngineForce)

	s.hub.KeyUp("KeyW")
	s.hub.KeyUp("ShiftLeft")
	s.frame()
	assert.Equal(t, map[int]float64{2: 0, 3: 0}, control.EngineForces(c.Last))
}

func TestControlSystemPushesResetEvent(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	s.frame()
	s.w.Events().Drain()

	s.hub.KeyDown("r")
	s.frame()

	events := s.w.Events().Peek(ecs.EventVehicleReset)
	require.Len(t, events, 1)
	assert.Equal(t, s.vehicle.Chassis, events[0].Data)

	rv, _ := ecs.Get(s.w, s.vehicle.Chassis, component.VehicleComponent)
	vecNear(t, rv.Chassis.Position(), mgl64.Vec3{-10, 1, -3}, 1e-9)
}

func TestInputSystemDetach(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	s.hub.KeyDown("KeyA")
	s.frame()
	c := s.controls(t)
	assert.True(t, c.Mapper.Held("KeyA"))

	s.input.Detach(s.w)
	assert.False(t, c.Mapper.Attached())
	assert.False(t, c.Mapper.Held("KeyA"))
}

func TestPhysicsSystemSyncsTransforms(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	ps := NewPhysicsSystem(s.physics)

	for i := 0; i < 30; i++ {
		ps.Update(s.w)
	}
	assert.Equal(t, uint64(30), ps.Steps())

	rv, _ := ecs.Get(s.w, s.vehicle.Chassis, component.VehicleComponent)
	tr, ok := ecs.Get(s.w, s.vehicle.Chassis, component.TransformComponent)
	require.True(t, ok)
	assert.Equal(t, rv.Chassis.Position(), tr.Position)
	assert.Less(t, tr.Position.Y(), 3.0, "chassis falls from its spawn height")

	for i, e := range s.vehicle.Wheels {
		wt, ok := ecs.Get(s.w, e, component.TransformComponent)
		require.True(t, ok)
		assert.Equal(t, rv.Vehicle.WheelBody(i).Position(), wt.Position)
	}
}

func TestCameraSystemFollowsChassis(t *testing.T) {
	for _, mode := range []camera.ViewMode{camera.ThirdPerson, camera.Front, camera.Driver} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newScene(t, mode)
			NewPhysicsSystem(s.physics).Update(s.w)
			NewCameraSystem().Update(s.w)

			tr, _ := ecs.Get(s.w, s.vehicle.Chassis, component.TransformComponent)
			want, ok := camera.ComputePose(mode, tr.Position, tr.Rotation)
			require.True(t, ok)

			cam, _ := ecs.Get(s.w, s.camera, component.CameraComponent)
			vecNear(t, want.Position, cam.Camera.Position, 1e-6, "position %v want %v", cam.Camera.Position, want.Position)
			vecNear(t, want.Target, cam.Camera.Target, 1e-6, "target %v want %v", cam.Camera.Target, want.Target)
		})
	}
}

func TestCameraSystemNoneLeavesCamera(t *testing.T) {
	s := newScene(t, camera.None)
	cam, _ := ecs.Get(s.w, s.camera, component.CameraComponent)
	before := *cam.Camera

	NewPhysicsSystem(s.physics).Update(s.w)
	NewCameraSystem().Update(s.w)

	assert.Equal(t, before, *cam.Camera)
}

func TestCameraSystemViewModeEvent(t *testing.T) {
	s := newScene(t, camera.None)
	cs := NewCameraSystem()

	s.w.Events().Push(ecs.Event{Type: ecs.EventViewModeChanged, Data: camera.Front})
	cs.Update(s.w)

	cam, _ := ecs.Get(s.w, s.camera, component.CameraComponent)
	assert.Equal(t, camera.Front, cam.Mode)

	tr, _ := ecs.Get(s.w, s.vehicle.Chassis, component.TransformComponent)
	want, _ := camera.ComputePose(camera.Front, tr.Position, tr.Rotation)
	vecNear(t, want.Position, cam.Camera.Position, 1e-6)
}

type fakeSink struct {
	got []telemetry.Snapshot
	err error
}

func (f *fakeSink) Publish(s telemetry.Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, s)
	return nil
}

func TestTelemetrySystem(t *testing.T) {
	s := newScene(t, camera.Driver)
	good := &fakeSink{}
	bad := &fakeSink{err: errors.New("boom")}
	ts := NewTelemetrySystem(zerolog.Nop(), 2, good, bad)
	assert.Equal(t, 2, ts.Sinks())

	s.hub.KeyDown("KeyW")
	s.frame()
	ts.Update(s.w)
	assert.Empty(t, good.got)
	last, ok := ts.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"KeyW"}, last.Keys)

	ts.Update(s.w)
	require.Len(t, good.got, 1)
	assert.Equal(t, 1, ts.Sinks(), "failing sink is dropped")

	snap := good.got[0]
	assert.Equal(t, uint64(2), snap.Frame)
	assert.Equal(t, "car", snap.Vehicle)
	assert.Equal(t, "driver", snap.View)
	assert.Contains(t, snap.Commands, "engine_force[2]=-250")
	assert.InDelta(t, -10, snap.Position[0], 1e-9)
}

func TestSnapshotWithoutVehicle(t *testing.T) {
	_, ok := Snapshot(ecs.NewWorld())
	assert.False(t, ok)
}

func TestProjectSegment(t *testing.T) {
	cam := camera.New(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, 60)
	viewProj := cam.Projection(1).Mul4(cam.ViewMatrix())

	x0, y0, x1, y1, ok := projectSegment(viewProj, cam.Near, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}, 200, 200)
	require.True(t, ok)
	assert.InDelta(t, 100, x0, 1e-3)
	assert.InDelta(t, 100, y0, 1e-3)
	assert.InDelta(t, 100, x1, 1e-3)
	assert.Less(t, y1, y0, "up is toward the top of the screen")

	_, _, _, _, ok = projectSegment(viewProj, cam.Near, mgl64.Vec3{0, 0, 20}, mgl64.Vec3{1, 0, 20}, 200, 200)
	assert.False(t, ok, "segment behind the camera")

	_, _, x1, y1, ok = projectSegment(viewProj, cam.Near, mgl64.Vec3{}, mgl64.Vec3{0, 0, 30}, 200, 200)
	require.True(t, ok, "segment crossing the near plane is clipped")
	assert.False(t, isNaN32(x1) || isNaN32(y1))
}

func TestHUDCopyPose(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	NewPhysicsSystem(s.physics).Update(s.w)
	NewCameraSystem().Update(s.w)

	hud := NewHUD(zerolog.Nop())
	var copied string
	hud.write = func(v string) error {
		copied = v
		return nil
	}

	got, err := hud.CopyPose(s.w)
	require.NoError(t, err)
	assert.Equal(t, got, copied)
	assert.Contains(t, got, "position: [")
	assert.Contains(t, got, "camera:\n  position:")

	hud.write = func(string) error { return errors.New("no display") }
	_, err = hud.CopyPose(s.w)
	assert.Error(t, err)

	_, err = hud.CopyPose(ecs.NewWorld())
	assert.Error(t, err)
}

func TestHUDLines(t *testing.T) {
	s := newScene(t, camera.Front)
	s.frame()
	lines := NewHUD(zerolog.Nop()).Lines(s.w)
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[2], "view front")
	assert.Contains(t, lines[3], "last ")

	assert.Equal(t, []string{"no vehicle"}, NewHUD(zerolog.Nop()).Lines(ecs.NewWorld()))
}

func isNaN32(f float32) bool {
	return math.IsNaN(float64(f))
}

func TestHUDNoticesFromEvents(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	hud := NewHUD(zerolog.Nop())
	assert.Empty(t, hud.Notice())

	s.frame()
	s.hub.KeyDown("KeyR")
	s.frame()
	hud.Update(s.w)
	assert.Equal(t, "vehicle reset", hud.Notice())

	parts, err := assets.LoadVehicleParts("car")
	require.NoError(t, err)
	s.w.Events().Push(ecs.Event{Type: ecs.EventPartsReloaded, Data: parts})
	hud.Update(s.w)
	assert.Equal(t, "model car reloaded", hud.Notice())

	s.w.Events().Drain()
	s.w.Events().Push(ecs.Event{Type: ecs.EventViewModeChanged, Data: camera.Driver})
	hud.Update(s.w)
	assert.Equal(t, "view driver", hud.Notice())

	s.w.Events().Drain()
	for i := 0; i < noticeFrames; i++ {
		hud.Update(s.w)
	}
	assert.Empty(t, hud.Notice())
}

func TestMenuSchedulerAppliesViewAndNotice(t *testing.T) {
	s := newScene(t, camera.ThirdPerson)
	hud := NewHUD(zerolog.Nop())
	menu := ecs.NewScheduler(NewCameraSystem(), hud)

	s.w.Events().Push(ecs.Event{Type: ecs.EventViewModeChanged, Data: camera.Front})
	menu.Update(s.w)

	cam, ok := ecs.Get(s.w, s.camera, component.CameraComponent)
	require.True(t, ok)
	assert.Equal(t, camera.Front, cam.Mode)
	assert.Equal(t, "view front", hud.Notice())
	assert.Empty(t, s.w.Events().Peek(ecs.EventViewModeChanged), "events are dropped after the frame")
}
