package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got mgl64.Vec3, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, append([]any{"axis %d: want %v got %v", i, want, got}, msgAndArgs...)...)
	}
}

func TestComputePoseDriverExample(t *testing.T) {
	pose, ok := ComputePose(Driver, mgl64.Vec3{}, mgl64.QuatIdent())
	require.True(t, ok)
	vecNear(t, mgl64.Vec3{0, 0.45, 0.5}, pose.Target)
	vecNear(t, mgl64.Vec3{}, pose.Position)
}

func TestComputePoseModes(t *testing.T) {
	chassis := mgl64.Vec3{-10, 1, -3}
	yaw := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})

	cases := []struct {
		name       string
		mode       ViewMode
		rotation   mgl64.Quat
		wantPos    mgl64.Vec3
		wantTarget mgl64.Vec3
	}{
		{"third_person_identity", ThirdPerson, mgl64.QuatIdent(), mgl64.Vec3{-10, 3, -8}, chassis},
		{"front_identity", Front, mgl64.QuatIdent(), mgl64.Vec3{-10, 3, 2}, chassis},
		{"third_person_yawed", ThirdPerson, yaw, mgl64.Vec3{-15, 3, -3}, chassis},
		{"front_yawed", Front, yaw, mgl64.Vec3{-5, 3, -3}, chassis},
		{"driver_yawed", Driver, yaw, chassis, mgl64.Vec3{-9.5, 1.45, -3}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pose, ok := ComputePose(c.mode, chassis, c.rotation)
			require.True(t, ok)
			vecNear(t, c.wantPos, pose.Position)
			vecNear(t, c.wantTarget, pose.Target)
		})
	}
}

func TestComputePoseNoneAndPurity(t *testing.T) {
	_, ok := ComputePose(None, mgl64.Vec3{1, 2, 3}, mgl64.QuatIdent())
	assert.False(t, ok)

	rot := mgl64.AnglesToQuat(0.1, 0.7, -0.2, mgl64.XYZ)
	a, _ := ComputePose(ThirdPerson, mgl64.Vec3{4, 5, 6}, rot)
	b, _ := ComputePose(ThirdPerson, mgl64.Vec3{4, 5, 6}, rot)
	assert.Equal(t, a, b)
}

func TestNoneLeavesCameraUnchanged(t *testing.T) {
	cam := New(mgl64.Vec3{-6, 3.9, 6.21}, mgl64.Vec3{-2.64, -0.71, 0.03}, 40)
	before := *cam
	for i := 0; i < 3; i++ {
		if pose, ok := ComputePose(None, mgl64.Vec3{float64(i), 0, 0}, mgl64.QuatIdent()); ok {
			cam.Apply(pose)
		}
	}
	assert.Equal(t, before, *cam)
}

func TestDecomposeWorld(t *testing.T) {
	rot := mgl64.QuatRotate(0.8, mgl64.Vec3{0, 1, 0}).Mul(mgl64.QuatRotate(0.2, mgl64.Vec3{1, 0, 0}))
	world := mgl64.Translate3D(1, 2, 3).Mul4(rot.Mat4()).Mul4(mgl64.Scale3D(2, 2, 2))

	pos, got := DecomposeWorld(world)
	vecNear(t, mgl64.Vec3{1, 2, 3}, pos)
	v := mgl64.Vec3{0.3, -1, 2}
	vecNear(t, rot.Rotate(v), got.Rotate(v))

	pose, ok := ComputePoseFromMatrix(ThirdPerson, world)
	require.True(t, ok)
	want, _ := ComputePose(ThirdPerson, pos, rot)
	vecNear(t, want.Position, pose.Position)

	_, ok = ComputePoseFromMatrix(None, world)
	assert.False(t, ok)
}

func TestCameraLookAtAndProject(t *testing.T) {
	cam := New(mgl64.Vec3{0, 2, -5}, mgl64.Vec3{}, 0)
	assert.Equal(t, DefaultFOV, cam.FOV)

	vecNear(t, mgl64.Vec3{0, -2, 5}.Normalize(), cam.Forward())

	x, y, ok := cam.Project(mgl64.Vec3{}, 800, 600)
	require.True(t, ok)
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 300, y, 1e-6)

	_, _, ok = cam.Project(mgl64.Vec3{0, 2, -10}, 800, 600)
	assert.False(t, ok, "point behind the camera")

	// +X is to the camera's left when looking down +Z.
	x, _, ok = cam.Project(mgl64.Vec3{1, 0, 0}, 800, 600)
	require.True(t, ok)
	assert.Less(t, x, 400.0)
}

func TestCameraLookStraightDown(t *testing.T) {
	cam := New(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{}, 40)
	vecNear(t, mgl64.Vec3{0, -1, 0}, cam.Forward())
	_, _, ok := cam.Project(mgl64.Vec3{}, 100, 100)
	assert.True(t, ok)
}

func TestViewModeParse(t *testing.T) {
	cases := map[string]ViewMode{
		"0":            None,
		"3":            Driver,
		"third_person": ThirdPerson,
		"ThirdPerson":  ThirdPerson,
		"third-person": ThirdPerson,
		"FRONT":        Front,
		" driver ":     Driver,
	}
	for in, want := range cases {
		got, err := ParseViewMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"4", "-1", "orbit", ""} {
		_, err := ParseViewMode(bad)
		assert.ErrorIs(t, err, ErrInvalidViewMode, bad)
	}
}

func TestViewModeCycle(t *testing.T) {
	m := None
	var seen []ViewMode
	for i := 0; i < 5; i++ {
		m = m.Next()
		seen = append(seen, m)
	}
	assert.Equal(t, []ViewMode{ThirdPerson, Front, Driver, None, ThirdPerson}, seen)
	assert.Equal(t, "third_person", ThirdPerson.String())
	assert.Equal(t, None, ViewMode(9).Next())
}
