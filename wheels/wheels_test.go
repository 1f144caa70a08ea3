package wheels

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/prefabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...any) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, append([]any{"axis %d: want %v got %v", i, want, got}, msgAndArgs...)...)
	}
}

func TestLayout(t *testing.T) {
	infos := Layout(1.2, 0.7, 2.8, 0.2)
	require.Len(t, infos, Count)

	want := []mgl64.Vec3{
		{-0.78, -0.28, 0.98},
		{0.78, -0.28, 0.98},
		{-0.78, -0.28, -0.98},
		{0.78, -0.28, -0.98},
	}
	for i, info := range infos {
		vecNear(t, want[i], info.ConnectionPoint, 1e-9, "wheel %d at %v", i, info.ConnectionPoint)
		assert.Equal(t, i < 2, info.Front)
		assert.Equal(t, 0.2, info.Radius)
		assert.Equal(t, 60.0, info.SuspensionStiffness)
		assert.Equal(t, 0.1, info.SuspensionRestLength)
		assert.Equal(t, 5.0, info.FrictionSlip)
		assert.Equal(t, mgl64.Vec3{0, -1, 0}, info.Direction)
	}
	assert.Equal(t, "wheelBR", PartNames[BackRight])
}

func TestScriptLayoutMatchesLayout(t *testing.T) {
	src, err := prefabs.LoadScript("wheels.tengo")
	require.NoError(t, err)

	got, err := ScriptLayout(context.Background(), src, 1.2, 0.7, 2.8, 0.2)
	require.NoError(t, err)
	want := Layout(1.2, 0.7, 2.8, 0.2)
	require.Len(t, got, len(want))
	for i := range want {
		vecNear(t, want[i].ConnectionPoint, got[i].ConnectionPoint, 1e-9, "wheel %d", i)
		assert.Equal(t, want[i].Front, got[i].Front, "wheel %d", i)
		assert.Equal(t, want[i].Radius, got[i].Radius)
	}
}

func TestVehiclePrefabScript(t *testing.T) {
	spec, err := prefabs.LoadVehicleSpec("vehicle.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, spec.Wheels.Script)

	src, err := prefabs.LoadScript(spec.Wheels.Script)
	require.NoError(t, err)

	c := spec.Chassis
	got, err := ScriptLayout(context.Background(), src, c.Width, c.Height, c.Length, spec.Wheels.Radius)
	require.NoError(t, err)
	require.Len(t, got, Count)
	for i, info := range got {
		assert.Equal(t, i < 2, info.Front, "wheel %d", i)
		assert.Equal(t, spec.Wheels.Radius, info.Radius)
	}
}

func TestScriptLayoutOverrides(t *testing.T) {
	src := []byte(`
wheels := [
	{x: 1, y: -0.3, z: 2, front: true, radius: 0.4, stiffness: 80},
	{x: -1, y: -0.3, z: -2}]
`)
	got, err := ScriptLayout(context.Background(), src, 1, 1, 1, 0.2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, mgl64.Vec3{1, -0.3, 2}, got[0].ConnectionPoint)
	assert.Equal(t, 0.4, got[0].Radius)
	assert.Equal(t, 80.0, got[0].SuspensionStiffness)
	assert.True(t, got[0].Front)
	assert.Equal(t, 0.2, got[1].Radius)
	assert.False(t, got[1].Front)
}

func TestScriptLayoutErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":      `wheels := [`,
		"undefined":   `x := 1`,
		"empty":       `wheels := []`,
		"not_a_map":   `wheels := [1, 2]`,
		"missing_z":   `wheels := [{x: 1, y: 2}]`,
		"runtime":     `wheels := [{x: 1, y: 2, z: undefined_fn()}]`,
		"non_numeric": `wheels := [{x: "a", y: 0, z: 0}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ScriptLayout(context.Background(), []byte(src), 1, 1, 1, 0.2)
			assert.ErrorIs(t, err, ErrScript)
		})
	}
}

func TestScriptLayoutHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScriptLayout(ctx, []byte(`for { }`+"\n"+`wheels := []`), 1, 1, 1, 0.2)
	assert.ErrorIs(t, err, ErrScript)
}
