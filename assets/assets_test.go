package assets

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev := Dir
	Dir = dir
	t.Cleanup(func() {
		Dir = prev
		cacheMu.Lock()
		cache = map[string]*Model{}
		cacheMu.Unlock()
	})
	return dir
}

func TestLoadVehicleParts(t *testing.T) {
	useTempDir(t)

	parts, err := LoadVehicleParts("car")
	require.NoError(t, err)

	assert.Equal(t, "car", parts.Asset)
	assert.Equal(t, PartBody, parts.Body.Name)
	wantWheels := []string{PartWheelFR, PartWheelFL, PartWheelBL, PartWheelBR}
	for i, name := range wantWheels {
		assert.Equal(t, name, parts.Wheels[i].Name)
		require.Len(t, parts.Wheels[i].Meshes, 1)
		assert.Equal(t, MeshCylinder, parts.Wheels[i].Meshes[0].Kind)
	}
	assert.Len(t, parts.All(), 5)
}

func TestLoadVehiclePartsDeepCopies(t *testing.T) {
	useTempDir(t)

	a, err := LoadVehicleParts("car.yaml")
	require.NoError(t, err)
	b, err := LoadVehicleParts("models/car.yaml")
	require.NoError(t, err)

	a.Body.Meshes[0].Size[0] = 99
	a.Body.Meshes[0].Color.R = 1
	a.Wheels[0].Meshes[0].Radius = 5

	assert.NotEqual(t, 99.0, b.Body.Meshes[0].Size[0])
	assert.NotEqual(t, uint8(1), b.Body.Meshes[0].Color.R)
	assert.Equal(t, 0.2, b.Wheels[0].Meshes[0].Radius)
	assert.NotSame(t, a.Wheels[0], b.Wheels[0])

	// The wheel parts share a YAML anchor but must not alias each other.
	assert.Equal(t, 0.2, a.Wheels[1].Meshes[0].Radius)

	tmpl, err := LoadModel("car")
	require.NoError(t, err)
	assert.NotEqual(t, 99.0, tmpl.Parts[PartBody].Meshes[0].Size[0])
}

func TestMissingPart(t *testing.T) {
	dir := useTempDir(t)
	src := []byte(`
name: broken
parts:
  body:
    meshes:
      - kind: box
        size: [1, 1, 1]
  wheelFR:
    meshes: []
  wheelFL:
    meshes: []
  wheelBR:
    meshes: []
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), src, 0o644))

	_, err := LoadVehicleParts("broken")
	require.ErrorIs(t, err, ErrMissingPart)

	var missing *MissingPartError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "broken", missing.Asset)
	assert.Equal(t, PartWheelBL, missing.Part)
}

func TestDiskOverrideAndInvalidate(t *testing.T) {
	dir := useTempDir(t)

	m, err := LoadModel("car")
	require.NoError(t, err)
	assert.Len(t, m.Parts, 5)

	src := []byte("name: car\nparts:\n  body:\n    meshes:\n      - kind: box\n        size: [1, 2, 3]\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "car.yaml"), src, 0o644))

	cached, err := LoadModel("car")
	require.NoError(t, err)
	assert.Same(t, m, cached)

	Invalidate("car.yaml")
	reloaded, err := LoadModel("car")
	require.NoError(t, err)
	assert.Len(t, reloaded.Parts, 1)
	assert.Equal(t, [3]float64{1, 2, 3}, reloaded.Parts[PartBody].Meshes[0].Size)
}

func TestParseModelErrors(t *testing.T) {
	cases := map[string]string{
		"bad_yaml":     "parts: [",
		"unknown_kind": "parts:\n  body:\n    meshes:\n      - kind: sphere\n",
		"flat_box":     "parts:\n  body:\n    meshes:\n      - kind: box\n        size: [1, 0, 1]\n",
		"bad_axis":     "parts:\n  body:\n    meshes:\n      - kind: cylinder\n        radius: 1\n        width: 1\n        axis: w\n",
		"bad_color":    "parts:\n  body:\n    meshes:\n      - kind: box\n        size: [1, 1, 1]\n        color: nope\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModel(name, []byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#ff8000":   {R: 0xff, G: 0x80, B: 0x00, A: 0xff},
		"10203040":  {R: 0x10, G: 0x20, B: 0x30, A: 0x40},
		"gold":      {R: 0xff, G: 0xd7, B: 0x00, A: 0xff},
		"LightBlue": {R: 0xad, G: 0xd8, B: 0xe6, A: 0xff},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseColor("#12345")
	assert.Error(t, err)
	_, err = ParseColor("#zzzzzz")
	assert.Error(t, err)
}

func TestEdges(t *testing.T) {
	box := Mesh{Kind: MeshBox, Size: [3]float64{2, 2, 2}}
	edges := box.Edges()
	require.Len(t, edges, 12)
	for _, e := range edges {
		assert.InDelta(t, 2, e.B.Sub(e.A).Len(), 1e-9)
		assert.Equal(t, DefaultColor, e.Color)
	}

	cyl := Mesh{Kind: MeshCylinder, Radius: 1, Width: 0.5, Segments: 8, Axis: "z"}
	edges = cyl.Edges()
	require.Len(t, edges, 3*8+1)
	for _, e := range edges[:24] {
		assert.InDelta(t, 0.25, abs(e.A.Z()), 1e-9)
	}
}

func TestDescribe(t *testing.T) {
	useTempDir(t)
	m, err := LoadModel("car")
	require.NoError(t, err)

	out := m.Describe()
	assert.Contains(t, out, "model car (5 parts)")
	assert.Contains(t, out, "wheelBL: 1 meshes")
	assert.Contains(t, out, "cylinder r=0.2")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
