package assets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

const (
	PartBody    = "body"
	PartWheelFR = "wheelFR"
	PartWheelFL = "wheelFL"
	PartWheelBL = "wheelBL"
	PartWheelBR = "wheelBR"
)

// RequiredParts lists the named parts a vehicle model must carry, in the
// order LoadVehicleParts returns them.
var RequiredParts = []string{PartBody, PartWheelFR, PartWheelFL, PartWheelBL, PartWheelBR}

var (
	ErrMissingPart  = errors.New("assets: missing part")
	ErrInvalidModel = errors.New("assets: invalid model")
)

type MissingPartError struct {
	Asset string
	Part  string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("assets: model %q has no part %q", e.Asset, e.Part)
}

func (e *MissingPartError) Unwrap() error { return ErrMissingPart }

type MeshKind string

const (
	MeshBox      MeshKind = "box"
	MeshCylinder MeshKind = "cylinder"
)

// Mesh is a primitive in part-local space. Cylinders run along Axis.
type Mesh struct {
	Kind     MeshKind   `yaml:"kind"`
	Size     [3]float64 `yaml:"size,omitempty"`
	Radius   float64    `yaml:"radius,omitempty"`
	Width    float64    `yaml:"width,omitempty"`
	Segments int        `yaml:"segments,omitempty"`
	Axis     string     `yaml:"axis,omitempty"`
	Offset   [3]float64 `yaml:"offset,omitempty"`
	Color    *Color     `yaml:"color,omitempty"`
}

type Part struct {
	Name   string `yaml:"-"`
	Meshes []Mesh `yaml:"meshes"`
}

type Model struct {
	Name  string           `yaml:"name"`
	Parts map[string]*Part `yaml:"parts"`
}

// VehicleParts holds independent copies of the five visual parts of one
// vehicle. Wheels are ordered front-right, front-left, back-left, back-right.
type VehicleParts struct {
	Asset  string
	Body   *Part
	Wheels [4]*Part
}

func ParseModel(name string, data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("assets: parse %s: %w", name, err)
	}
	if m.Name == "" {
		m.Name = name
	}
	for partName, p := range m.Parts {
		if p == nil {
			return nil, fmt.Errorf("%w: %s: part %q is empty", ErrInvalidModel, name, partName)
		}
		p.Name = partName
		for i := range p.Meshes {
			if err := p.Meshes[i].normalize(); err != nil {
				return nil, fmt.Errorf("%w: %s: part %q mesh %d: %v", ErrInvalidModel, name, partName, i, err)
			}
		}
	}
	return &m, nil
}

func (m *Mesh) normalize() error {
	switch m.Kind {
	case MeshBox:
		for _, v := range m.Size {
			if v <= 0 {
				return fmt.Errorf("box size must be positive")
			}
		}
	case MeshCylinder:
		if m.Radius <= 0 || m.Width <= 0 {
			return fmt.Errorf("cylinder radius and width must be positive")
		}
		if m.Segments == 0 {
			m.Segments = 12
		}
		if m.Segments < 3 {
			return fmt.Errorf("cylinder needs at least 3 segments")
		}
		m.Axis = strings.ToLower(m.Axis)
		switch m.Axis {
		case "":
			m.Axis = "x"
		case "x", "y", "z":
		default:
			return fmt.Errorf("unknown cylinder axis %q", m.Axis)
		}
	default:
		return fmt.Errorf("unknown mesh kind %q", m.Kind)
	}
	return nil
}

// Part looks a part up by name.
func (m *Model) Part(name string) (*Part, error) {
	p, ok := m.Parts[name]
	if !ok || p == nil {
		return nil, &MissingPartError{Asset: m.Name, Part: name}
	}
	return p, nil
}

func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	out := &Model{Name: m.Name, Parts: make(map[string]*Part, len(m.Parts))}
	for name, p := range m.Parts {
		out.Parts[name] = p.Clone()
	}
	return out
}

func (p *Part) Clone() *Part {
	if p == nil {
		return nil
	}
	out := &Part{Name: p.Name, Meshes: make([]Mesh, len(p.Meshes))}
	for i, mesh := range p.Meshes {
		out.Meshes[i] = mesh
		if mesh.Color != nil {
			c := *mesh.Color
			out.Meshes[i].Color = &c
		}
	}
	return out
}

// VehicleParts resolves the required parts from a copy of the model.
func (m *Model) VehicleParts() (*VehicleParts, error) {
	clone := m.Clone()
	parts := make([]*Part, len(RequiredParts))
	for i, name := range RequiredParts {
		p, err := clone.Part(name)
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}
	return &VehicleParts{
		Asset:  m.Name,
		Body:   parts[0],
		Wheels: [4]*Part{parts[1], parts[2], parts[3], parts[4]},
	}, nil
}

func (v *VehicleParts) All() []*Part {
	return []*Part{v.Body, v.Wheels[0], v.Wheels[1], v.Wheels[2], v.Wheels[3]}
}

// Describe renders the model structure, one line per part and mesh.
func (m *Model) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model %s (%d parts)\n", m.Name, len(m.Parts))

	names := make([]string, 0, len(m.Parts))
	for name := range m.Parts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := m.Parts[name]
		fmt.Fprintf(&b, "  %s: %d meshes, %d edges\n", name, len(p.Meshes), len(p.Edges()))
		for _, mesh := range p.Meshes {
			switch mesh.Kind {
			case MeshBox:
				fmt.Fprintf(&b, "    box size=%v offset=%v\n", mesh.Size, mesh.Offset)
			case MeshCylinder:
				fmt.Fprintf(&b, "    cylinder r=%g w=%g axis=%s offset=%v\n", mesh.Radius, mesh.Width, mesh.Axis, mesh.Offset)
			}
		}
	}
	return b.String()
}

func vec(a [3]float64) mgl64.Vec3 {
	return mgl64.Vec3(a)
}

// Named returns the part called name, or nil.
func (v *VehicleParts) Named(name string) *Part {
	for _, p := range v.All() {
		if p != nil && p.Name == name {
			return p
		}
	}
	return nil
}
