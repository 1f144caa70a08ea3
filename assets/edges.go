package assets

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var DefaultColor = color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}

// Edge is a line segment in part-local space.
type Edge struct {
	A, B  mgl64.Vec3
	Color color.NRGBA
}

// Edges returns the wireframe of every mesh in the part.
func (p *Part) Edges() []Edge {
	var edges []Edge
	for _, m := range p.Meshes {
		edges = append(edges, m.Edges()...)
	}
	return edges
}

func (m Mesh) Edges() []Edge {
	c := DefaultColor
	if m.Color != nil {
		c = m.Color.NRGBA
	}
	switch m.Kind {
	case MeshBox:
		return boxEdges(vec(m.Size), vec(m.Offset), c)
	case MeshCylinder:
		return cylinderEdges(m, c)
	}
	return nil
}

func boxEdges(size, offset mgl64.Vec3, c color.NRGBA) []Edge {
	h := size.Mul(0.5)
	corner := func(i int) mgl64.Vec3 {
		p := mgl64.Vec3{-h[0], -h[1], -h[2]}
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				p[axis] = h[axis]
			}
		}
		return p.Add(offset)
	}

	edges := make([]Edge, 0, 12)
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				continue
			}
			edges = append(edges, Edge{A: corner(i), B: corner(i | 1<<axis), Color: c})
		}
	}
	return edges
}

func cylinderEdges(m Mesh, c color.NRGBA) []Edge {
	// u and v span the cap plane, n is the cylinder axis.
	var n, u, v mgl64.Vec3
	switch m.Axis {
	case "y":
		n, u, v = mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}
	case "z":
		n, u, v = mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}
	default:
		n, u, v = mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}
	}

	offset := vec(m.Offset)
	half := n.Mul(m.Width / 2)
	rim := func(i int, side float64) mgl64.Vec3 {
		a := 2 * math.Pi * float64(i) / float64(m.Segments)
		p := u.Mul(m.Radius * math.Cos(a)).Add(v.Mul(m.Radius * math.Sin(a)))
		return p.Add(half.Mul(side)).Add(offset)
	}

	edges := make([]Edge, 0, 3*m.Segments+1)
	for i := 0; i < m.Segments; i++ {
		j := (i + 1) % m.Segments
		edges = append(edges,
			Edge{A: rim(i, 1), B: rim(j, 1), Color: c},
			Edge{A: rim(i, -1), B: rim(j, -1), Color: c},
			Edge{A: rim(i, 1), B: rim(i, -1), Color: c},
		)
	}
	// A spoke so wheel spin is visible.
	edges = append(edges, Edge{A: offset.Add(half), B: rim(0, 1), Color: c})
	return edges
}
