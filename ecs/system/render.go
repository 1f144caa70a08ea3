package system

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
)

var (
	gridColor  = color.NRGBA{R: 0x3a, G: 0x44, B: 0x4f, A: 0xff}
	axisColor  = color.NRGBA{R: 0x5c, G: 0x6b, B: 0x7a, A: 0xff}
	background = color.NRGBA{R: 0x12, G: 0x16, B: 0x1c, A: 0xff}
)

// RenderSystem draws every scene node as a wireframe through the camera,
// over a ground grid.
type RenderSystem struct {
	GroundHeight float64
	GridExtent   float64
	GridSpacing  float64
	LineWidth    float32
}

func NewRenderSystem(groundHeight, gridExtent float64) *RenderSystem {
	if gridExtent <= 0 {
		gridExtent = 50
	}
	return &RenderSystem{
		GroundHeight: groundHeight,
		GridExtent:   gridExtent,
		GridSpacing:  2,
		LineWidth:    1,
	}
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}
	screen.Fill(background)

	camEntity, ok := w.First(component.CameraComponent.Kind())
	if !ok {
		return
	}
	cam, ok := ecs.Get(w, camEntity, component.CameraComponent)
	if !ok || cam.Camera == nil {
		return
	}

	bounds := screen.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())
	if width <= 0 || height <= 0 {
		return
	}
	viewProj := cam.Camera.Projection(width / height).Mul4(cam.Camera.ViewMatrix())
	near := cam.Camera.Near

	line := func(a, b mgl64.Vec3, clr color.Color) {
		x0, y0, x1, y1, ok := projectSegment(viewProj, near, a, b, width, height)
		if !ok {
			return
		}
		vector.StrokeLine(screen, x0, y0, x1, y1, r.LineWidth, clr, true)
	}

	r.drawGrid(line)

	ecs.ForEach2(w, component.SceneNodeComponent, component.TransformComponent, func(e ecs.Entity, node *component.SceneNode, t *component.Transform) {
		model := t.Matrix().Mul4(node.Local())
		for _, edge := range node.Edges {
			a := mgl64.TransformCoordinate(edge.A, model)
			b := mgl64.TransformCoordinate(edge.B, model)
			line(a, b, edge.Color)
		}
	})
}

func (r *RenderSystem) drawGrid(line func(a, b mgl64.Vec3, clr color.Color)) {
	if r.GridSpacing <= 0 {
		return
	}
	y := r.GroundHeight
	e := r.GridExtent
	n := int(math.Floor(e / r.GridSpacing))
	for i := -n; i <= n; i++ {
		v := float64(i) * r.GridSpacing
		clr := gridColor
		if i == 0 {
			clr = axisColor
		}
		line(mgl64.Vec3{v, y, -e}, mgl64.Vec3{v, y, e}, clr)
		line(mgl64.Vec3{-e, y, v}, mgl64.Vec3{e, y, v}, clr)
	}
}

// projectSegment clips a world segment against the near plane and maps it to
// screen pixels. ok is false when the whole segment is behind the camera.
func projectSegment(viewProj mgl64.Mat4, near float64, a, b mgl64.Vec3, width, height float64) (x0, y0, x1, y1 float32, ok bool) {
	ca := viewProj.Mul4x1(a.Vec4(1))
	cb := viewProj.Mul4x1(b.Vec4(1))

	// Clip-space w is the view depth for a perspective projection.
	if ca.W() < near && cb.W() < near {
		return 0, 0, 0, 0, false
	}
	if ca.W() < near {
		ca = clipToNear(ca, cb, near)
	} else if cb.W() < near {
		cb = clipToNear(cb, ca, near)
	}

	toScreen := func(c mgl64.Vec4) (float32, float32) {
		x := (c.X()/c.W() + 1) * 0.5 * width
		y := (1 - c.Y()/c.W()) * 0.5 * height
		return float32(x), float32(y)
	}
	x0, y0 = toScreen(ca)
	x1, y1 = toScreen(cb)
	return x0, y0, x1, y1, true
}

// clipToNear moves behind toward front until its w reaches near.
func clipToNear(behind, front mgl64.Vec4, near float64) mgl64.Vec4 {
	t := (near - behind.W()) / (front.W() - behind.W())
	return behind.Add(front.Sub(behind).Mul(t))
}
