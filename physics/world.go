package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/carsim/common"
)

// FixedStep is the simulation step used by the game loop.
const FixedStep = 1.0 / 60.0

var (
	ErrInvalidBody  = errors.New("physics: invalid body parameters")
	ErrInvalidWheel = errors.New("physics: invalid wheel configuration")
)

const collisionTypeArena cp.CollisionType = 1

// WorldParams configures a World. Zero values fall back to defaults.
type WorldParams struct {
	Gravity      float64
	GroundHeight float64
	// ArenaHalfExtent bounds the ground plane with walls at ±extent on X and Z.
	// Zero disables the walls.
	ArenaHalfExtent float64
}

// World is a Y-up physics world. Motion in the ground plane (X, Z and yaw) is
// solved by a Chipmunk space; height, pitch and roll are integrated here.
type World struct {
	space    *cp.Space
	params   WorldParams
	bodies   []*Body
	vehicles []*RaycastVehicle
	walls    []*cp.Shape
	elapsed  float64
}

func NewWorld(p WorldParams) *World {
	if p.Gravity == 0 {
		p.Gravity = common.Gravity
	}
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})

	w := &World{space: space, params: p}
	if p.ArenaHalfExtent > 0 {
		w.buildArena(p.ArenaHalfExtent)
	}
	return w
}

func (w *World) buildArena(e float64) {
	corners := []cp.Vector{{X: -e, Y: -e}, {X: e, Y: -e}, {X: e, Y: e}, {X: -e, Y: e}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		seg := cp.NewSegment(w.space.StaticBody, a, b, 0.5)
		seg.SetElasticity(0.3)
		seg.SetFriction(0.8)
		seg.SetCollisionType(collisionTypeArena)
		w.space.AddShape(seg)
		w.walls = append(w.walls, seg)
	}
}

func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) Gravity() float64 {
	return w.params.Gravity
}

func (w *World) GroundHeight() float64 {
	return w.params.GroundHeight
}

func (w *World) ArenaHalfExtent() float64 {
	return w.params.ArenaHalfExtent
}

func (w *World) Elapsed() float64 {
	return w.elapsed
}

func (w *World) Bodies() []*Body {
	return append([]*Body(nil), w.bodies...)
}

// ChassisParams describes a box-shaped dynamic body.
type ChassisParams struct {
	Width, Height, Length float64
	Mass                  float64
	Position              mgl64.Vec3
	Rotation              mgl64.Quat
	// LinearDamping and AngularDamping are fractions of velocity lost per
	// second.
	LinearDamping  float64
	AngularDamping float64
}

// NewChassis adds a dynamic box body that never sleeps.
func (w *World) NewChassis(p ChassisParams) (*Body, error) {
	if p.Width <= 0 || p.Height <= 0 || p.Length <= 0 || p.Mass <= 0 {
		return nil, fmt.Errorf("%w: size %gx%gx%g mass %g", ErrInvalidBody, p.Width, p.Height, p.Length, p.Mass)
	}
	if p.Rotation == (mgl64.Quat{}) {
		p.Rotation = mgl64.QuatIdent()
	}
	if p.LinearDamping == 0 {
		p.LinearDamping = 0.01
	}
	if p.AngularDamping == 0 {
		p.AngularDamping = 0.01
	}

	body := cp.NewBody(p.Mass, cp.MomentForBox(p.Mass, p.Width, p.Length))
	w.space.AddBody(body)
	shape := cp.NewBox(body, p.Width, p.Length, 0)
	shape.SetFriction(0.3)
	shape.SetElasticity(0.1)
	w.space.AddShape(shape)

	b := &Body{
		world:          w,
		body:           body,
		shape:          shape,
		width:          p.Width,
		height:         p.Height,
		length:         p.Length,
		mass:           p.Mass,
		ix:             p.Mass / 12 * (p.Height*p.Height + p.Length*p.Length),
		iz:             p.Mass / 12 * (p.Width*p.Width + p.Height*p.Height),
		linearDamping:  p.LinearDamping,
		angularDamping: p.AngularDamping,
	}
	body.UserData = b
	body.SetVelocityUpdateFunc(b.updateVelocity)
	b.SetPosition(p.Position)
	b.SetRotation(p.Rotation)
	w.bodies = append(w.bodies, b)
	return b, nil
}

// NewWheelBody adds a kinematic body without collision whose transform is
// written by a vehicle each step.
func (w *World) NewWheelBody(radius, width float64) (*Body, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("%w: wheel radius %g", ErrInvalidBody, radius)
	}
	body := cp.NewKinematicBody()
	w.space.AddBody(body)
	b := &Body{
		world:     w,
		body:      body,
		kinematic: true,
		width:     width,
		height:    radius * 2,
		length:    radius * 2,
		rot:       mgl64.QuatIdent(),
	}
	body.UserData = b
	w.bodies = append(w.bodies, b)
	return b, nil
}

// Step advances the world by dt seconds.
func (w *World) Step(dt float64) {
	if w == nil || dt <= 0 {
		return
	}
	for _, v := range w.vehicles {
		v.updateSuspension(dt)
	}
	for _, b := range w.bodies {
		if !b.kinematic {
			b.integrateVertical(dt)
			b.body.Activate()
		}
	}
	w.space.Step(dt)
	for _, v := range w.vehicles {
		v.updateWheelTransforms(dt)
	}
	w.elapsed += dt
}
