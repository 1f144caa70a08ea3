package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/common"
)

// LocalImpulse is an impulse applied in chassis-local space at a
// chassis-local point while its action is held.
type LocalImpulse struct {
	Action  Action
	Impulse mgl64.Vec3
	Point   mgl64.Vec3
}

// Tuning holds the fixed numeric parameters reconciliation issues.
type Tuning struct {
	EngineForce  float64
	BoostForce   float64
	DrivenWheels []int

	BrakeForce   float64
	BrakedWheels []int

	FrontSteering float64
	RearSteering  float64
	FrontWheels   []int
	RearWheels    []int

	ResetPosition mgl64.Vec3
	ResetRotation mgl64.Quat

	// Impulses are applied in slice order.
	Impulses []LocalImpulse
}

func DefaultTuning() Tuning {
	return Tuning{
		EngineForce:  250,
		BoostForce:   800,
		DrivenWheels: []int{2, 3},

		BrakeForce:   5,
		BrakedWheels: []int{0, 1, 2, 3},

		FrontSteering: 0.5,
		RearSteering:  0.1,
		FrontWheels:   []int{0, 1},
		RearWheels:    []int{2, 3},

		ResetPosition: mgl64.Vec3{-10, 1, -3},
		ResetRotation: common.EulerXYZ(0, math.Pi/2, 0),

		Impulses: []LocalImpulse{
			{Action: ImpulseRight, Impulse: mgl64.Vec3{-0.6, -6, 0}, Point: mgl64.Vec3{-0.6, 0, 0}},
			{Action: ImpulseDown, Impulse: mgl64.Vec3{0, -6, -1.4}, Point: mgl64.Vec3{0, 0, -1.4}},
			{Action: ImpulseLeft, Impulse: mgl64.Vec3{0.6, -6, 0}, Point: mgl64.Vec3{0.6, 0, 0}},
			{Action: ImpulseUp, Impulse: mgl64.Vec3{0, -6, 1.4}, Point: mgl64.Vec3{0, 0, 1.4}},
		},
	}
}

// SteeredWheels is the union of front and rear wheel indices.
func (t Tuning) SteeredWheels() []int {
	out := make([]int, 0, len(t.FrontWheels)+len(t.RearWheels))
	out = append(out, t.FrontWheels...)
	return append(out, t.RearWheels...)
}
