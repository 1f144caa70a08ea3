// Package wheels derives raycast wheel configurations from chassis
// dimensions.
package wheels

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/physics"
)

// Wheel indices. Vehicle control and scene binding both rely on this order.
const (
	FrontRight = iota
	FrontLeft
	BackRight
	BackLeft
	Count
)

// PartNames are the asset parts bound to each wheel index.
var PartNames = [Count]string{
	FrontRight: "wheelFR",
	FrontLeft:  "wheelFL",
	BackRight:  "wheelBR",
	BackLeft:   "wheelBL",
}

// Defaults returns the shared wheel parameters without a connection point.
func Defaults(radius float64) physics.WheelInfo {
	return physics.WheelInfo{
		Direction:                       mgl64.Vec3{0, -1, 0},
		Axle:                            mgl64.Vec3{1, 0, 0},
		Radius:                          radius,
		Width:                           radius,
		SuspensionStiffness:             60,
		SuspensionRestLength:            0.1,
		MaxSuspensionTravel:             0.1,
		MaxSuspensionForce:              100000,
		DampingRelaxation:               2.3,
		DampingCompression:              4.4,
		FrictionSlip:                    5,
		RollInfluence:                   0.01,
		CustomSlidingRotationalSpeed:    -30,
		UseCustomSlidingRotationalSpeed: true,
	}
}

// Layout places four wheels at the corners of a width x height x length
// chassis, in index order FR, FL, BR, BL. Chassis +X is left, +Z is front.
func Layout(width, height, length, radius float64) []physics.WheelInfo {
	side := width * 0.65
	drop := -height * 0.4
	front := length * 0.35

	points := [Count]mgl64.Vec3{
		FrontRight: {-side, drop, front},
		FrontLeft:  {side, drop, front},
		BackRight:  {-side, drop, -front},
		BackLeft:   {side, drop, -front},
	}

	infos := make([]physics.WheelInfo, Count)
	for i, p := range points {
		infos[i] = Defaults(radius)
		infos[i].ConnectionPoint = p
		infos[i].Front = i == FrontRight || i == FrontLeft
	}
	return infos
}
