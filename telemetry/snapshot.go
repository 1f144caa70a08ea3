// Package telemetry describes the per-frame vehicle state published to the
// remote stream and the session recorder.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/common"
)

var ErrSinkClosed = errors.New("telemetry: sink closed")

type Snapshot struct {
	Frame    uint64     `json:"frame"`
	Time     float64    `json:"time"`
	Vehicle  string     `json:"vehicle"`
	Position [3]float64 `json:"position"`
	// Heading, Pitch and Roll are in radians.
	Heading  float64  `json:"heading"`
	Pitch    float64  `json:"pitch"`
	Roll     float64  `json:"roll"`
	Speed    float64  `json:"speed"`
	Contacts int      `json:"contacts"`
	View     string   `json:"view"`
	Keys     []string `json:"keys,omitempty"`
	Commands []string `json:"commands,omitempty"`
}

// Sink receives snapshots on the game loop. Publish must not block.
type Sink interface {
	Publish(Snapshot) error
}

// SetPose fills the position and attitude fields from a chassis pose.
func (s *Snapshot) SetPose(position mgl64.Vec3, rotation mgl64.Quat) {
	s.Position = [3]float64(position)
	s.Heading, s.Pitch, s.Roll = common.DecomposeHeadingPitchRoll(rotation)
}

func (s Snapshot) String() string {
	return fmt.Sprintf("t=%.2f pos=(%.2f, %.2f, %.2f) heading=%.1f° speed=%.2f m/s contacts=%d view=%s",
		s.Time, s.Position[0], s.Position[1], s.Position[2], mgl64.RadToDeg(s.Heading), s.Speed, s.Contacts, s.View)
}
