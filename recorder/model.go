package recorder

import (
	"strings"
	"time"

	"github.com/milk9111/carsim/telemetry"
)

// Session is one run of the simulator.
type Session struct {
	ID        uint       `gorm:"primaryKey"`
	CreatedAt time.Time  `gorm:"index"`
	EndedAt   *time.Time `gorm:"default:NULL"`
	Vehicle   string     `gorm:"size:64"`
	Samples   []Sample   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*Session) TableName() string {
	return "sessions"
}

// Sample is a stored telemetry snapshot. Keys and commands are flattened to
// separator-joined strings.
type Sample struct {
	ID        uint    `gorm:"primaryKey"`
	SessionID uint    `gorm:"index:idx_sample_session_frame,priority:1;NOT NULL"`
	Frame     uint64  `gorm:"index:idx_sample_session_frame,priority:2"`
	Time      float64
	X         float64
	Y         float64
	Z         float64
	Heading   float64
	Pitch     float64
	Roll      float64
	Speed     float64
	Contacts  int
	View      string `gorm:"size:16"`
	Keys      string `gorm:"size:256"`
	Commands  string
}

func (*Sample) TableName() string {
	return "samples"
}

const (
	keySep     = ","
	commandSep = ";"
)

func sampleFromSnapshot(sessionID uint, s telemetry.Snapshot) Sample {
	return Sample{
		SessionID: sessionID,
		Frame:     s.Frame,
		Time:      s.Time,
		X:         s.Position[0],
		Y:         s.Position[1],
		Z:         s.Position[2],
		Heading:   s.Heading,
		Pitch:     s.Pitch,
		Roll:      s.Roll,
		Speed:     s.Speed,
		Contacts:  s.Contacts,
		View:      s.View,
		Keys:      strings.Join(s.Keys, keySep),
		Commands:  strings.Join(s.Commands, commandSep),
	}
}

// Snapshot converts the row back.
func (s Sample) Snapshot(vehicle string) telemetry.Snapshot {
	return telemetry.Snapshot{
		Frame:    s.Frame,
		Time:     s.Time,
		Vehicle:  vehicle,
		Position: [3]float64{s.X, s.Y, s.Z},
		Heading:  s.Heading,
		Pitch:    s.Pitch,
		Roll:     s.Roll,
		Speed:    s.Speed,
		Contacts: s.Contacts,
		View:     s.View,
		Keys:     split(s.Keys, keySep),
		Commands: split(s.Commands, commandSep),
	}
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
