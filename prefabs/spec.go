package prefabs

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSpec = errors.New("prefabs: invalid spec")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// Vec3 is a YAML sequence of three numbers.
type Vec3 [3]float64

func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3(v)
}

// Radians converts a vector of degrees.
func (v Vec3) Radians() mgl64.Vec3 {
	return mgl64.Vec3{mgl64.DegToRad(v[0]), mgl64.DegToRad(v[1]), mgl64.DegToRad(v[2])}
}

type TransformSpec struct {
	Position Vec3 `yaml:"position"`
	// Rotation is an XYZ Euler rotation in degrees.
	Rotation Vec3 `yaml:"rotation"`
}

type ChassisSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Length float64 `yaml:"length"`
	Mass   float64 `yaml:"mass"`
}

type WheelsSpec struct {
	Radius float64 `yaml:"radius"`
	// Script names a tengo layout script under prefabs/scripts. Empty uses
	// the built-in layout.
	Script string `yaml:"script"`
}

type ImpulseSpec struct {
	Action  string `yaml:"action"`
	Impulse Vec3   `yaml:"impulse"`
	Point   Vec3   `yaml:"point"`
}

type ControlsSpec struct {
	EngineForce   float64       `yaml:"engine_force"`
	BoostForce    float64       `yaml:"boost_force"`
	BrakeForce    float64       `yaml:"brake_force"`
	FrontSteering float64       `yaml:"front_steering"`
	RearSteering  float64       `yaml:"rear_steering"`
	Reset         TransformSpec `yaml:"reset"`
	Impulses      []ImpulseSpec `yaml:"impulses"`
}

// PartPlacementSpec aligns a visual part with its physics body.
type PartPlacementSpec struct {
	// RotationY is in degrees.
	RotationY float64 `yaml:"rotation_y"`
	Offset    Vec3    `yaml:"offset"`
}

type SceneSpec struct {
	Body   PartPlacementSpec `yaml:"body"`
	Wheels PartPlacementSpec `yaml:"wheels"`
}

type VehicleSpec struct {
	Name     string        `yaml:"name"`
	Model    string        `yaml:"model"`
	Chassis  ChassisSpec   `yaml:"chassis"`
	Spawn    TransformSpec `yaml:"spawn"`
	Wheels   WheelsSpec    `yaml:"wheels"`
	Controls ControlsSpec  `yaml:"controls"`
	Scene    SceneSpec     `yaml:"scene"`
}

func LoadVehicleSpec(name string) (*VehicleSpec, error) {
	spec, err := LoadSpec[VehicleSpec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &spec, nil
}

func (s VehicleSpec) Validate() error {
	c := s.Chassis
	if c.Width <= 0 || c.Height <= 0 || c.Length <= 0 {
		return fmt.Errorf("%w: chassis dimensions must be positive", ErrInvalidSpec)
	}
	if c.Mass <= 0 {
		return fmt.Errorf("%w: chassis mass must be positive", ErrInvalidSpec)
	}
	if s.Wheels.Radius <= 0 {
		return fmt.Errorf("%w: wheel radius must be positive", ErrInvalidSpec)
	}
	if s.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidSpec)
	}
	for _, v := range []float64{s.Controls.EngineForce, s.Controls.BoostForce, s.Controls.BrakeForce} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: control forces must not be negative", ErrInvalidSpec)
		}
	}
	return nil
}

type CameraSpec struct {
	Name string `yaml:"name"`
	// View is a view mode name or number, parsed by the camera package.
	View     string  `yaml:"view"`
	FOV      float64 `yaml:"fov"`
	Position Vec3    `yaml:"position"`
	Target   Vec3    `yaml:"target"`
}

func LoadCameraSpec(name string) (*CameraSpec, error) {
	spec, err := LoadSpec[CameraSpec](name)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
