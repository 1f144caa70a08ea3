// Package config loads settings from defaults, an optional carsim.yaml,
// CARSIM_* environment variables and command-line flags, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milk9111/carsim/camera"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "CARSIM"
	configName = "carsim"
)

type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

type CameraConfig struct {
	// View is a mode name or number; see camera.ParseViewMode.
	View   string `mapstructure:"view"`
	Prefab string `mapstructure:"prefab"`
	// FOV, Position and Target override the prefab when set.
	FOV      float64   `mapstructure:"fov"`
	Position []float64 `mapstructure:"position"`
	Target   []float64 `mapstructure:"target"`
}

type VehicleConfig struct {
	Spec string `mapstructure:"spec"`
}

type ControlsConfig struct {
	// Bindings maps action names to key codes, e.g. brake: KeyB.
	Bindings map[string]string `mapstructure:"bindings"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type RemoteConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Interval int    `mapstructure:"interval"`
}

type RecorderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Path     string `mapstructure:"path"`
	Interval int    `mapstructure:"interval"`
}

type Config struct {
	Window    WindowConfig   `mapstructure:"window"`
	Camera    CameraConfig   `mapstructure:"camera"`
	Vehicle   VehicleConfig  `mapstructure:"vehicle"`
	Controls  ControlsConfig `mapstructure:"controls"`
	Log       LogConfig      `mapstructure:"log"`
	Debug     bool           `mapstructure:"debug"`
	HotReload bool           `mapstructure:"hotreload"`
	Remote    RemoteConfig   `mapstructure:"remote"`
	Recorder  RecorderConfig `mapstructure:"recorder"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("window.width", 1280)
	viper.SetDefault("window.height", 720)
	viper.SetDefault("window.title", "carsim")

	viper.SetDefault("camera.view", camera.ThirdPerson.String())
	viper.SetDefault("camera.prefab", "camera.yaml")
	viper.SetDefault("camera.fov", 0.0)

	viper.SetDefault("vehicle.spec", "vehicle.yaml")

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")

	viper.SetDefault("debug", false)
	viper.SetDefault("hotreload", false)

	viper.SetDefault("remote.enabled", false)
	viper.SetDefault("remote.addr", "127.0.0.1:8765")
	viper.SetDefault("remote.interval", 6)

	viper.SetDefault("recorder.enabled", false)
	viper.SetDefault("recorder.path", "carsim_sessions.db")
	viper.SetDefault("recorder.interval", 30)
}

// Flags defines the command-line flags and binds them to their keys.
func Flags(fs *pflag.FlagSet) error {
	fs.String("config", "", "config file (default ./carsim.yaml when present)")
	fs.String("view", camera.ThirdPerson.String(), "camera view mode: none, third_person, front, driver or 0-3")
	fs.Float64("fov", 0, "camera field of view in degrees (0 keeps the prefab value)")
	fs.String("vehicle", "vehicle.yaml", "vehicle prefab under prefabs/")
	fs.String("log-level", "info", "log level")
	fs.String("log-file", "", "also write logs to this file")
	fs.Bool("debug", false, "draw the physics map and debug HUD")
	fs.Bool("hotreload", false, "reload prefabs and models when files under prefabs/ or assets/models/ change")
	fs.Bool("remote", false, "serve the websocket remote keyboard and telemetry stream")
	fs.String("remote-addr", "127.0.0.1:8765", "remote listen address")
	fs.Bool("record", false, "record drive telemetry to sqlite")
	fs.String("record-path", "carsim_sessions.db", "sqlite file for recorded sessions")

	binds := map[string]string{
		"camera.view":      "view",
		"camera.fov":       "fov",
		"vehicle.spec":     "vehicle",
		"log.level":        "log-level",
		"log.file":         "log-file",
		"debug":            "debug",
		"hotreload":        "hotreload",
		"remote.enabled":   "remote",
		"remote.addr":      "remote-addr",
		"recorder.enabled": "record",
		"recorder.path":    "record-path",
	}
	for key, name := range binds {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("config: bind %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the optional config file and the environment, then decodes the
// merged settings. An explicit file that cannot be read is an error; a
// missing default file is not.
func Load(file string, searchDirs ...string) (*Config, error) {
	SetDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		if len(searchDirs) == 0 {
			searchDirs = []string{"."}
		}
		for _, dir := range searchDirs {
			viper.AddConfigPath(dir)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.ViewMode(); err != nil {
		return fmt.Errorf("config: camera.view: %w", err)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.FOV < 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("config: camera.fov must be in [0, 180), got %g", c.Camera.FOV)
	}
	for name, v := range map[string][]float64{"position": c.Camera.Position, "target": c.Camera.Target} {
		if len(v) != 0 && len(v) != 3 {
			return fmt.Errorf("config: camera.%s needs 3 components, got %d", name, len(v))
		}
	}
	return nil
}

func (c Config) ViewMode() (camera.ViewMode, error) {
	return camera.ParseViewMode(c.Camera.View)
}

// Used reports the config file that was read, if any.
func Used() string {
	return viper.ConfigFileUsed()
}
