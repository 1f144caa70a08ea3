package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ebitenui/ebitenui"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/carsim/assets"
	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/config"
	"github.com/milk9111/carsim/control"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/milk9111/carsim/ecs/entity"
	"github.com/milk9111/carsim/ecs/system"
	"github.com/milk9111/carsim/input"
	"github.com/milk9111/carsim/physics"
	"github.com/milk9111/carsim/prefabs"
	"github.com/milk9111/carsim/recorder"
	"github.com/milk9111/carsim/remote"
	"github.com/rs/zerolog"
)

const arenaHalfExtent = 40

type Game struct {
	cfg *config.Config
	log zerolog.Logger

	world     *ecs.World
	physics   *physics.World
	scheduler *ecs.Scheduler
	input     *system.InputSystem
	camera    *system.CameraSystem
	render    *system.RenderSystem
	hud       *system.HUD
	// menuScheduler runs instead of scheduler while the pause menu is open.
	menuScheduler *ecs.Scheduler

	vehicleSpec  *prefabs.VehicleSpec
	vehicle      entity.Vehicle
	cameraEntity ecs.Entity

	remote   *remote.Server
	recorder *recorder.Recorder
	watcher  *prefabs.Watcher

	pauseUI *ebitenui.UI
	onPause func()
	paused  bool
	quit    bool
	debug   bool

	width, height float64
}

func NewGame(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Game, error) {
	g := &Game{
		cfg:    cfg,
		log:    log,
		world:  ecs.NewWorld(),
		debug:  cfg.Debug,
		width:  float64(cfg.Window.Width),
		height: float64(cfg.Window.Height),
	}

	spec, err := prefabs.LoadVehicleSpec(cfg.Vehicle.Spec)
	if err != nil {
		return nil, err
	}
	g.vehicleSpec = spec

	model, err := assets.LoadModel(spec.Model)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("model", spec.Model).Msg(strings.TrimSpace(model.Describe()))
	parts, err := assets.LoadVehicleParts(spec.Model)
	if err != nil {
		return nil, err
	}

	bindings, err := control.DefaultBindings().WithOverrides(cfg.Controls.Bindings)
	if err != nil {
		return nil, fmt.Errorf("controls: %w", err)
	}
	for _, line := range bindings.Describe() {
		log.Debug().Msg(line)
	}

	g.physics = physics.NewWorld(physics.WorldParams{ArenaHalfExtent: arenaHalfExtent})
	g.vehicle, err = entity.NewVehicle(ctx, g.world, g.physics, spec, parts, bindings)
	if err != nil {
		return nil, err
	}

	camSpec, err := prefabs.LoadCameraSpec(cfg.Camera.Prefab)
	if err != nil {
		return nil, err
	}
	applyCameraOverrides(camSpec, cfg.Camera)
	mode, err := cfg.ViewMode()
	if err != nil {
		return nil, err
	}
	g.cameraEntity, err = entity.NewCamera(g.world, camSpec, mode)
	if err != nil {
		return nil, err
	}

	hub := input.NewHub()
	g.input = system.NewInputSystem(input.NewKeyboard(), hub)
	g.camera = system.NewCameraSystem()
	g.hud = system.NewHUD(log)
	g.hud.Visible = cfg.Debug
	g.render = system.NewRenderSystem(g.physics.GroundHeight(), arenaHalfExtent)

	g.scheduler = ecs.NewScheduler(
		g.input,
		system.NewControlSystem(log),
		system.NewPhysicsSystem(g.physics),
		g.camera,
	)

	if cfg.Remote.Enabled {
		g.remote = remote.NewServer(hub, log)
		if _, err := g.remote.Start(cfg.Remote.Addr); err != nil {
			return nil, err
		}
		g.scheduler.Add(system.NewTelemetrySystem(log, cfg.Remote.Interval, g.remote))
	}
	if cfg.Recorder.Enabled {
		g.recorder, err = recorder.Open(cfg.Recorder.Path, spec.Name, log, recorder.Options{})
		if err != nil {
			g.Close()
			return nil, err
		}
		g.scheduler.Add(system.NewTelemetrySystem(log, cfg.Recorder.Interval, g.recorder))
	}
	g.scheduler.Add(g.hud)
	g.menuScheduler = ecs.NewScheduler(g.camera, g.hud)

	if cfg.HotReload {
		g.watcher, err = prefabs.NewWatcher(prefabs.Dir, assets.Dir)
		if err != nil {
			log.Warn().Err(err).Msg("hot reload disabled")
		} else {
			log.Info().Strs("dirs", g.watcher.Watched()).Msg("hot reload enabled")
		}
	}

	g.pauseUI = NewPauseUI(g)
	log.Info().
		Str("vehicle", spec.Name).
		Str("view", mode.String()).
		Msg("simulation ready")
	return g, nil
}

func applyCameraOverrides(spec *prefabs.CameraSpec, c config.CameraConfig) {
	if c.FOV > 0 {
		spec.FOV = c.FOV
	}
	if len(c.Position) == 3 {
		spec.Position = prefabs.Vec3{c.Position[0], c.Position[1], c.Position[2]}
	}
	if len(c.Target) == 3 {
		spec.Target = prefabs.Vec3{c.Target[0], c.Target[1], c.Target[2]}
	}
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.setPaused(!g.paused)
	}
	if g.paused {
		g.pauseUI.Update()
		// View changes from the menu apply and show their notice immediately.
		g.menuScheduler.Update(g.world)
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.SetViewMode(g.ViewMode().Next())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.hud.Visible = !g.hud.Visible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		if s, err := g.hud.CopyPose(g.world); err == nil {
			g.log.Info().Msg("pose copied\n" + s)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}
	g.pollReload()

	g.scheduler.Update(g.world)
	return nil
}

func (g *Game) setPaused(paused bool) {
	g.paused = paused
	if paused {
		// Keys released while the menu is open would otherwise stay held.
		g.input.Detach(g.world)
		if g.onPause != nil {
			g.onPause()
		}
	}
}

func (g *Game) ViewMode() camera.ViewMode {
	cam, ok := ecs.Get(g.world, g.cameraEntity, component.CameraComponent)
	if !ok {
		return camera.None
	}
	return cam.Mode
}

// SetViewMode asks the camera system to switch modes on its next update.
func (g *Game) SetViewMode(mode camera.ViewMode) {
	g.world.Events().Push(ecs.Event{Type: ecs.EventViewModeChanged, Data: mode})
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.reload(path)
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.log.Warn().Err(err).Msg("file watcher")
			}
		default:
			return
		}
	}
}

// reload applies a changed file. Model edits re-bind the scene nodes and
// prefab edits re-tune controls or the lens; physics bodies are never rebuilt.
func (g *Game) reload(path string) {
	log := g.log.With().Str("file", path).Logger()
	name := filepath.Base(path)

	switch {
	case within(path, assets.Dir):
		assets.Invalidate(name)
		if strings.TrimSuffix(name, filepath.Ext(name)) != strings.TrimSuffix(filepath.Base(g.vehicleSpec.Model), ".yaml") {
			return
		}
		parts, err := assets.LoadVehicleParts(g.vehicleSpec.Model)
		if err != nil {
			log.Warn().Err(err).Msg("model reload failed, keeping current parts")
			return
		}
		n := entity.RebindParts(g.world, parts)
		g.world.Events().Push(ecs.Event{Type: ecs.EventPartsReloaded, Data: parts})
		log.Info().Int("nodes", n).Msg("vehicle model reloaded")

	case filepath.Ext(name) == ".tengo":
		log.Info().Msg("wheel script changed, restart to rebuild the wheel layout")

	case name == filepath.Base(g.cfg.Vehicle.Spec):
		spec, err := prefabs.LoadVehicleSpec(g.cfg.Vehicle.Spec)
		if err != nil {
			log.Warn().Err(err).Msg("vehicle prefab reload failed")
			return
		}
		tuning, err := entity.TuningFromSpec(spec.Controls)
		if err != nil {
			log.Warn().Err(err).Msg("vehicle prefab reload failed")
			return
		}
		if c, ok := ecs.Get(g.world, g.vehicle.Chassis, component.ControlsComponent); ok {
			c.Tuning = tuning
		}
		log.Info().Msg("control tuning reloaded")

	case name == filepath.Base(g.cfg.Camera.Prefab):
		spec, err := prefabs.LoadCameraSpec(g.cfg.Camera.Prefab)
		if err != nil {
			log.Warn().Err(err).Msg("camera prefab reload failed")
			return
		}
		applyCameraOverrides(spec, g.cfg.Camera)
		if cam, ok := ecs.Get(g.world, g.cameraEntity, component.CameraComponent); ok {
			cam.Camera.FOV = spec.FOV
		}
		log.Info().Float64("fov", spec.FOV).Msg("camera lens reloaded")
	}
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	return err == nil && !strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.render.Draw(g.world, screen)
	if g.debug {
		system.DrawPhysicsDebug(g.physics, screen)
	}
	g.hud.Draw(g.world, screen)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	if outsideWidth > 0 && outsideHeight > 0 {
		g.width, g.height = outsideWidth, outsideHeight
	}
	return g.width, g.height
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}

// Close stops the optional services. It is safe to call on a partially
// built game.
func (g *Game) Close() error {
	var errs []error
	if g.input != nil {
		g.input.Detach(g.world)
		if g.onPause != nil {
			g.onPause()
		}
	}
	if g.watcher != nil {
		errs = append(errs, g.watcher.Close())
	}
	if g.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		errs = append(errs, g.remote.Close(ctx))
		cancel()
	}
	if g.recorder != nil {
		errs = append(errs, g.recorder.Close())
	}
	return errors.Join(errs...)
}

// chassisPosition is shown in the pause menu.
func (g *Game) chassisPosition() mgl64.Vec3 {
	t, ok := ecs.Get(g.world, g.vehicle.Chassis, component.TransformComponent)
	if !ok {
		return mgl64.Vec3{}
	}
	return t.Position
}
