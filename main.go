package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/carsim/config"
	"github.com/milk9111/carsim/logging"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("carsim", pflag.ExitOnError)
	baseMonitor := fs.BoolP("monitor", "m", false, "use base monitor instead of primary (for multi-monitor setups)")
	if err := config.Flags(fs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	_ = fs.Parse(os.Args[1:])

	configFile, _ := fs.GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logFile io.Writer
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		logFile = f
	}
	log := logging.New(cfg.Log.Level, os.Stderr, logFile)
	if used := config.Used(); used != "" {
		log.Info().Str("file", used).Msg("config loaded")
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	game, err := NewGame(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}

	runErr := ebiten.RunGame(game)
	if err := game.Close(); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	if runErr != nil {
		log.Fatal().Err(runErr).Msg("game loop")
	}
}
