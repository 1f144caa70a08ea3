// Command carsimctl inspects the simulator's data outside the game window:
// vehicle models, the vehicle prefab and recorded sessions.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/milk9111/carsim/assets"
	"github.com/milk9111/carsim/prefabs"
	"github.com/milk9111/carsim/recorder"
	"github.com/spf13/pflag"
)

const usage = `usage: carsimctl <command> [flags]

commands:
  parts [model...]     check that models carry every vehicle part
  vehicle [prefab]     validate a vehicle prefab and its model
  sessions             list recorded sessions
  replay <session-id>  print the samples of a session
`

var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "parts":
		err = partsCmd(args[1:], stdout)
	case "vehicle":
		err = vehicleCmd(args[1:], stdout)
	case "sessions":
		err = sessionsCmd(args[1:], stdout)
	case "replay":
		err = replayCmd(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "carsimctl:", err)
		switch {
		case errors.Is(err, errUsage):
			fmt.Fprint(stderr, usage)
			return 2
		case errors.Is(err, assets.ErrMissingPart):
			return 3
		}
		return 1
	}
	return 0
}

// parseErr marks flag errors as usage errors; -h stays a plain help request.
func parseErr(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", errUsage, err)
}

func partsCmd(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("parts", pflag.ContinueOnError)
	dir := fs.String("dir", assets.Dir, "directory checked for model overrides")
	if err := fs.Parse(args); err != nil {
		return parseErr(err)
	}
	assets.Dir = *dir

	names := fs.Args()
	if len(names) == 0 {
		names = []string{"car"}
	}

	var errs []error
	for _, name := range names {
		m, err := assets.LoadModel(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprint(out, m.Describe())
		if _, err := m.VehicleParts(); err != nil {
			fmt.Fprintf(out, "  FAIL %v\n", err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintln(out, "  ok")
	}
	return errors.Join(errs...)
}

func vehicleCmd(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("vehicle", pflag.ContinueOnError)
	dir := fs.String("dir", prefabs.Dir, "directory checked for prefab overrides")
	if err := fs.Parse(args); err != nil {
		return parseErr(err)
	}
	prefabs.Dir = *dir

	name := "vehicle.yaml"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}
	spec, err := prefabs.LoadVehicleSpec(name)
	if err != nil {
		return err
	}
	if _, err := assets.LoadVehicleParts(spec.Model); err != nil {
		return err
	}
	if spec.Wheels.Script != "" {
		if _, err := prefabs.LoadScript(spec.Wheels.Script); err != nil {
			return err
		}
	}

	c := spec.Chassis
	fmt.Fprintf(out, "%s: model %s, chassis %.2fx%.2fx%.2f %.0fkg, wheel radius %.2f\n",
		spec.Name, spec.Model, c.Width, c.Height, c.Length, c.Mass, spec.Wheels.Radius)
	fmt.Fprintln(out, "  ok")
	return nil
}

func sessionsCmd(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("sessions", pflag.ContinueOnError)
	path := fs.String("db", "carsim_sessions.db", "session database")
	if err := fs.Parse(args); err != nil {
		return parseErr(err)
	}
	db, err := recorder.OpenDB(*path)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	sessions, err := recorder.Sessions(db)
	if err != nil {
		return err
	}
	for _, s := range sessions {
		ended := "running"
		if s.EndedAt != nil {
			ended = s.EndedAt.Sub(s.CreatedAt).Round(time.Second).String()
		}
		fmt.Fprintf(out, "%4d  %-12s %s  %s\n", s.ID, s.Vehicle, s.CreatedAt.Format("2006-01-02 15:04:05"), ended)
	}
	return nil
}

func replayCmd(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	path := fs.String("db", "carsim_sessions.db", "session database")
	if err := fs.Parse(args); err != nil {
		return parseErr(err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: replay: expected one session id", errUsage)
	}
	id, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		return fmt.Errorf("%w: replay: bad session id %q: %w", errUsage, fs.Arg(0), err)
	}

	db, err := recorder.OpenDB(*path)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	snaps, err := recorder.Replay(db, uint(id))
	if err != nil {
		return err
	}
	for _, s := range snaps {
		fmt.Fprintf(out, "%6d %s\n", s.Frame, s)
	}
	return nil
}
