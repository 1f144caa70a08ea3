package wheels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/carsim/physics"
)

var ErrScript = errors.New("wheels: layout script")

const scriptTimeout = time.Second

// ScriptLayout runs a tengo script that receives width, height, length and
// radius and must define `wheels`: an array of maps with x, y, z and
// optionally front, radius, stiffness, rest_length, friction_slip and
// roll_influence.
func ScriptLayout(ctx context.Context, src []byte, width, height, length, radius float64) ([]physics.WheelInfo, error) {
	script := tengo.NewScript(src)
	for name, v := range map[string]float64{"width": width, "height": height, "length": length, "radius": radius} {
		if err := script.Add(name, v); err != nil {
			return nil, fmt.Errorf("%w: add %s: %v", ErrScript, name, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %v", ErrScript, err)
	}

	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if err := compiled.RunContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: run: %v", ErrScript, err)
	}
	if !compiled.IsDefined("wheels") {
		return nil, fmt.Errorf("%w: script does not define wheels", ErrScript)
	}

	raw := compiled.Get("wheels").Array()
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: wheels must be a non-empty array", ErrScript)
	}

	infos := make([]physics.WheelInfo, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: wheel %d is %T, want map", ErrScript, i, item)
		}
		info, err := wheelFromMap(m, radius)
		if err != nil {
			return nil, fmt.Errorf("%w: wheel %d: %v", ErrScript, i, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func wheelFromMap(m map[string]any, radius float64) (physics.WheelInfo, error) {
	var point mgl64.Vec3
	for axis, key := range []string{"x", "y", "z"} {
		v, ok := number(m[key])
		if !ok {
			return physics.WheelInfo{}, fmt.Errorf("missing numeric %q", key)
		}
		point[axis] = v
	}

	if r, ok := number(m["radius"]); ok {
		radius = r
	}
	info := Defaults(radius)
	info.ConnectionPoint = point
	if front, ok := m["front"].(bool); ok {
		info.Front = front
	}
	if v, ok := number(m["stiffness"]); ok {
		info.SuspensionStiffness = v
	}
	if v, ok := number(m["rest_length"]); ok {
		info.SuspensionRestLength = v
	}
	if v, ok := number(m["friction_slip"]); ok {
		info.FrictionSlip = v
	}
	if v, ok := number(m["roll_influence"]); ok {
		info.RollInfluence = v
	}
	return info, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
