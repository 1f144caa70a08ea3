package assets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed models/*.yaml
var modelsFS embed.FS

// Dir is checked before the embedded models so edited files take effect
// without a rebuild.
var Dir = filepath.Join("assets", "models")

var (
	cacheMu sync.Mutex
	cache   = map[string]*Model{}
)

// LoadFile reads a model file by name, preferring the on-disk copy.
func LoadFile(name string) ([]byte, error) {
	clean := cleanModelPath(name)
	if data, err := os.ReadFile(filepath.Join(Dir, clean)); err == nil {
		return data, nil
	}
	return modelsFS.ReadFile("models/" + clean)
}

// LoadModel returns the cached template for name, parsing it on first use.
// Callers must not mutate the result; use LoadVehicleParts or Clone.
func LoadModel(name string) (*Model, error) {
	clean := cleanModelPath(name)

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if m, ok := cache[clean]; ok {
		return m, nil
	}

	data, err := LoadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("assets: load %s: %w", clean, err)
	}
	m, err := ParseModel(strings.TrimSuffix(clean, filepath.Ext(clean)), data)
	if err != nil {
		return nil, err
	}
	cache[clean] = m
	return m, nil
}

// LoadVehicleParts loads a vehicle model and returns deep copies of its body
// and four wheels.
func LoadVehicleParts(name string) (*VehicleParts, error) {
	m, err := LoadModel(name)
	if err != nil {
		return nil, err
	}
	return m.VehicleParts()
}

// Invalidate drops the cached template so the next load rereads it.
func Invalidate(name string) {
	cacheMu.Lock()
	delete(cache, cleanModelPath(name))
	cacheMu.Unlock()
}

func cleanModelPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if idx := strings.LastIndex(s, "models/"); idx >= 0 {
		s = s[idx+len("models/"):]
	}
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}
