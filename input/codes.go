package input

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

// Code converts an ebiten key to the physical key code naming used by
// bindings. Letters gain a "Key" prefix; every other ebiten name already
// matches ("Digit1", "ArrowUp", "ShiftLeft", "Space").
func Code(k ebiten.Key) string {
	name := k.String()
	if len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z' {
		return "Key" + name
	}
	return name
}

// NormalizeCode accepts loosely written codes from config files and remote
// clients ("w", "keyw", "space", "arrowup") and returns the canonical form.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) == 1 {
		c := strings.ToUpper(s)
		if c[0] >= 'A' && c[0] <= 'Z' {
			return "Key" + c
		}
		if c[0] >= '0' && c[0] <= '9' {
			return "Digit" + c
		}
		return s
	}
	if canonical, ok := knownCodes[strings.ToLower(s)]; ok {
		return canonical
	}
	return s
}

var knownCodes = buildKnownCodes()

func buildKnownCodes() map[string]string {
	out := make(map[string]string)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		code := Code(k)
		if code == "" || strings.HasPrefix(code, "Key(") {
			continue
		}
		out[strings.ToLower(code)] = code
	}
	return out
}
