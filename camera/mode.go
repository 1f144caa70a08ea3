package camera

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidViewMode = errors.New("camera: invalid view mode")

// ViewMode selects how the camera frames the chassis.
type ViewMode int

const (
	None ViewMode = iota
	ThirdPerson
	Front
	Driver
)

var modeNames = [...]string{"none", "third_person", "front", "driver"}

func (m ViewMode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return "view_mode(" + strconv.Itoa(int(m)) + ")"
}

func (m ViewMode) Valid() bool {
	return m >= None && m <= Driver
}

// Next cycles None, ThirdPerson, Front, Driver and back to None.
func (m ViewMode) Next() ViewMode {
	if !m.Valid() {
		return None
	}
	return (m + 1) % ViewMode(len(modeNames))
}

// ParseViewMode accepts 0-3 or a mode name ("third_person", "ThirdPerson",
// "third-person").
func ParseViewMode(s string) (ViewMode, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		m := ViewMode(n)
		if !m.Valid() {
			return None, fmt.Errorf("%w: %d", ErrInvalidViewMode, n)
		}
		return m, nil
	}
	key := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(s))
	for i, name := range modeNames {
		if strings.ReplaceAll(name, "_", "") == key {
			return ViewMode(i), nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
}

func (m ViewMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ViewMode) UnmarshalText(b []byte) error {
	parsed, err := ParseViewMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
