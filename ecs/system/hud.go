package system

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/carsim/assets"
	"github.com/milk9111/carsim/camera"
	"github.com/milk9111/carsim/ecs"
	"github.com/milk9111/carsim/ecs/component"
	"github.com/rs/zerolog"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

// HUD draws the debug overlay and copies the current pose to the clipboard.
type HUD struct {
	Visible bool

	log      zerolog.Logger
	clipOnce sync.Once
	clipErr  error
	write    func(string) error
	notice   string
	// noticeFrames counts down the frames the notice stays on screen.
	noticeFrames int
}

const noticeFrames = 120

func NewHUD(log zerolog.Logger) *HUD {
	h := &HUD{Visible: true, log: log.With().Str("system", "hud").Logger()}
	h.write = h.writeClipboard
	return h
}

func (h *HUD) writeClipboard(s string) error {
	h.clipOnce.Do(func() {
		h.clipErr = clipboard.Init()
	})
	if h.clipErr != nil {
		return h.clipErr
	}
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}

// CopyPose writes the chassis and camera pose to the clipboard and returns
// the copied text.
func (h *HUD) CopyPose(w *ecs.World) (string, error) {
	s := PoseText(w)
	if s == "" {
		return "", fmt.Errorf("hud: nothing to copy")
	}
	if err := h.write(s); err != nil {
		h.log.Warn().Err(err).Msg("clipboard unavailable")
		return "", err
	}
	h.Notify("pose copied")
	return s, nil
}

// Notify shows msg under the overlay for a couple of seconds.
func (h *HUD) Notify(msg string) {
	h.notice = msg
	h.noticeFrames = noticeFrames
}

// Notice returns the message currently shown, if any.
func (h *HUD) Notice() string {
	if h.noticeFrames <= 0 {
		return ""
	}
	return h.notice
}

// Update turns this frame's events into notices. It runs last in the
// scheduler so every event of the frame is visible.
func (h *HUD) Update(w *ecs.World) {
	if h == nil || w == nil {
		return
	}
	if h.noticeFrames > 0 {
		h.noticeFrames--
	}
	if len(w.Events().Peek(ecs.EventVehicleReset)) > 0 {
		h.Notify("vehicle reset")
	}
	for _, evt := range w.Events().Peek(ecs.EventPartsReloaded) {
		if parts, ok := evt.Data.(*assets.VehicleParts); ok {
			h.Notify("model " + parts.Asset + " reloaded")
		}
	}
	for _, evt := range w.Events().Peek(ecs.EventViewModeChanged) {
		if mode, ok := evt.Data.(camera.ViewMode); ok {
			h.Notify("view " + mode.String())
		}
	}
}

// PoseText formats the chassis position and camera pose as YAML fragments
// that can be pasted into the prefabs.
func PoseText(w *ecs.World) string {
	var b strings.Builder
	if e, ok := w.First(component.ChassisTagComponent.Kind()); ok {
		if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
			fmt.Fprintf(&b, "position: [%.2f, %.2f, %.2f]\n", t.Position.X(), t.Position.Y(), t.Position.Z())
		}
	}
	if e, ok := w.First(component.CameraComponent.Kind()); ok {
		if cam, ok := ecs.Get(w, e, component.CameraComponent); ok && cam.Camera != nil {
			p, t := cam.Camera.Position, cam.Camera.Target
			fmt.Fprintf(&b, "camera:\n  position: [%.2f, %.2f, %.2f]\n  target: [%.2f, %.2f, %.2f]\n",
				p.X(), p.Y(), p.Z(), t.X(), t.Y(), t.Z())
		}
	}
	return b.String()
}

// Lines returns the overlay text for w.
func (h *HUD) Lines(w *ecs.World) []string {
	snap, ok := Snapshot(w)
	if !ok {
		return []string{"no vehicle"}
	}
	lines := []string{
		fmt.Sprintf("%s  %.1f km/h  wheels down %d", snap.Vehicle, snap.Speed*3.6, snap.Contacts),
		fmt.Sprintf("pos %.2f %.2f %.2f", snap.Position[0], snap.Position[1], snap.Position[2]),
		"view " + snap.View + "  [C] cycle  [Esc] menu  [F1] hud  [F2] copy pose",
	}
	if len(snap.Keys) > 0 {
		lines = append(lines, "keys "+strings.Join(snap.Keys, " "))
	}
	for i := 0; i < len(snap.Commands); i += 4 {
		end := min(i+4, len(snap.Commands))
		prefix := "     "
		if i == 0 {
			prefix = "last "
		}
		lines = append(lines, prefix+strings.Join(snap.Commands[i:end], " "))
	}
	return lines
}

func (h *HUD) Draw(w *ecs.World, screen *ebiten.Image) {
	if h == nil || w == nil || screen == nil {
		return
	}

	y := 8.0
	if h.Visible {
		for _, line := range h.Lines(w) {
			op := &text.DrawOptions{}
			op.GeoM.Translate(10, y)
			op.ColorScale.ScaleWithColor(color.White)
			text.Draw(screen, line, hudFace, op)
			y += 16
		}
	}

	if msg := h.Notice(); msg != "" {
		ebitenutil.DebugPrintAt(screen, msg, 10, int(y)+4)
	}
}
