package main

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/ebitenui/ebitenui"
	imageui "github.com/ebitenui/ebitenui/image"
	"github.com/ebitenui/ebitenui/widget"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/milk9111/carsim/camera"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	textColor   = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	activeColor = color.NRGBA{R: 0xff, G: 0xd7, B: 0x00, A: 0xff}
)

// NewPauseUI builds the centered pause menu: one button per camera view
// mode, then Resume and Quit. The current mode is highlighted.
func NewPauseUI(g *Game) *ebitenui.UI {
	panelImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x00, G: 0x00, B: 0x00, A: 200})
	btnImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 255})
	hoverImg := imageui.NewNineSliceColor(color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 255})

	var face ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
	titleFace := face
	if src, err := ebtext.NewGoTextFaceSource(bytes.NewReader(goregular.TTF)); err == nil {
		titleFace = &ebtext.GoTextFace{Source: src, Size: 24}
	}
	btnTextColor := &widget.ButtonTextColor{Idle: textColor}
	center := widget.WidgetOpts.LayoutData(widget.RowLayoutData{Position: widget.RowLayoutPositionCenter, Stretch: true})

	title := widget.NewText(
		widget.TextOpts.Text("Paused", &titleFace, textColor),
		widget.TextOpts.WidgetOpts(center),
	)
	where := widget.NewText(
		widget.TextOpts.Text("", &face, textColor),
		widget.TextOpts.WidgetOpts(center),
	)
	current := widget.NewText(
		widget.TextOpts.Text("", &face, activeColor),
		widget.TextOpts.WidgetOpts(center),
	)
	refresh := func(mode camera.ViewMode) {
		p := g.chassisPosition()
		where.Label = fmt.Sprintf("chassis at %.1f, %.1f, %.1f", p.X(), p.Y(), p.Z())
		current.Label = "camera: " + mode.String()
	}

	button := func(label string, onClick func()) *widget.Button {
		return widget.NewButton(
			widget.ButtonOpts.Image(&widget.ButtonImage{Idle: btnImg, Hover: hoverImg, Pressed: btnImg}),
			widget.ButtonOpts.Text(label, &face, btnTextColor),
			widget.ButtonOpts.WidgetOpts(center),
			widget.ButtonOpts.ClickedHandler(func(args *widget.ButtonClickedEventArgs) {
				onClick()
			}),
		)
	}

	panel := widget.NewContainer(
		widget.ContainerOpts.BackgroundImage(panelImg),
		widget.ContainerOpts.Layout(widget.NewRowLayout(
			widget.RowLayoutOpts.Direction(widget.DirectionVertical),
			widget.RowLayoutOpts.Spacing(10),
			widget.RowLayoutOpts.Padding(&widget.Insets{Top: 20, Bottom: 20, Left: 30, Right: 30}),
		)),
		widget.ContainerOpts.WidgetOpts(
			widget.WidgetOpts.MinSize(int(g.width)/3, int(g.height)/2),
			widget.WidgetOpts.LayoutData(widget.AnchorLayoutData{HorizontalPosition: widget.AnchorLayoutPositionCenter, VerticalPosition: widget.AnchorLayoutPositionCenter}),
		),
	)
	panel.AddChild(title)
	panel.AddChild(where)
	panel.AddChild(current)

	for _, mode := range []camera.ViewMode{camera.ThirdPerson, camera.Front, camera.Driver, camera.None} {
		label := mode.String()
		if mode == camera.None {
			label = "free (none)"
		}
		panel.AddChild(button(label, func() {
			g.SetViewMode(mode)
			refresh(mode)
		}))
	}
	panel.AddChild(button("Resume", func() { g.setPaused(false) }))
	panel.AddChild(button("Quit", func() { g.quit = true }))

	root := widget.NewContainer(
		widget.ContainerOpts.Layout(widget.NewAnchorLayout()),
	)
	root.AddChild(panel)

	refresh(g.ViewMode())
	g.onPause = func() { refresh(g.ViewMode()) }
	return &ebitenui.UI{Container: root}
}
