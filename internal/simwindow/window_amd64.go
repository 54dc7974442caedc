package simwindow

import (
	"image"

	"gioui.org/app"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"github.com/sirupsen/logrus"
)

// Window mirrors the OLED panel in a desktop window.
type Window struct {
	window *app.Window
	frames func() image.Image
}

// Open shows a window twice the panel size, painting frames() on each
// invalidation.
func Open(title string, width, height int, frames func() image.Image) *Window {
	w := &Window{
		window: app.NewWindow(
			app.Title(title),
			app.Size(unit.Px(float32(2*width)), unit.Px(float32(2*height))),
			app.MinSize(unit.Px(float32(width)), unit.Px(float32(height)))),
		frames: frames,
	}
	go func() {
		if err := w.loop(); err != nil {
			logrus.Warnf("Simulation window closed: %v", err)
		}
	}()
	go app.Main()
	return w
}

func (w *Window) Invalidate() {
	w.window.Invalidate()
}

func (w *Window) Close() {
	w.window.Close()
}

func (w *Window) loop() error {
	var ops op.Ops
	for {
		e := <-w.window.Events()
		switch e := e.(type) {
		case system.DestroyEvent:
			return e.Err
		case system.FrameEvent:
			gtx := layout.NewContext(&ops, e)
			img := widget.Image{Src: paint.NewImageOp(w.frames()), Fit: widget.Contain}
			img.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
