//go:build !amd64
// +build !amd64

package simwindow

import (
	"image"

	"github.com/sirupsen/logrus"
)

// Window is a no-op without a desktop build.
type Window struct{}

func Open(title string, width, height int, frames func() image.Image) *Window {
	logrus.Infof("No simulation window available on this platform")
	return &Window{}
}

func (w *Window) Invalidate() {}

func (w *Window) Close() {}
