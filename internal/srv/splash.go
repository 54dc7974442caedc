package srv

import (
	"image/color"
	"time"

	"github.com/jypelle/tempoled/internal/srv/engine"
	"github.com/jypelle/tempoled/internal/version"
	"github.com/sirupsen/logrus"
)

var splashDuration = 2 * time.Second

var splashColor = color.RGBA{255, 255, 255, 255}

// Bitmap font glyph width
const glyphWidth = 6

// showSplash draws the name and version centered while the devices start.
func (s *ServerApp) showSplash() {
	lines := []string{"tempoled", version.AppVersion.String()}

	lineHeight := s.ServerParam.Engine.TextSize
	if lineHeight <= 0 {
		lineHeight = engine.DefaultTextSize
	}

	d := s.displayDevice
	d.Clear()
	top := (d.Height() - len(lines)*lineHeight) / 2
	for i, line := range lines {
		d.DrawText((d.Width()-len(line)*glyphWidth)/2, top+i*lineHeight, line, lineHeight, engine.TEXT_TRANSPARENT, splashColor)
	}
	if err := d.Present(); err != nil {
		logrus.Warnf("Unable to show splash screen: %v", err)
	}
	time.Sleep(splashDuration)
}
