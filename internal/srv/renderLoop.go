package srv

import (
	"context"
	"fmt"
	"time"

	"github.com/jypelle/tempoled/internal/srv/event"
	"github.com/sirupsen/logrus"
)

// renderLoop is the only goroutine driving the engine. Each tick hands the
// wall time elapsed since the previous one to the scheduler.
func (s *ServerApp) renderLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.FrameInterval())
	defer ticker.Stop()

	var apiEvents chan event.ApiEvent
	if s.apiDevice != nil {
		apiEvents = s.apiDevice.EventChannel()
	}

	last := s.now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			frame := s.engine.Tick(now.Sub(last))
			last = now
			if frame.Skipped > 0 {
				logrus.Debugf("Render loop late, %d logic steps dropped", frame.Skipped)
			}
		case ev := <-apiEvents:
			s.handleApiEvent(ev)
		}
	}
}

func (s *ServerApp) handleApiEvent(ev event.ApiEvent) {
	var result event.ApiEventResult
	switch data := ev.Data.(type) {
	case event.ApiEventDisplaySwitchData:
		logrus.Debugf("Switch display on/off")
		result.DisplayOn = s.displayDevice.Switch()
	case event.ApiEventDisplayPowerData:
		if data.On {
			s.displayDevice.SetOn()
		} else {
			s.displayDevice.SetOff()
		}
		result.DisplayOn = s.displayDevice.IsOn()
	default:
		result.Err = fmt.Errorf("unexpected api event %T", ev.Data)
	}
	ev.Result <- result
}
