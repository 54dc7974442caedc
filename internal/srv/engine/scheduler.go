package engine

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Frame describes what one Advance call did.
type Frame struct {
	Steps    int
	Skipped  int
	Residual time.Duration
	// Alpha is Residual expressed as a fraction of a logic step, in [0, 1).
	Alpha float64
}

// Scheduler runs logic steps of a fixed duration whatever the frame time is.
type Scheduler struct {
	step     time.Duration
	maxSteps int

	lag           time.Duration
	statusElapsed time.Duration
}

// NewScheduler returns a scheduler stepping every step. maxSteps caps the
// number of steps run in a single Advance, 0 disables the cap.
func NewScheduler(step time.Duration, maxSteps int) *Scheduler {
	return &Scheduler{step: step, maxSteps: maxSteps}
}

func (s *Scheduler) Step() time.Duration {
	return s.step
}

// Lag is the real time not consumed by logic steps yet.
func (s *Scheduler) Lag() time.Duration {
	return s.lag
}

// Advance accounts elapsed and calls step once per whole logic step pending.
// Past the cap the remaining whole steps are dropped and only the fraction of
// a step is carried over.
func (s *Scheduler) Advance(elapsed time.Duration, step func()) Frame {
	if elapsed < 0 {
		elapsed = 0
	}
	s.lag += elapsed
	s.statusElapsed += elapsed

	var frame Frame
	for s.lag >= s.step {
		if s.maxSteps > 0 && frame.Steps >= s.maxSteps {
			frame.Skipped = int(s.lag / s.step)
			s.lag %= s.step
			logrus.Debugf("Scheduler behind, %d logic steps skipped", frame.Skipped)
			break
		}
		step()
		s.lag -= s.step
		frame.Steps++
	}

	frame.Residual = s.lag
	frame.Alpha = float64(s.lag) / float64(s.step)
	return frame
}

// StatusDue reports whether period elapsed since the last status refresh and
// restarts the count if so.
func (s *Scheduler) StatusDue(period time.Duration) bool {
	if s.statusElapsed < period {
		return false
	}
	s.statusElapsed = 0
	return true
}
