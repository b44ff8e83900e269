package audio

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

type nopVoice struct{}

func (nopVoice) NoteOn(int, float64) {}
func (nopVoice) NoteOff(int)         {}

// SilentEngine keeps wall-clock time and fires callbacks from a ticker
// without producing sound. Used with --no-audio or when no soundfont is set.
type SilentEngine struct {
	base
	clock clockwork.Clock
	start time.Time
	tick  time.Duration
}

// NewSilentEngine creates an engine whose audio time is the wall time
// elapsed since creation
func NewSilentEngine(clock clockwork.Clock) *SilentEngine {
	e := &SilentEngine{clock: clock, start: clock.Now(), tick: 10 * time.Millisecond}
	e.base = newBase(e.elapsed, nopVoice{})
	return e
}

func (e *SilentEngine) elapsed() float64 {
	return e.clock.Since(e.start).Seconds()
}

// Run fires due callbacks until ctx is done
func (e *SilentEngine) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			e.advance(e.elapsed())
		}
	}
}
