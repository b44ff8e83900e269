// Package playback turns note sequences into sound and matching visual
// highlights, both timed on the audio engine's clock.
package playback

import (
	"time"

	"rifflynx/audio"
	"rifflynx/debug"
	"rifflynx/notes"
)

// Config holds playback timing. Hold and Step are in units; a unit is one
// 4/4 bar, UnitSeconds long at the session tempo.
type Config struct {
	UnitSeconds     float64
	Hold            float64
	Step            float64
	PreviewFraction float64
	Velocity        float64
	MinDuration     time.Duration
}

// DefaultConfig is 120 BPM with the standard hold and step
func DefaultConfig() Config {
	return Config{
		UnitSeconds:     2,
		Hold:            0.8,
		Step:            1.0,
		PreviewFraction: 0.95,
		Velocity:        0.8,
		MinDuration:     500 * time.Millisecond,
	}
}

// Scheduler plays at most one sequence at a time. All methods must be called
// from the session loop; audio-clock callbacks come back through post, and
// any that belong to a cancelled playback are ignored.
type Scheduler struct {
	engine   audio.Engine
	post     func(func())
	onChange func()
	cfg      Config

	gen    uint64
	visual notes.Set
}

// New creates a scheduler. post must run fn on the session loop. onChange is
// called on the loop whenever the visualized set changes; it may be nil.
func New(engine audio.Engine, post func(func()), onChange func(), cfg Config) *Scheduler {
	if onChange == nil {
		onChange = func() {}
	}
	return &Scheduler{
		engine:   engine,
		post:     post,
		onChange: onChange,
		cfg:      cfg,
		visual:   notes.NewSet(),
	}
}

func (s *Scheduler) hold() float64 { return s.cfg.Hold * s.cfg.UnitSeconds }
func (s *Scheduler) step() float64 { return s.cfg.Step * s.cfg.UnitSeconds }

// Play cancels whatever is playing and schedules seq from the current audio
// time: each step sounds for the hold time and steps start one step apart.
// It returns the total length, never less than the configured minimum.
func (s *Scheduler) Play(seq [][]string) time.Duration {
	s.Stop()

	gen := s.gen
	now := s.engine.Now()
	t := now
	for _, step := range seq {
		step := append([]string(nil), step...)
		at := t

		s.engine.AttackRelease(step, s.hold(), at, s.cfg.Velocity)
		s.engine.Schedule(at, s.guarded(gen, func() {
			s.visual.Add(step...)
		}))
		s.engine.Schedule(at+s.hold(), s.guarded(gen, func() {
			s.visual.Remove(step...)
		}))
		t += s.step()
	}

	total := time.Duration((t - now) * float64(time.Second))
	if total <= 0 {
		total = s.cfg.MinDuration
	}
	debug.Log("playback", "play gen=%d steps=%d total=%s", gen, len(seq), total)
	return total
}

// guarded wraps a visual update so it runs on the loop and only for gen
func (s *Scheduler) guarded(gen uint64, apply func()) func() {
	return func() {
		s.post(func() {
			if gen != s.gen {
				return
			}
			apply()
			s.onChange()
		})
	}
}

// Preview stops any playback, then sounds the first step once and highlights
// it. The highlight clears itself shortly before the note ends unless
// something else has replaced it.
func (s *Scheduler) Preview(seq [][]string) {
	if len(seq) == 0 || len(seq[0]) == 0 {
		return
	}
	s.Stop()
	step := append([]string(nil), seq[0]...)
	now := s.engine.Now()

	s.engine.AttackRelease(step, s.hold(), now, s.cfg.Velocity)
	s.visual = notes.NewSet(step...)
	s.onChange()

	shown := notes.NewSet(step...)
	s.engine.Schedule(now+s.hold()*s.cfg.PreviewFraction, func() {
		s.post(func() {
			if !s.visual.Equal(shown) {
				return
			}
			s.visual.Clear()
			s.onChange()
		})
	})
}

// Stop silences the engine, drops pending callbacks and clears the
// highlight. Safe to call any number of times.
func (s *Scheduler) Stop() {
	s.gen++
	s.engine.CancelScheduled()
	s.engine.ReleaseAll()
	if len(s.visual) > 0 {
		s.visual.Clear()
		s.onChange()
	}
}

// Visualized returns the highlighted note names, lowest first
func (s *Scheduler) Visualized() []string {
	return s.visual.Sorted()
}
