package speech

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"rifflynx/debug"
)

// Status is the supervisor's view of voice input
type Status int

const (
	Stopped Status = iota
	Running
	Restarting
	Disabled
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Restarting:
		return "restarting"
	case Disabled:
		return "disabled"
	}
	return "stopped"
}

// Options configures a Supervisor. Zero values get defaults.
type Options struct {
	RestartDelay time.Duration
	// RestartBurst restarts may happen back to back before the limiter
	// spaces them one second apart
	RestartBurst int
	Clock        clockwork.Clock
	// OnStatus is called from the supervisor goroutine on every change
	OnStatus func(Status, error)
}

// Supervisor keeps a Recognizer running. Benign ends restart it after a
// fixed delay; a fatal error disables it until Reset.
type Supervisor struct {
	rec     Recognizer
	opts    Options
	limiter *rate.Limiter
	out     chan string
	reset   chan struct{}

	mu      sync.Mutex
	status  Status
	lastErr error
}

func NewSupervisor(rec Recognizer, opts Options) *Supervisor {
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = 300 * time.Millisecond
	}
	if opts.RestartBurst <= 0 {
		opts.RestartBurst = 3
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.OnStatus == nil {
		opts.OnStatus = func(Status, error) {}
	}
	return &Supervisor{
		rec:     rec,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(time.Second), opts.RestartBurst),
		out:     make(chan string, 16),
		reset:   make(chan struct{}, 1),
	}
}

// Transcripts delivers finalized transcripts
func (s *Supervisor) Transcripts() <-chan string { return s.out }

// Status returns the current state and the error that caused it, if any
func (s *Supervisor) Status() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

func (s *Supervisor) setStatus(st Status, err error) {
	s.mu.Lock()
	s.status = st
	s.lastErr = err
	s.mu.Unlock()
	s.opts.OnStatus(st, err)
}

// Reset re-enables a disabled supervisor. Has no effect otherwise.
func (s *Supervisor) Reset() {
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

// Run supervises recognition until ctx is done
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setStatus(Stopped, nil)

	for {
		// a Reset sent while running means nothing
		select {
		case <-s.reset:
		default:
		}

		s.setStatus(Running, nil)
		err := s.rec.Listen(ctx, s.out)
		if ctx.Err() != nil {
			return nil
		}

		if !IsBenign(err) {
			debug.Error("speech", err, debug.Fields{"action": "disable"})
			s.setStatus(Disabled, err)
			select {
			case <-ctx.Done():
				return nil
			case <-s.reset:
				debug.Log("speech", "reset after %v", err)
				continue
			}
		}

		if err != nil {
			debug.Log("speech", "benign end: %v", err)
		}
		s.setStatus(Restarting, err)
		select {
		case <-ctx.Done():
			return nil
		case <-s.opts.Clock.After(s.opts.RestartDelay):
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}
	}
}
