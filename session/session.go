// Package session owns all conversation, input and playback state and
// serializes every change to it through a single event loop.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"rifflynx/assistant"
	"rifflynx/audio"
	"rifflynx/buffer"
	"rifflynx/chat"
	"rifflynx/conversation"
	"rifflynx/debug"
	"rifflynx/notes"
	"rifflynx/playback"
	"rifflynx/transcript"
)

const inboxSize = 1024

// Snapshot is an immutable view of the session for presentation
type Snapshot struct {
	State           conversation.State
	Draft           conversation.Draft
	Held            []string
	Visualized      []string
	Messages        []chat.Message
	Recent          int // notes in the rolling history
	Composition     string
	CompositionRev  uint64 // bumped when the session itself rewrites Composition
	ComposerFocused bool
	DeviceStatus    string
	VoiceStatus     string
}

// Session is the single owner of session state. Public methods are safe to
// call from any goroutine; they enqueue work for Run.
type Session struct {
	cfg      Config
	clock    clockwork.Clock
	engine   audio.Engine
	provider assistant.Provider

	// loop-owned state
	ctx     context.Context
	machine *conversation.Machine
	interp  *transcript.Interpreter
	history *buffer.Buffer
	player  *playback.Scheduler
	log     chat.Log
	held    notes.Set

	idleTimer clockwork.Timer

	composition     string
	compositionRev  uint64
	composerFocused bool
	pending         []notes.Event
	debounceTimer   clockwork.Timer
	debounceGen     uint64

	animTimer clockwork.Timer
	animGen   uint64

	deviceStatus string
	voiceStatus  string

	inbox   chan func()
	done    chan struct{}
	snap    atomic.Pointer[Snapshot]
	updates chan struct{}
}

// New creates a session. provider may be nil, in which case every query
// fails with a message in the chat.
func New(cfg Config, engine audio.Engine, provider assistant.Provider, clock clockwork.Clock) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Session{
		cfg:          cfg,
		clock:        clock,
		engine:       engine,
		provider:     provider,
		ctx:          context.Background(),
		machine:      conversation.NewMachine(cfg.FallbackQuery),
		interp:       transcript.New(cfg.ActivationWords, cfg.ConfirmationWords),
		history:      buffer.New(cfg.Window, cfg.Idle),
		held:         notes.NewSet(),
		deviceStatus: "No MIDI devices. Please connect one.",
		voiceStatus:  "voice off",
		inbox:        make(chan func(), inboxSize),
		done:         make(chan struct{}),
		updates:      make(chan struct{}, 1),
	}
	s.player = playback.New(engine, s.post, s.publish, cfg.Playback)
	s.log.Append(chat.NewMessage(chat.Assistant, clock.Now(), chat.TextPart(Greeting)))
	s.publish()
	return s
}

// Run processes events until ctx is done
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx
	defer close(s.done)
	defer s.shutdown()

	debug.Log("session", "loop started")
	for {
		select {
		case <-ctx.Done():
			debug.Log("session", "loop stopped")
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

func (s *Session) shutdown() {
	for _, t := range []clockwork.Timer{s.idleTimer, s.debounceTimer, s.animTimer} {
		if t != nil {
			t.Stop()
		}
	}
	s.player.Stop()
}

// post queues fn for the loop. Dropped once the loop has exited.
func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.done:
	}
}

// do queues fn and publishes a snapshot after it runs
func (s *Session) do(fn func()) {
	s.post(func() {
		fn()
		s.publish()
	})
}

// barrier returns once everything queued before it has been handled
func (s *Session) barrier() {
	reached := make(chan struct{})
	s.post(func() { close(reached) })
	select {
	case <-reached:
	case <-s.done:
	}
}

// after runs fn on the loop once d of wall time has passed
func (s *Session) after(d time.Duration, fn func()) clockwork.Timer {
	return s.clock.AfterFunc(d, func() { s.do(fn) })
}

// Snapshot returns the latest published state
func (s *Session) Snapshot() Snapshot {
	return *s.snap.Load()
}

// Updates signals (coalesced) that a new snapshot is available
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) publish() {
	snap := &Snapshot{
		State:           s.machine.State(),
		Draft:           s.machine.Draft(),
		Held:            s.held.Sorted(),
		Visualized:      s.player.Visualized(),
		Messages:        s.log.Messages(),
		Recent:          s.history.Len(),
		Composition:     s.composition,
		CompositionRev:  s.compositionRev,
		ComposerFocused: s.composerFocused,
		DeviceStatus:    s.deviceStatus,
		VoiceStatus:     s.voiceStatus,
	}
	s.snap.Store(snap)

	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// SetDeviceStatus shows the MIDI connection status
func (s *Session) SetDeviceStatus(status string) {
	s.do(func() { s.deviceStatus = status })
}

// SetVoiceStatus shows the speech recognizer status
func (s *Session) SetVoiceStatus(status string) {
	s.do(func() { s.voiceStatus = status })
}

// Preview sounds and highlights the first step of a sequence. A reply
// still animating is finished first.
func (s *Session) Preview(steps [][]string) {
	s.do(func() {
		s.complete()
		s.player.Preview(steps)
	})
}

// PlaySequence plays a whole sequence, replacing any current playback and
// finishing a reply still animating
func (s *Session) PlaySequence(steps [][]string) {
	s.do(func() {
		s.complete()
		s.player.Play(steps)
	})
}

// StopPlayback silences playback and clears the highlight
func (s *Session) StopPlayback() {
	s.do(func() {
		s.complete()
		s.player.Stop()
	})
}
