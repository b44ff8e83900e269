package session

import (
	"context"
	"errors"
	"fmt"

	"rifflynx/assistant"
	"rifflynx/chat"
	"rifflynx/conversation"
	"rifflynx/debug"
	"rifflynx/transcript"
)

var errNoProvider = errors.New("no assistant is configured")

// Transcript handles one finalized speech transcript
func (s *Session) Transcript(text string) {
	s.do(func() { s.transcript(text) })
}

func (s *Session) transcript(text string) {
	cmd := s.interp.Interpret(text, s.machine.State() == conversation.Listening)
	switch cmd.Kind {
	case transcript.Activate:
		from := s.machine.State()
		if s.machine.Activate() {
			s.interrupt()
		}
		debug.Breadcrumb("conversation", fmt.Sprintf("%s -> %s", from, s.machine.State()), nil)
	case transcript.Confirm:
		if d, ok := s.machine.Confirm(); ok {
			s.send(d)
		}
	case transcript.Dictate:
		s.machine.Dictate(cmd.Text)
	}
}

// interrupt cancels playback and any reply in progress
func (s *Session) interrupt() {
	s.player.Stop()
	s.stopAnimation()
}

// Submit sends typed text. Ignored while a question is pending or when blank.
func (s *Session) Submit(text string) {
	s.do(func() {
		d, ok := s.machine.Submit(text)
		if !ok {
			return
		}
		s.interrupt()
		s.composition = ""
		s.compositionRev++
		s.pending = nil
		s.send(d)
	})
}

// send logs the question and asks the assistant in the background. The
// answer comes back to the loop tagged with the dispatch ticket.
func (s *Session) send(d conversation.Dispatch) {
	now := s.clock.Now()
	s.log.Append(chat.NewMessage(chat.User, now, chat.TextPart(d.Query)))
	debug.Log("conversation", "dispatch ticket=%d query=%q", d.Ticket, d.Query)

	q := assistant.Query{Text: d.Query, History: s.history.Events(), Now: now}
	provider := s.provider
	parent := s.ctx
	timeout := s.cfg.QueryTimeout

	go func() {
		var parts []chat.Part
		err := errNoProvider
		if provider != nil {
			ctx, cancel := context.WithTimeout(parent, timeout)
			parts, err = provider.Ask(ctx, q)
			if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("no reply within %s", timeout)
			}
			cancel()
		}
		s.do(func() { s.resolve(d.Ticket, parts, err) })
	}()
}

func (s *Session) resolve(ticket uint64, parts []chat.Part, err error) {
	now := s.clock.Now()
	if err != nil {
		if !s.machine.Fail(ticket) {
			debug.Log("conversation", "dropping stale failure ticket=%d: %v", ticket, err)
			return
		}
		debug.Error("assistant", err, debug.Fields{"ticket": ticket})
		s.log.Append(chat.NewMessage(chat.Assistant, now,
			chat.TextPart("Sorry, I couldn't get an answer: "+err.Error())))
		return
	}
	if !s.machine.Resolve(ticket) {
		debug.Log("conversation", "dropping stale reply ticket=%d", ticket)
		return
	}
	msg := chat.NewMessage(chat.Assistant, now, parts...)
	s.log.Append(msg)
	s.animate(msg.Parts)
}

// animate plays the reply part by part: notes parts on the audio engine,
// text parts as a reading pause. Then the reply is complete.
func (s *Session) animate(parts []chat.Part) {
	s.stopAnimation()
	gen := s.animGen

	var step func(i int)
	step = func(i int) {
		if gen != s.animGen {
			return
		}
		if i >= len(parts) {
			s.complete()
			return
		}
		wait := s.cfg.ReadingDelay
		if p := parts[i]; p.Kind == chat.Notes && len(p.Steps) > 0 {
			wait = s.player.Play(p.Steps)
		}
		s.animTimer = s.after(wait, func() { step(i + 1) })
	}
	step(0)
}

func (s *Session) stopAnimation() {
	s.animGen++
	if s.animTimer != nil {
		s.animTimer.Stop()
		s.animTimer = nil
	}
}

func (s *Session) complete() {
	s.stopAnimation()
	if s.machine.Complete() {
		debug.Breadcrumb("conversation", "replying -> idle", nil)
	}
}

// AnimationComplete ends the reply early, as when the presentation has
// finished showing it
func (s *Session) AnimationComplete() {
	s.do(s.complete)
}
