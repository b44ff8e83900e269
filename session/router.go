package session

import (
	"sort"

	"rifflynx/debug"
	"rifflynx/notes"
)

// NoteOn routes a key press. velocity is the raw MIDI velocity.
func (s *Session) NoteOn(number int, velocity uint8) {
	s.do(func() { s.noteOn(number, float64(velocity)/127) })
}

// NoteOff routes a key release
func (s *Session) NoteOff(number int) {
	s.do(func() { s.noteOff(number) })
}

func (s *Session) noteOn(number int, velocity float64) {
	name, ok := notes.Name(number)
	if !ok {
		debug.Log("input", "ignoring note %d outside keyboard range", number)
		return
	}
	ev := notes.Event{
		Time:     s.clock.Now(),
		Name:     name,
		Number:   number,
		Velocity: velocity,
		Kind:     notes.On,
	}

	s.held.Add(name)
	s.engine.Attack([]string{name}, s.engine.Now(), velocity)
	s.remember(ev)

	switch {
	case s.machine.AddNote(name):
	case s.composerFocused:
		s.pending = append(s.pending, ev)
		s.armDebounce()
	}
}

func (s *Session) noteOff(number int) {
	name, ok := notes.Name(number)
	if !ok {
		return
	}
	s.held.Remove(name)
	s.engine.Release([]string{name}, s.engine.Now()+s.cfg.ReleaseOffset.Seconds())
}

// remember appends to the rolling history and re-arms the idle clear
func (s *Session) remember(ev notes.Event) {
	gen := s.history.Append(ev, ev.Time)
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = s.after(s.history.Idle(), func() {
		if s.history.ClearIfIdle(gen) {
			debug.Log("input", "history cleared after %s idle", s.history.Idle())
		}
	})
}

func (s *Session) armDebounce() {
	s.debounceGen++
	gen := s.debounceGen
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = s.after(s.cfg.Debounce, func() {
		if gen == s.debounceGen {
			s.flushComposer()
		}
	})
}

// flushComposer writes the grouped notes into the composition text
func (s *Session) flushComposer() {
	if len(s.pending) == 0 {
		return
	}
	sort.SliceStable(s.pending, func(i, j int) bool {
		return s.pending[i].Time.Before(s.pending[j].Time)
	})
	names := make([]string, len(s.pending))
	for i, ev := range s.pending {
		names[i] = ev.Name
	}
	s.pending = nil

	formatted := notes.FormatGroup(names)
	if s.composition == "" {
		s.composition = formatted
	} else {
		s.composition += " " + formatted
	}
	s.compositionRev++
}

// SetComposerFocus tracks whether played notes go into the text composer.
// Losing focus drops notes not yet written.
func (s *Session) SetComposerFocus(focused bool) {
	s.do(func() {
		s.composerFocused = focused
		if focused {
			return
		}
		s.pending = nil
		s.debounceGen++
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
	})
}

// SetComposition mirrors the composer text as the user edits it
func (s *Session) SetComposition(text string) {
	s.do(func() { s.composition = text })
}
