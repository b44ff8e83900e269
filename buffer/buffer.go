// Package buffer keeps the rolling history of note events sent along with
// each question.
package buffer

import (
	"time"

	"rifflynx/notes"
)

// Buffer is a time-windowed event list. It is not safe for concurrent use;
// the session loop owns it.
type Buffer struct {
	window time.Duration
	idle   time.Duration
	events []notes.Event
	gen    uint64
}

// New creates a buffer keeping events younger than window, cleared entirely
// once idle has passed without an insertion.
func New(window, idle time.Duration) *Buffer {
	return &Buffer{window: window, idle: idle}
}

// Idle is the inactivity period after which the caller should call ClearIfIdle
func (b *Buffer) Idle() time.Duration { return b.idle }

// Append adds ev and drops events older than the window relative to now.
// The returned generation identifies this insertion for ClearIfIdle.
func (b *Buffer) Append(ev notes.Event, now time.Time) uint64 {
	b.events = append(b.events, ev)

	kept := b.events[:0]
	for _, e := range b.events {
		if now.Sub(e.Time) < b.window {
			kept = append(kept, e)
		}
	}
	b.events = kept

	b.gen++
	return b.gen
}

// ClearIfIdle empties the buffer when gen is still the latest insertion.
// An idle timer armed for an older insertion is a no-op.
func (b *Buffer) ClearIfIdle(gen uint64) bool {
	if gen != b.gen {
		return false
	}
	b.events = nil
	return true
}

// Clear drops everything
func (b *Buffer) Clear() {
	b.events = nil
}

// Events returns a copy of the buffered events in insertion order
func (b *Buffer) Events() []notes.Event {
	out := make([]notes.Event, len(b.events))
	copy(out, b.events)
	return out
}

// Len returns the number of buffered events
func (b *Buffer) Len() int { return len(b.events) }
