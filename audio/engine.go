// Package audio provides the sound engines behind playback. Every engine
// runs on its own audio clock, measured in seconds, and can schedule
// callbacks against it.
package audio

import (
	"sort"
	"sync"

	"rifflynx/notes"
)

// Engine is the sound engine contract used by the session and playback.
//
// Attack, Release and AttackRelease are direct note events: they are not
// removed by CancelScheduled, only by ReleaseAll. Schedule registers a
// transport callback that CancelScheduled drops if it has not fired yet.
// Callbacks run on the engine's own goroutine.
type Engine interface {
	Now() float64
	Attack(names []string, at, velocity float64)
	Release(names []string, at float64)
	AttackRelease(names []string, hold, at, velocity float64)
	ReleaseAll()
	Schedule(at float64, fn func())
	CancelScheduled()
}

// Voice is whatever actually makes sound for a key
type Voice interface {
	NoteOn(key int, velocity float64)
	NoteOff(key int)
}

// base implements Engine over a Voice and a lock-free clock function.
// Engines embed it and drive advance from their own time source.
type base struct {
	clock func() float64

	mu       sync.Mutex
	timeline Timeline
	voice    Voice
	sounding map[int]bool
}

func newBase(clock func() float64, voice Voice) base {
	return base{clock: clock, voice: voice, sounding: make(map[int]bool)}
}

func (b *base) Now() float64 { return b.clock() }

func keysOf(names []string) []int {
	keys := make([]int, 0, len(names))
	for _, name := range names {
		if n, ok := notes.Number(name); ok {
			keys = append(keys, n)
		}
	}
	return keys
}

func (b *base) Attack(names []string, at, velocity float64) {
	keys := keysOf(names)
	b.direct(at, func() { b.noteOn(keys, velocity) })
}

func (b *base) Release(names []string, at float64) {
	keys := keysOf(names)
	b.direct(at, func() { b.noteOff(keys) })
}

func (b *base) AttackRelease(names []string, hold, at, velocity float64) {
	keys := keysOf(names)
	b.direct(at, func() { b.noteOn(keys, velocity) })
	b.direct(at+hold, func() { b.noteOff(keys) })
}

// ReleaseAll silences every sounding key and drops pending direct note events
func (b *base) ReleaseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.timeline.CancelDirect()
	for key := range b.sounding {
		b.voice.NoteOff(key)
	}
	clear(b.sounding)
}

func (b *base) Schedule(at float64, fn func()) {
	b.mu.Lock()
	b.timeline.Add(at, true, fn)
	b.mu.Unlock()
}

func (b *base) CancelScheduled() {
	b.mu.Lock()
	b.timeline.CancelTransport()
	b.mu.Unlock()
}

// direct applies fn now when at has passed, otherwise queues it
func (b *base) direct(at float64, fn func()) {
	if at <= b.clock() {
		fn()
		return
	}
	b.mu.Lock()
	b.timeline.Add(at, false, fn)
	b.mu.Unlock()
}

func (b *base) noteOn(keys []int, velocity float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		if b.sounding[k] {
			b.voice.NoteOff(k)
		}
		b.voice.NoteOn(k, velocity)
		b.sounding[k] = true
	}
}

func (b *base) noteOff(keys []int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		if b.sounding[k] {
			b.voice.NoteOff(k)
			delete(b.sounding, k)
		}
	}
}

// advance fires everything due at or before now, outside the lock so
// callbacks may schedule more work.
func (b *base) advance(now float64) {
	for {
		b.mu.Lock()
		due := b.timeline.Due(now)
		b.mu.Unlock()
		if len(due) == 0 {
			return
		}
		for _, fn := range due {
			fn()
		}
	}
}

// Sounding lists the keys currently held by the engine, by name
func (b *base) Sounding() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]int, 0, len(b.sounding))
	for k := range b.sounding {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name, _ := notes.Name(k)
		out = append(out, name)
	}
	return out
}

// Pending reports how many events are still queued
func (b *base) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.timeline.Len()
}
