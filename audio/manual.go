package audio

import (
	"math"
	"sync"
	"sync/atomic"
)

// VoiceEvent is one recorded note on/off
type VoiceEvent struct {
	Time     float64
	Key      int
	On       bool
	Velocity float64
}

// Recorder is a Voice that remembers what it was asked to play
type Recorder struct {
	clock func() float64

	mu     sync.Mutex
	events []VoiceEvent
}

func (r *Recorder) NoteOn(key int, velocity float64) {
	r.mu.Lock()
	r.events = append(r.events, VoiceEvent{Time: r.clock(), Key: key, On: true, Velocity: velocity})
	r.mu.Unlock()
}

func (r *Recorder) NoteOff(key int) {
	r.mu.Lock()
	r.events = append(r.events, VoiceEvent{Time: r.clock(), Key: key})
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []VoiceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]VoiceEvent(nil), r.events...)
}

// ManualEngine only moves when told to. Callbacks fire synchronously inside
// Advance and AdvanceTo, which makes it the engine for deterministic tests
// and offline rendering.
type ManualEngine struct {
	base
	now atomic.Uint64 // float64 bits
	rec *Recorder
}

// NewManualEngine starts at audio time 0
func NewManualEngine() *ManualEngine {
	e := &ManualEngine{}
	e.rec = &Recorder{clock: e.load}
	e.base = newBase(e.load, e.rec)
	return e
}

func (e *ManualEngine) load() float64 {
	return math.Float64frombits(e.now.Load())
}

// AdvanceTo moves the clock forward to t, stopping at every queued event
// on the way so callbacks observe their own time. Moving backwards is ignored.
func (e *ManualEngine) AdvanceTo(t float64) {
	for {
		e.mu.Lock()
		next, ok := e.timeline.Next()
		e.mu.Unlock()
		if !ok || next > t {
			break
		}
		if next > e.load() {
			e.now.Store(math.Float64bits(next))
		}
		e.advance(e.load())
	}
	if t > e.load() {
		e.now.Store(math.Float64bits(t))
	}
}

// Advance moves the clock forward by d seconds
func (e *ManualEngine) Advance(d float64) {
	e.AdvanceTo(e.load() + d)
}

// Recorded returns the voice events seen so far
func (e *ManualEngine) Recorded() []VoiceEvent {
	return e.rec.Events()
}
