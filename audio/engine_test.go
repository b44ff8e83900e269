package audio

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineOrdersByTimeThenInsertion(t *testing.T) {
	var tl Timeline
	var got []string
	add := func(at float64, transport bool, name string) {
		tl.Add(at, transport, func() { got = append(got, name) })
	}
	add(2, true, "c")
	add(1, false, "a")
	add(1, true, "b")
	add(3, false, "d")

	next, ok := tl.Next()
	require.True(t, ok)
	assert.Equal(t, 1.0, next)

	for _, fn := range tl.Due(2) {
		fn()
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 1, tl.Len())
}

func TestTimelineCancelKinds(t *testing.T) {
	var tl Timeline
	for i := 0; i < 4; i++ {
		tl.Add(float64(i), i%2 == 0, func() {})
	}
	tl.CancelTransport()
	assert.Equal(t, 2, tl.Len())
	tl.CancelDirect()
	assert.Equal(t, 0, tl.Len())
	_, ok := tl.Next()
	assert.False(t, ok)
}

func TestManualEngineAttackRelease(t *testing.T) {
	e := NewManualEngine()
	e.AttackRelease([]string{"C4", "E4"}, 1.6, 0, 0.8)
	assert.Equal(t, []string{"C4", "E4"}, e.Sounding())

	e.AdvanceTo(1.5)
	assert.Equal(t, []string{"C4", "E4"}, e.Sounding())

	e.AdvanceTo(2)
	assert.Empty(t, e.Sounding())

	rec := e.Recorded()
	require.Len(t, rec, 4)
	assert.Equal(t, VoiceEvent{Time: 0, Key: 60, On: true, Velocity: 0.8}, rec[0])
	assert.Equal(t, VoiceEvent{Time: 1.6, Key: 60}, rec[2])
}

func TestManualEngineIgnoresUnknownNames(t *testing.T) {
	e := NewManualEngine()
	e.Attack([]string{"H9", "A4"}, 0, 1)
	assert.Equal(t, []string{"A4"}, e.Sounding())
}

func TestScheduleAndCancel(t *testing.T) {
	e := NewManualEngine()
	var fired []float64
	for _, at := range []float64{0, 1, 2} {
		e.Schedule(at, func() { fired = append(fired, e.Now()) })
	}

	e.AdvanceTo(1)
	assert.Equal(t, []float64{0, 1}, fired)

	e.CancelScheduled()
	e.AdvanceTo(5)
	assert.Equal(t, []float64{0, 1}, fired)
}

func TestCancelScheduledKeepsDirectReleases(t *testing.T) {
	e := NewManualEngine()
	e.AttackRelease([]string{"C4"}, 1, 0, 0.8)
	e.CancelScheduled()
	e.AdvanceTo(1)
	assert.Empty(t, e.Sounding())
}

func TestReleaseAllDropsPendingNotes(t *testing.T) {
	e := NewManualEngine()
	e.Attack([]string{"C4"}, 0, 0.5)
	e.Attack([]string{"G4"}, 1, 0.5)
	e.ReleaseAll()
	assert.Empty(t, e.Sounding())

	e.AdvanceTo(2)
	assert.Empty(t, e.Sounding())
	assert.Zero(t, e.Pending())
}

func TestCallbacksMayScheduleMore(t *testing.T) {
	e := NewManualEngine()
	var order []string
	e.Schedule(1, func() {
		order = append(order, "first")
		e.Schedule(1, func() { order = append(order, "same time") })
		e.Schedule(1.5, func() { order = append(order, "later") })
	})
	e.AdvanceTo(2)
	assert.Equal(t, []string{"first", "same time", "later"}, order)
}

type fakeSynth struct {
	on  []int32
	off []int32
}

func (f *fakeSynth) ProcessMidiMessage(int32, int32, int32, int32) {}
func (f *fakeSynth) NoteOn(_, key, _ int32)                        { f.on = append(f.on, key) }
func (f *fakeSynth) NoteOff(_, key int32)                          { f.off = append(f.off, key) }
func (f *fakeSynth) Render(left, right []float32) {
	for i := range left {
		left[i], right[i] = 0.25, -0.25
	}
}

func TestSoundFontEngineClockFollowsRenderedFrames(t *testing.T) {
	synth := &fakeSynth{}
	e := newSoundFontEngine(synth, 1000)

	fired := false
	e.Schedule(0.1, func() { fired = true })
	e.Attack([]string{"C4"}, 0.15, 1)

	buf := make([]byte, 200*8)
	n, err := e.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.InDelta(t, 0.2, e.Now(), 1e-9)
	assert.False(t, fired)

	_, err = e.Read(buf)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, []int32{60}, synth.on)
}

func TestSilentEngineFiresOnTicks(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := NewSilentEngine(clock)

	fired := make(chan float64, 1)
	e.Schedule(0.05, func() { fired <- e.Now() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(60 * time.Millisecond)

	select {
	case at := <-fired:
		assert.InDelta(t, 0.06, at, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}
