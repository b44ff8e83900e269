package midi

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestDecodeNote(t *testing.T) {
	ev, ok := decodeNote(gomidi.NoteOn(1, 60, 100))
	require.True(t, ok)
	assert.Equal(t, NoteEvent{Note: 60, Velocity: 100, Channel: 1, On: true}, ev)

	ev, ok = decodeNote(gomidi.NoteOn(0, 60, 0))
	require.True(t, ok)
	assert.False(t, ev.On, "velocity 0 note-on is a release")

	ev, ok = decodeNote(gomidi.NoteOff(0, 62))
	require.True(t, ok)
	assert.Equal(t, uint8(62), ev.Note)
	assert.False(t, ev.On)

	_, ok = decodeNote(gomidi.ControlChange(0, 64, 127))
	assert.False(t, ok)
}

func TestKeyboardHandleForwardsNotes(t *testing.T) {
	kb, err := NewKeyboardController("Keystation 49", nil)
	require.NoError(t, err)

	kb.handle(gomidi.NoteOn(0, 64, 90), 0)
	kb.handle(gomidi.NoteOff(0, 64), 0)

	assert.Equal(t, NoteEvent{Note: 64, Velocity: 90, On: true}, <-kb.NoteEvents())
	assert.False(t, (<-kb.NoteEvents()).On)

	require.NoError(t, kb.Close())
	_, open := <-kb.NoteEvents()
	assert.False(t, open)
}

func TestLaunchpadPadPressAndRelease(t *testing.T) {
	var sent []gomidi.Message
	lp := newLaunchpad("Launchpad X LPX MIDI", func(m gomidi.Message) error {
		sent = append(sent, m)
		return nil
	})
	assert.Len(t, sent, 2, "programmer mode and brightness")

	lp.handle(gomidi.NoteOn(0, 11, 100), 0)
	lp.handle(gomidi.NoteOn(0, 11, 0), 0)
	lp.handle(gomidi.ControlChange(0, 91, 127), 0)
	lp.handle(gomidi.NoteOn(0, 5, 100), 0)

	assert.Equal(t, PadEvent{Row: 0, Col: 0, Velocity: 100}, <-lp.PadEvents())
	assert.Equal(t, PadEvent{Row: 0, Col: 0, Released: true}, <-lp.PadEvents())
	assert.Equal(t, PadEvent{Row: 8, Col: 0, Velocity: 127}, <-lp.PadEvents())
	select {
	case ev := <-lp.PadEvents():
		t.Fatalf("unexpected pad event %+v", ev)
	default:
	}
}

func TestLaunchpadLEDBatch(t *testing.T) {
	var sent []gomidi.Message
	lp := newLaunchpad("lp", func(m gomidi.Message) error {
		sent = append(sent, m)
		return nil
	})
	sent = nil

	require.NoError(t, lp.SetLEDBatch([]LEDUpdate{{Row: 1, Col: 2, Color: [3]uint8{255, 0, 0}}}))
	require.Len(t, sent, 1)

	var ch, key, vel uint8
	require.True(t, sent[0].GetNoteOn(&ch, &key, &vel))
	assert.Equal(t, uint8(23), key)
	assert.Equal(t, uint8(5), vel)
}

func TestNoteRowColMapping(t *testing.T) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 9; col++ {
			r, c := noteToRowCol(rowColToNote(row, col))
			assert.Equal(t, [2]int{row, col}, [2]int{r, c})
		}
	}
	r, _ := noteToRowCol(5)
	assert.Equal(t, -1, r)
	assert.Equal(t, uint8(91), rowColToNote(8, 0))
}

func TestMapRGBToLaunchpad(t *testing.T) {
	assert.Equal(t, uint8(0), mapRGBToLaunchpad([3]uint8{0, 0, 0}))
	assert.Equal(t, uint8(119), mapRGBToLaunchpad([3]uint8{250, 250, 250}))
	assert.Equal(t, uint8(21), mapRGBToLaunchpad([3]uint8{10, 240, 10}))
}

func TestGrid(t *testing.T) {
	g := Grid{Base: 48}
	assert.Equal(t, 48, g.NoteAt(0, 0))
	assert.Equal(t, 49, g.NoteAt(0, 1))
	assert.Equal(t, 53, g.NoteAt(1, 0))
	assert.Equal(t, 48+7+35, g.NoteAt(7, 7))

	// 55 (G3) sits at col 7 on row 0 and col 2 on row 1
	assert.Equal(t, [][2]int{{0, 7}, {1, 2}}, g.Cells(55))
	assert.Empty(t, g.Cells(47))

	ev, ok := g.PadNote(PadEvent{Row: 1, Col: 2, Velocity: 80})
	require.True(t, ok)
	assert.Equal(t, NoteEvent{Note: 55, Velocity: 80, On: true}, ev)

	ev, ok = g.PadNote(PadEvent{Row: 1, Col: 2, Released: true})
	require.True(t, ok)
	assert.False(t, ev.On)

	_, ok = g.PadNote(PadEvent{Row: 8, Col: 0, Velocity: 1})
	assert.False(t, ok)
}

type fakeGrid struct {
	KeyboardController
	batches [][]LEDUpdate
}

func (f *fakeGrid) SetLEDBatch(u []LEDUpdate) error {
	f.batches = append(f.batches, u)
	return nil
}

func TestMirrorDiffsUpdates(t *testing.T) {
	colors := MirrorColors{Held: [3]uint8{0, 255, 0}, Visual: [3]uint8{0, 0, 255}, Root: [3]uint8{40, 40, 40}}
	m := NewMirror(Grid{Base: 48}, colors)
	fake := &fakeGrid{}

	m.flush()
	assert.Empty(t, fake.batches, "no controller yet")

	m.SetController(fake)
	m.flush()
	require.Len(t, fake.batches, 1)
	roots := len(fake.batches[0])
	assert.Positive(t, roots)

	m.flush()
	assert.Len(t, fake.batches, 1, "nothing changed, nothing sent")

	m.Update([]int{49}, nil)
	m.flush()
	require.Len(t, fake.batches, 2)
	held := fake.batches[1]
	assert.Equal(t, len(Grid{Base: 48}.Cells(49)), len(held))
	for _, u := range held {
		assert.Equal(t, colors.Held, u.Color)
	}

	m.Update(nil, []int{49})
	m.flush()
	for _, u := range fake.batches[2] {
		assert.Equal(t, colors.Visual, u.Color)
		assert.Equal(t, ChannelPulse, u.Channel)
	}

	m.Update([]int{49}, []int{49})
	m.flush()
	require.Len(t, fake.batches, 4)
	for _, u := range fake.batches[3] {
		assert.Equal(t, ChannelFlash, u.Channel, "shown and held")
	}

	m.Update(nil, nil)
	m.flush()
	cleared := fake.batches[4]
	sort.Slice(cleared, func(i, j int) bool { return cleared[i].Row < cleared[j].Row })
	for _, u := range cleared {
		assert.Equal(t, [3]uint8{}, u.Color)
	}
}

func TestClassifyPort(t *testing.T) {
	excluded := []string{"Midi Through", "Dummy"}
	tests := []struct {
		name string
		want ControllerType
	}{
		{"Launchpad X LPX MIDI", ControllerLaunchpad},
		{"Launchpad X LPX DAW", ControllerUnknown},
		{"Midi Through Port-0", ControllerUnknown},
		{"Keystation 49 MK3", ControllerKeyboard},
		{"dummy device", ControllerUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyPort(tt.name, excluded), tt.name)
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "No MIDI devices. Please connect one.", FormatStatus(nil))
	assert.Equal(t, "Connected: Keystation, Launchpad X", FormatStatus([]string{"Keystation", "Launchpad X"}))
}

func TestMirrorSetGrid(t *testing.T) {
	m := NewMirror(Grid{Base: 48}, MirrorColors{Root: [3]uint8{1, 1, 1}})
	m.SetGrid(Grid{Base: 36})
	assert.Equal(t, Grid{Base: 36}, m.Grid())

	snap := m.Snapshot()
	assert.Equal(t, [3]uint8{1, 1, 1}, snap[0][0], "C2 at the bottom-left is a root")
}
