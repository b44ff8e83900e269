package buffer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifflynx/notes"
)

func event(name string, at time.Time) notes.Event {
	n, _ := notes.Number(name)
	return notes.Event{Time: at, Name: name, Number: n, Velocity: 0.5, Kind: notes.On}
}

func TestAppendPrunesOutsideWindow(t *testing.T) {
	b := New(5*time.Minute, 3*time.Minute)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	b.Append(event("C4", start), start)
	b.Append(event("E4", start.Add(2*time.Minute)), start.Add(2*time.Minute))
	b.Append(event("G4", start.Add(4*time.Minute)), start.Add(4*time.Minute))
	require.Equal(t, 3, b.Len())

	now := start.Add(5*time.Minute + time.Second)
	b.Append(event("C5", now), now)

	var names []string
	for _, e := range b.Events() {
		names = append(names, e.Name)
		assert.Less(t, now.Sub(e.Time), 5*time.Minute)
	}
	assert.Equal(t, []string{"E4", "G4", "C5"}, names)
}

func TestExactlyWindowOldIsDropped(t *testing.T) {
	b := New(time.Minute, time.Minute)
	start := time.Unix(1000, 0)
	b.Append(event("C4", start), start)
	b.Append(event("D4", start.Add(time.Minute)), start.Add(time.Minute))

	require.Equal(t, 1, b.Len())
	assert.Equal(t, "D4", b.Events()[0].Name)
}

func TestClearIfIdleOnlyForLatestInsertion(t *testing.T) {
	b := New(5*time.Minute, 3*time.Minute)
	now := time.Unix(1000, 0)

	first := b.Append(event("C4", now), now)
	second := b.Append(event("E4", now), now)

	assert.False(t, b.ClearIfIdle(first))
	assert.Equal(t, 2, b.Len())

	assert.True(t, b.ClearIfIdle(second))
	assert.Equal(t, 0, b.Len())
}

func TestEventsIsACopy(t *testing.T) {
	b := New(5*time.Minute, 3*time.Minute)
	now := time.Unix(1000, 0)
	b.Append(event("C4", now), now)

	snapshot := b.Events()
	snapshot[0].Name = "X"
	b.Append(event("E4", now), now)

	assert.Equal(t, "C4", b.Events()[0].Name)
	assert.Len(t, snapshot, 1)
}
