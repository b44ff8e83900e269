package speech

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		text string
		err  error
		ok   bool
	}{
		{"", "", nil, false},
		{"   ", "", nil, false},
		{"hey lynx", "hey lynx", nil, true},
		{"final:  answer ", "answer", nil, true},
		{"FINAL:", "", nil, false},
		{"partial: hey ly", "", nil, false},
		{"error: no-speech", "", ErrNoSpeech, true},
		{"error: network", "", ErrNetwork, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			text, ok, err := parseLine(tt.line)
			assert.Equal(t, tt.text, text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.err, err)
		})
	}

	_, ok, err := parseLine("error: not-allowed")
	require.True(t, ok)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, "not-allowed", fatal.Name)
}

func TestIsBenign(t *testing.T) {
	assert.True(t, IsBenign(nil))
	assert.True(t, IsBenign(Classify("no-speech")))
	assert.True(t, IsBenign(Classify("ABORTED")))
	assert.True(t, IsBenign(errors.Join(errors.New("ctx"), ErrNetwork)))
	assert.False(t, IsBenign(Classify("audio-capture")))
	assert.False(t, IsBenign(ErrInputClosed))
}

func TestLineRecognizer(t *testing.T) {
	r := NewLineRecognizer(strings.NewReader("hello there\npartial: ly\nfinal: lynx\n\n"))
	out := make(chan string, 4)

	err := r.Listen(context.Background(), out)
	assert.ErrorIs(t, err, ErrInputClosed)
	close(out)

	var got []string
	for s := range out {
		got = append(got, s)
	}
	assert.Equal(t, []string{"hello there", "lynx"}, got)
}

func TestCommandRecognizer(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out := make(chan string, 4)
	rec := &CommandRecognizer{Command: []string{"sh", "-c", "echo 'final: what key'; echo 'error: no-speech'; sleep 5"}}

	err := rec.Listen(context.Background(), out)
	assert.ErrorIs(t, err, ErrNoSpeech)
	assert.Equal(t, "what key", <-out)

	err = (&CommandRecognizer{Command: []string{"sh", "-c", "exit 3"}}).Listen(context.Background(), out)
	var fatal *FatalError
	assert.ErrorAs(t, err, &fatal)

	err = (&CommandRecognizer{Command: []string{"sh", "-c", "echo done"}}).Listen(context.Background(), out)
	assert.NoError(t, err)
}

// scripted returns results in order, then blocks until cancelled
type scripted struct {
	results []error
	started chan int
	calls   int
}

func (s *scripted) Listen(ctx context.Context, out chan<- string) error {
	i := s.calls
	s.calls++
	s.started <- i
	if i < len(s.results) {
		return s.results[i]
	}
	<-ctx.Done()
	return nil
}

type statusLog chan Status

func (l statusLog) wait(t *testing.T, want Status) {
	t.Helper()
	for {
		select {
		case st := <-l:
			if st == want {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("never reached %s", want)
		}
	}
}

func waitStart(t *testing.T, started chan int, want int) {
	t.Helper()
	select {
	case got := <-started:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("listen #%d never started", want)
	}
}

func TestSupervisorRestartsAfterBenignEnd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := &scripted{results: []error{ErrNoSpeech, nil}, started: make(chan int, 4)}
	statuses := make(statusLog, 16)
	sup := NewSupervisor(rec, Options{
		RestartDelay: 300 * time.Millisecond,
		Clock:        clock,
		OnStatus:     func(st Status, _ error) { statuses <- st },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(done)
	}()

	waitStart(t, rec.started, 0)
	statuses.wait(t, Restarting)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(300 * time.Millisecond)

	waitStart(t, rec.started, 1)
	statuses.wait(t, Restarting)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(300 * time.Millisecond)

	waitStart(t, rec.started, 2)
	st, err := sup.Status()
	assert.Equal(t, Running, st)
	assert.NoError(t, err)

	cancel()
	<-done
	st, _ = sup.Status()
	assert.Equal(t, Stopped, st)
}

func TestSupervisorDisablesOnFatalUntilReset(t *testing.T) {
	rec := &scripted{results: []error{&FatalError{Name: "not-allowed"}}, started: make(chan int, 4)}
	statuses := make(statusLog, 16)
	sup := NewSupervisor(rec, Options{
		Clock:    clockwork.NewFakeClock(),
		OnStatus: func(st Status, _ error) { statuses <- st },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sup.Run(ctx)

	waitStart(t, rec.started, 0)
	statuses.wait(t, Disabled)

	st, err := sup.Status()
	assert.Equal(t, Disabled, st)
	assert.ErrorContains(t, err, "not-allowed")

	select {
	case <-rec.started:
		t.Fatal("disabled supervisor restarted on its own")
	case <-time.After(50 * time.Millisecond):
	}

	sup.Reset()
	waitStart(t, rec.started, 1)
	statuses.wait(t, Running)
}
