// Package speech supervises the speech-to-text engine and turns its output
// into finalized transcripts.
package speech

import (
	"errors"
	"fmt"
	"strings"
)

// Benign recognition errors. The recognizer is simply restarted.
var (
	ErrNoSpeech = errors.New("no-speech")
	ErrAborted  = errors.New("aborted")
	ErrNetwork  = errors.New("network")
)

// ErrInputClosed means the transcript source is gone for good
var ErrInputClosed = errors.New("transcript input closed")

// FatalError is a named recognition error that is not worth retrying
// (not-allowed, audio-capture, service-not-allowed, ...)
type FatalError struct {
	Name string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("speech recognition error: %s", e.Name)
}

// Classify maps an engine error name to a benign sentinel or a FatalError
func Classify(name string) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "no-speech":
		return ErrNoSpeech
	case "aborted":
		return ErrAborted
	case "network":
		return ErrNetwork
	}
	return &FatalError{Name: strings.TrimSpace(name)}
}

// IsBenign reports whether err should just restart recognition
func IsBenign(err error) bool {
	return err == nil ||
		errors.Is(err, ErrNoSpeech) ||
		errors.Is(err, ErrAborted) ||
		errors.Is(err, ErrNetwork)
}
