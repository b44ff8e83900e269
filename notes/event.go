package notes

import (
	"strings"
	"time"
)

// Kind is the direction of a note event
type Kind string

const (
	On  Kind = "on"
	Off Kind = "off"
)

// Event is a single hardware note event as seen by the session.
// Velocity is normalized to 0-1.
type Event struct {
	Time     time.Time `json:"timestamp"`
	Name     string    `json:"noteName"`
	Number   int       `json:"noteNumber"`
	Velocity float64   `json:"velocity"`
	Kind     Kind      `json:"kind"`
}

// FormatGroup writes notes sounded together: "C4" alone, "(C4 E4 G4)" for
// several
func FormatGroup(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return "(" + strings.Join(names, " ") + ")"
}
