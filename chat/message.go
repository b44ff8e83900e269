// Package chat is the append-only conversation log shown to the user.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Sender is who wrote a message
type Sender string

const (
	User      Sender = "user"
	Assistant Sender = "assistant"
)

// PartKind distinguishes prose from playable note sequences
type PartKind string

const (
	Text  PartKind = "text"
	Notes PartKind = "notes"
)

// Part is one block of a message. Text parts use Content; notes parts use
// Steps (each step is a set of note names sounded together) and keep the
// service's own wording in OriginalText.
type Part struct {
	Kind         PartKind   `json:"type"`
	Content      string     `json:"content,omitempty"`
	Steps        [][]string `json:"notes,omitempty"`
	OriginalText string     `json:"originalText,omitempty"`
}

// TextPart builds a text part
func TextPart(content string) Part {
	return Part{Kind: Text, Content: content}
}

// NotesPart builds a notes part
func NotesPart(steps [][]string, original string) Part {
	return Part{Kind: Notes, Steps: steps, OriginalText: original}
}

// Message is a single chat entry
type Message struct {
	ID     string    `json:"id"`
	Sender Sender    `json:"sender"`
	Parts  []Part    `json:"parts"`
	Time   time.Time `json:"timestamp"`
}

// NewMessage stamps a message with a fresh id
func NewMessage(sender Sender, at time.Time, parts ...Part) Message {
	return Message{
		ID:     uuid.NewString(),
		Sender: sender,
		Parts:  parts,
		Time:   at,
	}
}

// Text joins the message's text parts, for logs and the headless console
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		switch p.Kind {
		case Text:
			out += p.Content
		case Notes:
			out += p.OriginalText
		}
	}
	return out
}

// Log is the ordered message history. Not safe for concurrent use.
type Log struct {
	messages []Message
}

// Append adds m to the end
func (l *Log) Append(m Message) {
	l.messages = append(l.messages, m)
}

// Messages returns a copy of the history
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int { return len(l.messages) }

// Last returns the newest message
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Find returns the message with id
func (l *Log) Find(id string) (Message, bool) {
	for _, m := range l.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}
