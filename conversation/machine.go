// Package conversation holds the voice conversation state machine and the
// draft of the question being spoken.
package conversation

import (
	"strings"

	"rifflynx/notes"
)

// State is the conversation phase
type State int

const (
	Idle State = iota
	Listening
	Thinking
	Replying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Thinking:
		return "thinking"
	case Replying:
		return "replying"
	}
	return "unknown"
}

// Draft accumulates dictated text and played pitch classes while Listening
type Draft struct {
	Text  string
	Notes []string
}

// Dispatch is a query ready to send. Ticket must come back with the answer.
type Dispatch struct {
	Ticket uint64
	Query  string
}

// Machine is the conversation state machine. Not safe for concurrent use.
type Machine struct {
	state    State
	draft    Draft
	fallback string
	ticket   uint64 // outstanding dispatch, 0 when none
	issued   uint64
}

// NewMachine starts Idle. fallback is sent when a confirmed draft is empty.
func NewMachine(fallback string) *Machine {
	return &Machine{fallback: fallback}
}

func (m *Machine) State() State { return m.state }

// Draft returns a copy of the current draft
func (m *Machine) Draft() Draft {
	return Draft{Text: m.draft.Text, Notes: append([]string(nil), m.draft.Notes...)}
}

// Ticket returns the outstanding dispatch ticket, 0 when none
func (m *Machine) Ticket() uint64 { return m.ticket }

// Activate handles the activation keyword. From Idle it starts Listening
// with a fresh draft. From any other state it interrupts: the draft and any
// outstanding dispatch are discarded and the machine returns to Idle.
// The caller stops playback when interrupted is true.
func (m *Machine) Activate() (interrupted bool) {
	m.draft = Draft{}
	if m.state == Idle {
		m.state = Listening
		return false
	}
	m.state = Idle
	m.ticket = 0
	return true
}

// Dictate appends text to the draft. Ignored unless Listening.
func (m *Machine) Dictate(text string) bool {
	if m.state != Listening {
		return false
	}
	m.draft.Text += text + " "
	return true
}

// AddNote records the pitch class of a played note. Ignored unless Listening.
func (m *Machine) AddNote(name string) bool {
	if m.state != Listening {
		return false
	}
	m.draft.Notes = append(m.draft.Notes, notes.PitchClass(name))
	return true
}

// Confirm turns the draft into a query and moves to Thinking
func (m *Machine) Confirm() (Dispatch, bool) {
	if m.state != Listening {
		return Dispatch{}, false
	}
	query := ComposeQuery(m.draft, m.fallback)
	m.draft = Draft{}
	return m.dispatch(query), true
}

// Submit dispatches typed text. Ignored while Thinking or when blank.
// Any draft in progress is dropped.
func (m *Machine) Submit(text string) (Dispatch, bool) {
	text = strings.TrimSpace(text)
	if m.state == Thinking || text == "" {
		return Dispatch{}, false
	}
	m.draft = Draft{}
	return m.dispatch(text), true
}

func (m *Machine) dispatch(query string) Dispatch {
	m.issued++
	m.ticket = m.issued
	m.state = Thinking
	return Dispatch{Ticket: m.ticket, Query: query}
}

// Resolve accepts an answer for ticket. Answers for anything but the
// outstanding dispatch while Thinking are stale and return false.
func (m *Machine) Resolve(ticket uint64) bool {
	if !m.current(ticket) {
		return false
	}
	m.ticket = 0
	m.state = Replying
	return true
}

// Fail gives up on ticket and returns to Idle, under the same staleness rule
// as Resolve.
func (m *Machine) Fail(ticket uint64) bool {
	if !m.current(ticket) {
		return false
	}
	m.ticket = 0
	m.state = Idle
	return true
}

func (m *Machine) current(ticket uint64) bool {
	return m.state == Thinking && ticket != 0 && ticket == m.ticket
}

// Complete ends the reply animation
func (m *Machine) Complete() bool {
	if m.state != Replying {
		return false
	}
	m.state = Idle
	return true
}

// ComposeQuery joins the dictated text with the played notes:
// "what chord [played: C E G]". An empty result becomes fallback.
func ComposeQuery(d Draft, fallback string) string {
	query := strings.TrimSpace(d.Text)
	if len(d.Notes) > 0 {
		query += " [played: " + strings.Join(d.Notes, " ") + "]"
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return fallback
	}
	return query
}
