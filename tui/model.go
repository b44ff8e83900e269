package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rifflynx/chat"
	"rifflynx/midi"
	"rifflynx/session"
	"rifflynx/theme"
	"rifflynx/widgets"
)

// Session is what the UI reads and drives
type Session interface {
	Snapshot() session.Snapshot
	Updates() <-chan struct{}
	Transcript(text string)
	Submit(text string)
	Preview(steps [][]string)
	PlaySequence(steps [][]string)
	StopPlayback()
	SetComposerFocus(focused bool)
	SetComposition(text string)
}

// Voice re-enables speech recognition after a fatal error
type Voice interface {
	Reset()
}

// partRef points at a notes part in the chat log
type partRef struct {
	msg, part int
}

type Model struct {
	Session Session
	Theme   *theme.Theme
	Mirror  *midi.Mirror // may be nil
	Voice   Voice        // may be nil

	// Wake and confirm stand in for the spoken keywords
	Wake    string
	Confirm string

	input    textinput.Model
	keyboard widgets.Keyboard
	snap     session.Snapshot
	rev      uint64 // last CompositionRev adopted
	parts    []partRef
	selected int // index into parts, -1 when none

	width, height int
	showHelp      bool
	showGrid      bool
	quitting      bool
}

type UpdateMsg struct{}

func NewModel(sess Session, th *theme.Theme, mirror *midi.Mirror) Model {
	in := textinput.New()
	in.Placeholder = "type a question, or play notes while typing"
	in.Prompt = "> "
	in.CharLimit = 500

	m := Model{
		Session:  sess,
		Theme:    th,
		Mirror:   mirror,
		Wake:     "lynx",
		Confirm:  "answer",
		input:    in,
		keyboard: widgets.NewKeyboard(th),
		selected: -1,
		showGrid: true,
	}
	m.adopt(sess.Snapshot())
	return m
}

func ListenForUpdates(sess Session) tea.Cmd {
	return func() tea.Msg {
		<-sess.Updates()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(ListenForUpdates(m.Session), textinput.Blink)
}

// adopt takes in a new snapshot
func (m *Model) adopt(snap session.Snapshot) {
	before := len(m.parts)
	m.snap = snap
	m.keyboard.Held = toSet(snap.Held)
	m.keyboard.Shown = toSet(snap.Visualized)

	m.parts = nil
	for i, msg := range snap.Messages {
		for j, p := range msg.Parts {
			if p.Kind == chat.Notes && len(p.Steps) > 0 {
				m.parts = append(m.parts, partRef{msg: i, part: j})
			}
		}
	}
	// follow the newest playable part as replies arrive
	if len(m.parts) != before || m.selected >= len(m.parts) {
		m.selected = len(m.parts) - 1
	}

	if snap.CompositionRev != m.rev {
		m.rev = snap.CompositionRev
		m.input.SetValue(snap.Composition)
		m.input.CursorEnd()
	}
}

func (m Model) selectedSteps() ([][]string, bool) {
	if m.selected < 0 || m.selected >= len(m.parts) {
		return nil, false
	}
	ref := m.parts[m.selected]
	return m.snap.Messages[ref.msg].Parts[ref.part].Steps, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)

	case UpdateMsg:
		m.adopt(m.Session.Snapshot())
		return m, ListenForUpdates(m.Session)

	case tea.KeyMsg:
		if m.input.Focused() {
			return m.updateComposer(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

// updateComposer handles keys while the text composer has focus
func (m Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc", "tab":
		m.input.Blur()
		m.Session.SetComposerFocus(false)
		return m, nil
	case "enter":
		m.Session.Submit(m.input.Value())
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != before {
		m.Session.SetComposition(v)
	}
	return m, cmd
}

// updateBrowse handles keys while the composer is blurred
func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.Session.StopPlayback()
		return m, tea.Quit

	case "tab", "i":
		m.Session.SetComposerFocus(true)
		cmd := m.input.Focus()
		return m, cmd

	case "ctrl+l":
		m.Session.Transcript(m.Wake)

	case "ctrl+a":
		m.Session.Transcript(m.Confirm)

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.parts)-1 {
			m.selected++
		}

	case "enter", "p":
		if steps, ok := m.selectedSteps(); ok {
			m.Session.Preview(steps)
		}

	case "r":
		if steps, ok := m.selectedSteps(); ok {
			m.Session.PlaySequence(steps)
		}

	case "s":
		m.Session.StopPlayback()

	case "v":
		if m.Voice != nil {
			m.Voice.Reset()
		}

	case "g":
		m.showGrid = !m.showGrid

	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}
