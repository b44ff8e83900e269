package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifflynx/chat"
	"rifflynx/conversation"
	"rifflynx/session"
	"rifflynx/theme"
)

type fakeSession struct {
	snap    session.Snapshot
	updates chan struct{}
	calls   []string
	steps   [][]string
}

func newFakeSession() *fakeSession {
	return &fakeSession{updates: make(chan struct{}, 1)}
}

func (f *fakeSession) Snapshot() session.Snapshot { return f.snap }
func (f *fakeSession) Updates() <-chan struct{}   { return f.updates }
func (f *fakeSession) Transcript(text string)     { f.calls = append(f.calls, "transcript:"+text) }
func (f *fakeSession) Submit(text string)         { f.calls = append(f.calls, "submit:"+text) }
func (f *fakeSession) Preview(steps [][]string) {
	f.steps = steps
	f.calls = append(f.calls, "preview")
}
func (f *fakeSession) PlaySequence(steps [][]string) {
	f.steps = steps
	f.calls = append(f.calls, "play")
}
func (f *fakeSession) StopPlayback() { f.calls = append(f.calls, "stop") }
func (f *fakeSession) SetComposerFocus(focused bool) {
	if focused {
		f.calls = append(f.calls, "focus")
	} else {
		f.calls = append(f.calls, "blur")
	}
}
func (f *fakeSession) SetComposition(text string) { f.calls = append(f.calls, "compose:"+text) }

func testTheme() *theme.Theme {
	return theme.New(&theme.Palette{Colors: []theme.RGB{{0, 0, 0}, {255, 255, 255}}})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func reply(steps ...[][]string) chat.Message {
	parts := []chat.Part{chat.TextPart("Here you go:")}
	for _, s := range steps {
		parts = append(parts, chat.NotesPart(s, ""))
	}
	return chat.NewMessage(chat.Assistant, time.Time{}, parts...)
}

func TestWakeAndConfirmKeys(t *testing.T) {
	sess := newFakeSession()
	m := NewModel(sess, testTheme(), nil)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlL}, tea.KeyMsg{Type: tea.KeyCtrlA})
	assert.Equal(t, []string{"transcript:lynx", "transcript:answer"}, sess.calls)
}

type fakeVoice struct{ resets int }

func (f *fakeVoice) Reset() { f.resets++ }

func TestVoiceResetKey(t *testing.T) {
	m := NewModel(newFakeSession(), testTheme(), nil)
	press(m, runes("v")) // no recognizer configured

	voice := &fakeVoice{}
	m.Voice = voice
	press(m, runes("v"))
	assert.Equal(t, 1, voice.resets)
}

func TestComposerFlow(t *testing.T) {
	sess := newFakeSession()
	m := NewModel(sess, testTheme(), nil)

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.input.Focused())

	m = press(m, runes("h"), runes("i"))
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, []string{"focus", "compose:h", "compose:hi", "submit:hi", "blur"}, sess.calls)
	assert.False(t, m.input.Focused())
}

func TestComposerAdoptsSessionText(t *testing.T) {
	sess := newFakeSession()
	m := NewModel(sess, testTheme(), nil)

	// an echo of our own typing does not overwrite the field
	m.input.SetValue("abc")
	sess.snap = session.Snapshot{Composition: "ab"}
	m = press(m, UpdateMsg{})
	assert.Equal(t, "abc", m.input.Value())

	// notes grouped by the session do
	sess.snap = session.Snapshot{Composition: "abc (C4 E4)", CompositionRev: 1}
	m = press(m, UpdateMsg{})
	assert.Equal(t, "abc (C4 E4)", m.input.Value())
}

func TestSelectAndPlayParts(t *testing.T) {
	sess := newFakeSession()
	first := [][]string{{"C4", "E4", "G4"}}
	second := [][]string{{"A3"}, {"B3"}}
	sess.snap = session.Snapshot{Messages: []chat.Message{reply(first), reply(second)}}

	m := NewModel(sess, testTheme(), nil)
	assert.Equal(t, 1, m.selected, "newest part is selected")

	m = press(m, runes("p"))
	assert.Equal(t, second, sess.steps)

	m = press(m, runes("k"), runes("r"))
	assert.Equal(t, first, sess.steps)
	assert.Equal(t, []string{"preview", "play"}, sess.calls)

	m = press(m, runes("k"))
	assert.Equal(t, 0, m.selected)
}

func TestNoPartsIsNoop(t *testing.T) {
	sess := newFakeSession()
	m := NewModel(sess, testTheme(), nil)
	press(m, runes("p"), runes("r"))
	assert.Empty(t, sess.calls)
}

func TestQuit(t *testing.T) {
	sess := newFakeSession()
	m := NewModel(sess, testTheme(), nil)

	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, "", next.View())
	assert.Equal(t, []string{"stop"}, sess.calls)
}

func TestView(t *testing.T) {
	sess := newFakeSession()
	sess.snap = session.Snapshot{
		State:        conversation.Listening,
		Draft:        conversation.Draft{Text: "What is this ", Notes: []string{"C", "E"}},
		Messages:     []chat.Message{reply([][]string{{"C4", "E4"}})},
		DeviceStatus: "Connected: Keystation",
		VoiceStatus:  "listening",
	}
	m := NewModel(sess, testTheme(), nil)
	view := m.View()

	assert.Contains(t, view, "listening")
	assert.Contains(t, view, "Connected: Keystation")
	assert.Contains(t, view, "Here you go:")
	assert.Contains(t, view, "(C4 E4)")
	assert.Contains(t, view, "What is this [C E]")
}
