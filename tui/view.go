package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rifflynx/chat"
	"rifflynx/conversation"
	"rifflynx/notes"
	"rifflynx/theme"
	"rifflynx/widgets"
)

var keyHelp = []widgets.KeySection{
	{Title: "Conversation", Keys: []widgets.KeyBinding{
		{Key: "ctrl+l", Desc: "wake word (same as saying \"Lynx\")"},
		{Key: "ctrl+a", Desc: "confirm (same as saying \"answer\")"},
		{Key: "tab / i", Desc: "type a question; notes you play are added"},
		{Key: "enter", Desc: "send (while typing)"},
		{Key: "v", Desc: "restart voice recognition after an error"},
	}},
	{Title: "Playback", Keys: []widgets.KeyBinding{
		{Key: "up / down", Desc: "select a note sequence"},
		{Key: "p / enter", Desc: "preview its first chord"},
		{Key: "r", Desc: "play it"},
		{Key: "s", Desc: "stop"},
	}},
	{Title: "View", Keys: []widgets.KeyBinding{
		{Key: "g", Desc: "toggle Launchpad grid"},
		{Key: "?", Desc: "toggle this help"},
		{Key: "q", Desc: "quit"},
	}},
}

func toSet(names []string) notes.Set {
	return notes.NewSet(names...)
}

func (m Model) stateColor(s conversation.State) lipgloss.Color {
	switch s {
	case conversation.Listening:
		return m.Theme.Active()
	case conversation.Thinking:
		return m.Theme.Warning()
	case conversation.Replying:
		return m.Theme.Success()
	}
	return m.Theme.Muted()
}

func (m Model) header() string {
	title := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true).Render("RiffLynx")
	state := lipgloss.NewStyle().Foreground(m.stateColor(m.snap.State)).Render("● " + m.snap.State.String())
	dim := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	return fmt.Sprintf("%s  %s  %s  %s", title, state,
		dim.Render(m.snap.DeviceStatus), dim.Render("voice: "+m.snap.VoiceStatus))
}

// renderPart draws one message part; selected notes parts are marked
func (m Model) renderPart(p chat.Part, selected bool) string {
	if p.Kind == chat.Text {
		return p.Content
	}
	steps := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = notes.FormatGroup(s)
	}
	line := fmt.Sprintf("%c %s", m.Theme.Symbols.Playable, strings.Join(steps, " → "))
	if p.OriginalText != "" {
		line += "  " + lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(p.OriginalText)
	}
	style := lipgloss.NewStyle().Foreground(m.Theme.Success())
	if selected {
		style = style.Reverse(true)
	}
	return style.Render(line)
}

func (m Model) renderMessages() []string {
	sel := partRef{-1, -1}
	if m.selected >= 0 && m.selected < len(m.parts) {
		sel = m.parts[m.selected]
	}

	you := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true).Render("you ")
	lynx := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true).Render("lynx")

	var lines []string
	for i, msg := range m.snap.Messages {
		who := lynx
		if msg.Sender == chat.User {
			who = you
		}
		for j, p := range msg.Parts {
			prefix := "     "
			if j == 0 {
				prefix = who + " "
			}
			body := m.renderPart(p, sel == partRef{i, j})
			for k, l := range strings.Split(body, "\n") {
				if k > 0 {
					prefix = "     "
				}
				lines = append(lines, prefix+l)
			}
		}
		lines = append(lines, "")
	}
	return lines
}

func (m Model) draft() string {
	if m.snap.State != conversation.Listening {
		return ""
	}
	d := m.snap.Draft
	text := strings.TrimSpace(d.Text)
	if len(d.Notes) > 0 {
		text += " [" + strings.Join(d.Notes, " ") + "]"
	}
	if strings.TrimSpace(text) == "" {
		text = "listening… say \"answer\" when done"
	}
	return lipgloss.NewStyle().Foreground(m.Theme.Active()).Italic(true).Render(text)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var bottom []string
	if d := m.draft(); d != "" {
		bottom = append(bottom, d)
	}
	bottom = append(bottom, m.keyboard.Render())
	if m.showGrid && m.Mirror != nil && m.Mirror.Attached() {
		bottom = append(bottom, widgets.RenderPadGrid(m.Mirror.Snapshot()),
			widgets.RenderLegendItem(m.Theme.RGB(theme.RoleActive), "held", "keys you are playing")+
				widgets.RenderLegendItem(m.Theme.RGB(theme.RoleSuccess), "shown", "notes from the assistant"))
	}
	bottom = append(bottom, m.input.View())
	if m.showHelp {
		bottom = append(bottom, widgets.RenderKeyHelp(keyHelp))
	} else {
		help := "ctrl+l:lynx  ctrl+a:answer  tab:type  ↑↓:select  p:preview  r:play  s:stop  ?:help  q:quit"
		bottom = append(bottom, lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render(help))
	}
	footer := strings.Join(bottom, "\n")

	header := m.header()
	lines := m.renderMessages()
	if m.height > 0 {
		room := m.height - lipgloss.Height(header) - lipgloss.Height(footer) - 2
		if room < 1 {
			room = 1
		}
		if len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(lines, "\n"))
	out.WriteString("\n")
	out.WriteString(footer)
	return out.String()
}
