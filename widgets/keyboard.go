package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rifflynx/notes"
	"rifflynx/theme"
)

// Keyboard is a one-row piano strip, one cell per semitone
type Keyboard struct {
	Low, High int // inclusive MIDI range
	Held      notes.Set
	Shown     notes.Set
	Theme     *theme.Theme
}

// NewKeyboard returns a strip covering C2..C6
func NewKeyboard(th *theme.Theme) Keyboard {
	return Keyboard{Low: 36, High: 84, Theme: th}
}

// keyState is what a single cell shows
type keyState int

const (
	keyIdle keyState = iota
	keyShown
	keyHeld
)

func (k Keyboard) state(name string) keyState {
	switch {
	case k.Held != nil && k.Held.Has(name):
		return keyHeld
	case k.Shown != nil && k.Shown.Has(name):
		return keyShown
	}
	return keyIdle
}

// cells returns the unstyled strip
func (k Keyboard) cells() []rune {
	var out []rune
	k.each(func(number int, name string) {
		out = append(out, k.symbol(number, name))
	})
	return out
}

func (k Keyboard) each(fn func(number int, name string)) {
	for n := k.Low; n <= k.High; n++ {
		if name, ok := notes.Name(n); ok {
			fn(n, name)
		}
	}
}

func (k Keyboard) symbol(number int, name string) rune {
	sym := k.Theme.Symbols
	switch k.state(name) {
	case keyHeld:
		return sym.Held
	case keyShown:
		return sym.Shown
	}
	if notes.Color(number) == notes.Black {
		return sym.BlackKey
	}
	return sym.WhiteKey
}

// labels marks every C with its octave name, aligned to cells()
func (k Keyboard) labels() string {
	width := k.High - k.Low + 1
	line := []rune(strings.Repeat(" ", width))
	for n := k.Low; n <= k.High; n++ {
		if n%12 != 0 {
			continue
		}
		name, ok := notes.Name(n)
		if !ok {
			continue
		}
		for i, r := range name {
			if pos := n - k.Low + i; pos < width {
				line[pos] = r
			}
		}
	}
	return strings.TrimRight(string(line), " ")
}

// Render draws the strip with an octave label line underneath
func (k Keyboard) Render() string {
	var out strings.Builder
	k.each(func(number int, name string) {
		style := lipgloss.NewStyle().Foreground(k.color(number, name))
		out.WriteString(style.Render(string(k.symbol(number, name))))
	})
	out.WriteString("\n")
	out.WriteString(lipgloss.NewStyle().Foreground(k.Theme.Muted()).Render(k.labels()))
	return out.String()
}

func (k Keyboard) color(number int, name string) lipgloss.Color {
	switch k.state(name) {
	case keyHeld:
		return k.Theme.Active()
	case keyShown:
		return k.Theme.Success()
	}
	if notes.Color(number) == notes.Black {
		return k.Theme.Muted()
	}
	return k.Theme.FG()
}

