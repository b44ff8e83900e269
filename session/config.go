package session

import (
	"time"

	"rifflynx/config"
	"rifflynx/playback"
)

// Greeting opens every chat log
const Greeting = "Hello! I'm RiffLynx, your AI music sidekick. Play some notes on your MIDI keyboard, and I'll see them light up.\n\n" +
	"When you're ready to chat, just say \"Lynx\" to get my attention."

// Config is the session's view of the user configuration
type Config struct {
	ActivationWords   []string
	ConfirmationWords []string
	FallbackQuery     string
	QueryTimeout      time.Duration

	Window time.Duration // rolling note history
	Idle   time.Duration // history cleared after this long without notes

	Debounce      time.Duration // composer note grouping
	ReleaseOffset time.Duration // note-off release lag
	ReadingDelay  time.Duration // pause per text part in a reply

	Playback playback.Config
}

// FromConfig maps the file config onto the session
func FromConfig(c *config.Config) Config {
	p := c.Playback
	return Config{
		ActivationWords:   c.Conversation.ActivationWords,
		ConfirmationWords: c.Conversation.ConfirmationWords,
		FallbackQuery:     c.Conversation.FallbackQuery,
		QueryTimeout:      c.Conversation.QueryTimeout(),
		Window:            c.Buffer.Window(),
		Idle:              c.Buffer.Idle(),
		Debounce:          p.Debounce(),
		ReleaseOffset:     p.ReleaseOffset(),
		ReadingDelay:      p.ReadingDelay(),
		Playback: playback.Config{
			UnitSeconds:     p.UnitSeconds(),
			Hold:            p.HoldUnits,
			Step:            p.StepUnits,
			PreviewFraction: p.PreviewFraction,
			Velocity:        p.Velocity,
			MinDuration:     p.MinDuration(),
		},
	}
}

// DefaultConfig is FromConfig over the built-in defaults
func DefaultConfig() Config {
	return FromConfig(config.DefaultConfig())
}
