// Package assistant talks to the reasoning service that answers the
// musician's questions.
package assistant

import (
	"context"
	_ "embed"
	"time"

	"rifflynx/chat"
	"rifflynx/notes"
)

const (
	providerNameGemini = "gemini"
	providerNameOpenAI = "openai"
)

//go:embed prompts/system.md
var systemPrompt string

// SystemPrompt is the instruction sent with every query
func SystemPrompt() string { return systemPrompt }

// Query is a question plus the recent playing it is about
type Query struct {
	Text    string
	History []notes.Event
	Now     time.Time
}

// Provider answers queries with message parts
type Provider interface {
	Ask(ctx context.Context, q Query) ([]chat.Part, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}
