package assistant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rifflynx/notes"
)

func TestBuildUserPrompt(t *testing.T) {
	now := time.Unix(1000, 0)
	q := Query{
		Text: "  what chord is this ",
		Now:  now,
		History: []notes.Event{
			{Time: now.Add(-3 * time.Second), Name: "C3", Number: 48, Velocity: 0.5, Kind: notes.On},
			{Time: now.Add(-1 * time.Second), Name: "E4", Number: 64, Velocity: 0.75, Kind: notes.On},
		},
	}

	prompt := BuildUserPrompt(q)
	assert.Contains(t, prompt, "Question: what chord is this\n")
	assert.Contains(t, prompt, "Recently played (2 notes, oldest first):")
	assert.Contains(t, prompt, "- on C3 velocity=0.50 hand=left 3.0s ago")
	assert.Contains(t, prompt, "- on E4 velocity=0.75 hand=right 1.0s ago")
}

func TestBuildUserPromptNoHistory(t *testing.T) {
	prompt := BuildUserPrompt(Query{Text: "hi"})
	assert.Contains(t, prompt, "Recently played: nothing.")
}

func TestSystemPromptEmbedded(t *testing.T) {
	assert.Contains(t, SystemPrompt(), `"type": "notes"`)
	assert.Contains(t, ReplySchema()["required"], "parts")
}
