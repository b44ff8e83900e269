package assistant

import (
	"encoding/json"
	"errors"
	"strings"

	"rifflynx/chat"
	"rifflynx/debug"
	"rifflynx/notes"
)

// ErrEmptyReply is returned when the service answered with nothing usable
var ErrEmptyReply = errors.New("empty reply")

type replyPart struct {
	Type         string     `json:"type"`
	Content      string     `json:"content"`
	Notes        [][]string `json:"notes"`
	OriginalText string     `json:"originalText"`
}

type reply struct {
	Parts []replyPart `json:"parts"`
}

// stripFences removes a surrounding markdown code block
func stripFences(s string) string {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// ParseReply converts raw service output into message parts. Note names are
// rewritten to registry spelling and unknown ones dropped; a notes part left
// with no steps falls back to its original text. Output that is not the
// expected JSON is shown as plain text.
func ParseReply(raw string) ([]chat.Part, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, ErrEmptyReply
	}

	var r reply
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil || r.Parts == nil {
		debug.Log("assistant", "reply is not structured, showing as text (%d chars)", len(cleaned))
		return []chat.Part{chat.TextPart(cleaned)}, nil
	}

	var parts []chat.Part
	for _, p := range r.Parts {
		switch p.Type {
		case "notes":
			steps := canonicalSteps(p.Notes)
			if len(steps) == 0 {
				if p.OriginalText != "" {
					parts = append(parts, chat.TextPart(p.OriginalText))
				}
				continue
			}
			parts = append(parts, chat.NotesPart(steps, p.OriginalText))
		default:
			if p.Content != "" {
				parts = append(parts, chat.TextPart(p.Content))
			}
		}
	}
	if len(parts) == 0 {
		return nil, ErrEmptyReply
	}
	return parts, nil
}

func canonicalSteps(raw [][]string) [][]string {
	steps, dropped := notes.CanonicalSteps(raw)
	for _, n := range dropped {
		debug.Log("assistant", "dropping unknown note %q", n)
	}
	return steps
}
