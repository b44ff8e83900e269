package assistant

import (
	"fmt"
	"strings"
)

// below this note number a played note is attributed to the left hand
const splitPoint = 60

// BuildUserPrompt renders the question and note history as the user turn
func BuildUserPrompt(q Query) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n\n", strings.TrimSpace(q.Text))

	if len(q.History) == 0 {
		b.WriteString("Recently played: nothing.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Recently played (%d notes, oldest first):\n", len(q.History))
	for _, ev := range q.History {
		hand := "right"
		if ev.Number < splitPoint {
			hand = "left"
		}
		ago := q.Now.Sub(ev.Time).Seconds()
		if ago < 0 {
			ago = 0
		}
		fmt.Fprintf(&b, "- %s %s velocity=%.2f hand=%s %.1fs ago\n", ev.Kind, ev.Name, ev.Velocity, hand, ago)
	}
	return b.String()
}

// ReplySchema is the JSON schema of a reply, for providers that take one
func ReplySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"parts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":    map[string]any{"type": "string", "enum": []string{"text", "notes"}},
						"content": map[string]any{"type": "string"},
						"notes": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						},
						"originalText": map[string]any{"type": "string"},
					},
					"required": []string{"type"},
				},
			},
		},
		"required": []string{"parts"},
	}
}
