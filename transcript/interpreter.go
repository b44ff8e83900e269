// Package transcript spots voice command keywords in finalized speech
// transcripts.
package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is what a transcript asks the conversation to do
type Kind int

const (
	Ignore Kind = iota
	Activate
	Confirm
	Dictate
)

func (k Kind) String() string {
	switch k {
	case Activate:
		return "activate"
	case Confirm:
		return "confirm"
	case Dictate:
		return "dictate"
	}
	return "ignore"
}

// Command is the interpreted transcript. Text is set for Dictate only.
type Command struct {
	Kind Kind
	Text string
}

// Interpreter matches keywords by substring containment
type Interpreter struct {
	activation   []string
	confirmation []string
}

// New builds an interpreter from activation and confirmation synonyms
func New(activation, confirmation []string) *Interpreter {
	return &Interpreter{
		activation:   lowerAll(activation),
		confirmation: lowerAll(confirmation),
	}
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Interpret classifies a finalized transcript. Activation wins over
// everything; confirmation is only recognized while listening; anything
// else is dictation.
func (i *Interpreter) Interpret(transcript string, listening bool) Command {
	trimmed := strings.TrimSpace(transcript)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return Command{Kind: Ignore}
	}

	if containsAny(lower, i.activation) {
		return Command{Kind: Activate}
	}
	if listening && containsAny(lower, i.confirmation) {
		return Command{Kind: Confirm}
	}
	return Command{Kind: Dictate, Text: SentenceCase(trimmed)}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// SentenceCase upper-cases the first letter and leaves the rest as spoken
func SentenceCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
