package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"

	"rifflynx/chat"
	"rifflynx/debug"
)

const mimeTypeJSON = "application/json"

// GeminiProvider implements Provider using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

func (p *GeminiProvider) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		ResponseMIMEType: mimeTypeJSON,
		ResponseSchema:   replySchemaGemini(),
	}
}

// Ask sends the query and parses the structured reply
func (p *GeminiProvider) Ask(ctx context.Context, q Query) ([]chat.Part, error) {
	transaction := sentry.StartTransaction(ctx, "gemini.ask")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)
	transaction.SetTag("provider", providerNameGemini)

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: BuildUserPrompt(q)}},
	}}

	span := transaction.StartChild("gemini.api_call")
	start := time.Now()
	result, err := p.client.Models.GenerateContent(transaction.Context(), p.model, contents, p.config())
	span.Finish()
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	debug.Log("assistant", "gemini answered in %s", time.Since(start))

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("no candidates in Gemini response")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}

	parts, err := ParseReply(text)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("gemini reply: %w", err)
	}
	transaction.SetTag("success", "true")
	return parts, nil
}

func replySchemaGemini() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"parts": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"type":    {Type: genai.TypeString, Enum: []string{"text", "notes"}},
						"content": {Type: genai.TypeString},
						"notes": {
							Type: genai.TypeArray,
							Items: &genai.Schema{
								Type:  genai.TypeArray,
								Items: &genai.Schema{Type: genai.TypeString},
							},
						},
						"originalText": {Type: genai.TypeString},
					},
					Required: []string{"type"},
				},
			},
		},
		Required: []string{"parts"},
	}
}
