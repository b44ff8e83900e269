package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"rifflynx/chat"
	"rifflynx/debug"
)

// OpenAIProvider implements Provider using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey, model string, opts ...option.RequestOption) *OpenAIProvider {
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIProvider{client: &client, model: model}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

func (p *OpenAIProvider) buildRequestParams(q Query) responses.ResponseNewParams {
	return responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(BuildUserPrompt(q)),
		},
		Instructions: openai.String(systemPrompt),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema("rifflynx_reply", ReplySchema()),
		},
	}
}

// Ask sends the query and parses the structured reply
func (p *OpenAIProvider) Ask(ctx context.Context, q Query) ([]chat.Part, error) {
	transaction := sentry.StartTransaction(ctx, "openai.ask")
	defer transaction.Finish()
	transaction.SetTag("model", p.model)
	transaction.SetTag("provider", providerNameOpenAI)

	span := transaction.StartChild("openai.api_call")
	start := time.Now()
	resp, err := p.client.Responses.New(transaction.Context(), p.buildRequestParams(q))
	span.Finish()
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	debug.Log("assistant", "openai answered in %s", time.Since(start))

	parts, err := ParseReply(resp.OutputText())
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai reply: %w", err)
	}
	transaction.SetTag("success", "true")
	return parts, nil
}
