package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifflynx/chat"
)

func TestFactoryRequiresKeys(t *testing.T) {
	ctx := context.Background()
	f := NewProviderFactory("", "")

	_, err := f.GetProvider(ctx, "gpt-4o-mini", "")
	assert.ErrorContains(t, err, "openai API key")

	_, err = f.GetProvider(ctx, "gemini-2.5-flash", "")
	assert.ErrorContains(t, err, "gemini API key")

	_, err = f.GetProvider(ctx, "", "claude")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestFactoryPicksProvider(t *testing.T) {
	ctx := context.Background()
	f := NewProviderFactory("sk-test", "g-test")

	tests := []struct {
		model, provider, want string
	}{
		{"gpt-4o-mini", "", "openai"},
		{"o4-mini", "", "openai"},
		{"gemini-2.5-flash", "", "gemini"},
		{"anything", "OpenAI", "openai"},
		{"gpt-4o", "gemini", "gemini"},
	}
	for _, tt := range tests {
		p, err := f.GetProvider(ctx, tt.model, tt.provider)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Name(), tt.model)
	}
}

func TestOpenAIProviderAsk(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "resp_1",
			"object": "response",
			"status": "completed",
			"model": "gpt-4o-mini",
			"output": [{
				"type": "message",
				"id": "msg_1",
				"role": "assistant",
				"status": "completed",
				"content": [{"type": "output_text", "annotations": [], "text": "{\"parts\":[{\"type\":\"text\",\"content\":\"A minor.\"}]}"}]
			}]
		}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	parts, err := p.Ask(context.Background(), Query{Text: "what is this"})
	require.NoError(t, err)
	assert.Equal(t, []chat.Part{chat.TextPart("A minor.")}, parts)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Contains(t, got["input"], "Question: what is this")
	assert.Equal(t, SystemPrompt(), got["instructions"])
}

func TestOpenAIProviderAskError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "gpt-4o-mini", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	_, err := p.Ask(context.Background(), Query{Text: "x"})
	assert.ErrorContains(t, err, "openai request failed")
}
