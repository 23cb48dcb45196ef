package memo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"underwriting-lab/internal/domain"
)

func seed() domain.NarrativeSeed {
	return domain.NarrativeSeed{
		Address:    "12 Main St",
		Grade:      "B+",
		Verdict:    domain.VerdictBuySelective,
		Score:      88,
		Highlights: []string{"Cap rate 8.5% adds +12."},
		Risks:      []string{"DSCR risk"},
		KeyMetrics: map[string]string{"cap_rate": "8.50%"},
	}
}

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	g, err := NewOpenAIGeneratorWithConfig(cfg, "", zerolog.Nop())
	require.NoError(t, err)
	return g
}

func TestOpenAIGenerator_Memo(t *testing.T) {
	var got openai.ChatCompletionRequest
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "- Solid yield"},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	})

	text, err := g.Memo(context.Background(), seed())
	require.NoError(t, err)
	assert.Equal(t, "- Solid yield", text)

	assert.Equal(t, DefaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, systemPrompt, got.Messages[0].Content)
	assert.Contains(t, got.Messages[1].Content, `"address":"12 Main St"`)
	assert.Contains(t, got.Messages[1].Content, taskPrompt)
	assert.Equal(t, maxTokens, got.MaxTokens)
}

func TestOpenAIGenerator_APIError(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	_, err := g.Memo(context.Background(), seed())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	g := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := g.Memo(context.Background(), seed())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(" ", "gpt-4o", zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Memo(context.Background(), seed())
	assert.ErrorIs(t, err, ErrUnavailable)
}
