// Package memo writes investor memos from underwriting results with an LLM.
// Memos are presentation only and never feed back into scoring.
package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"underwriting-lab/internal/domain"
)

var (
	// ErrNoAPIKey is returned when an OpenAI generator is built without a key.
	ErrNoAPIKey = errors.New("OPENAI_API_KEY not set")

	// ErrUnavailable is returned when no memo could be produced.
	ErrUnavailable = errors.New("memo unavailable")
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

const (
	systemPrompt = "You are a senior real estate acquisitions analyst. Write a concise investor memo."
	taskPrompt   = "Create an investment memo from the underwriting data. Use bullets. Include risks + mitigations."

	requestTimeout = 30 * time.Second
	maxTokens      = 600
	temperature    = 0.2
)

// Generator turns a narrative seed into memo text.
type Generator interface {
	Memo(ctx context.Context, seed domain.NarrativeSeed) (string, error)
}

// Disabled is a Generator that never produces a memo.
type Disabled struct{}

// Memo implements Generator.
func (Disabled) Memo(context.Context, domain.NarrativeSeed) (string, error) {
	return "", ErrUnavailable
}

// OpenAIGenerator writes memos with the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIGenerator creates a generator for apiKey. An empty model uses DefaultModel.
func NewOpenAIGenerator(apiKey, model string, log zerolog.Logger) (*OpenAIGenerator, error) {
	return NewOpenAIGeneratorWithConfig(openai.DefaultConfig(apiKey), model, log)
}

// NewOpenAIGeneratorWithConfig creates a generator from a full client config,
// e.g. to point at a compatible endpoint.
func NewOpenAIGeneratorWithConfig(cfg openai.ClientConfig, model string, log zerolog.Logger) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.With().Str("component", "memo").Str("model", model).Logger(),
	}, nil
}

// Memo implements Generator.
func (g *OpenAIGenerator) Memo(ctx context.Context, seed domain.NarrativeSeed) (string, error) {
	prompt, err := userPrompt(seed)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		g.log.Warn().Err(err).Str("address", seed.Address).Msg("memo request failed")
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	g.log.Debug().
		Str("address", seed.Address).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Int("tokens", resp.Usage.TotalTokens).
		Msg("memo generated")
	return resp.Choices[0].Message.Content, nil
}

func userPrompt(seed domain.NarrativeSeed) (string, error) {
	data, err := json.Marshal(struct {
		Task string               `json:"task"`
		Data domain.NarrativeSeed `json:"data"`
	}{Task: taskPrompt, Data: seed})
	if err != nil {
		return "", fmt.Errorf("encode memo prompt: %w", err)
	}
	return string(data), nil
}
