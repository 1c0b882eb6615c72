package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Default generation parameters.
const (
	DefaultModel       = "claude-sonnet-4-5"
	DefaultMaxTokens   = 4096
	DefaultCallTimeout = 120 * time.Second
)

// AnthropicGenerator implements Generator over the Anthropic Messages API.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       anthropic.Model
	maxTokens   int64
	callTimeout time.Duration
}

// AnthropicOption configures AnthropicGenerator.
type AnthropicOption func(*AnthropicGenerator)

// WithModel overrides the model.
func WithModel(model string) AnthropicOption {
	return func(g *AnthropicGenerator) {
		g.model = anthropic.Model(model)
	}
}

// WithMaxTokens sets the generation token budget.
func WithMaxTokens(n int64) AnthropicOption {
	return func(g *AnthropicGenerator) {
		g.maxTokens = n
	}
}

// WithCallTimeout sets the per-call timeout.
func WithCallTimeout(d time.Duration) AnthropicOption {
	return func(g *AnthropicGenerator) {
		g.callTimeout = d
	}
}

// NewAnthropicGenerator creates a generator authenticated with the given
// API key.
func NewAnthropicGenerator(apiKey string, opts ...AnthropicOption) *AnthropicGenerator {
	g := &AnthropicGenerator{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       anthropic.Model(DefaultModel),
		maxTokens:   DefaultMaxTokens,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate runs one completion and returns the concatenated text blocks.
func (g *AnthropicGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

var _ Generator = (*AnthropicGenerator)(nil)
