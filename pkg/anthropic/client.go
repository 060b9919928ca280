// Package anthropic wraps the official anthropic-sdk-go for the fallback
// document extractor. It handles text documents; binary formats (PDF,
// images) go through the primary Gemini extractor.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client defines the Anthropic operations used by the enrichment pipeline.
type Client interface {
	// GenerateJSON sends a prompt plus document text and returns the
	// model's JSON response body.
	GenerateJSON(ctx context.Context, prompt, docText string) ([]byte, error)
}

// Option configures the Anthropic client.
type Option func(*sdkClient)

// WithModel sets the model used for extraction.
func WithModel(model string) Option {
	return func(c *sdkClient) { c.model = model }
}

// WithMaxTokens sets the response token budget.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) { c.maxTokens = n }
}

type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewClient creates an Anthropic client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-haiku-4-5-20251001",
		maxTokens: 2048,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sdkClient) GenerateJSON(ctx context.Context, prompt, docText string) ([]byte, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewTextBlock(prompt),
				sdk.NewTextBlock(docText),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, eris.New("anthropic: empty response")
	}

	zap.L().Debug("anthropic extraction",
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	// Models sometimes fence the JSON despite instructions.
	return []byte(stripFences(text.String())), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
