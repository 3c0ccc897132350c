package llm

import (
	"context"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/krishg0kul/genai-multi-agent/errors"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicLLMClient is a client for the Anthropic API.
type AnthropicLLMClient struct {
	client *anthropic.Client
	opts   Options
}

// NewAnthropicLLMClient creates a new AnthropicLLMClient.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicLLMClient(ctx context.Context, opts Options) (*AnthropicLLMClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	if opts.Model == "" {
		opts.Model = defaultAnthropicModel
	}

	return &AnthropicLLMClient{
		client: &client,
		opts:   opts,
	}, nil
}

// Complete sends the prompt as a single user message.
func (a *AnthropicLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: int64(a.opts.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(a.opts.Temperature),
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send prompt to Anthropic")
	}
	return anthropicText(resp)
}

// anthropicText joins the text blocks of a response.
func anthropicText(resp *anthropic.Message) (string, error) {
	if resp == nil || len(resp.Content) == 0 {
		return "", errors.New("received an empty response from Anthropic")
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		if c, ok := content.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(c.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
