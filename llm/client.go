package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Completer turns a prompt into a plain-text response. It is the only
// capability the agents need from a model provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Embedder turns text into a dense vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options are shared by every provider client.
type Options struct {
	Model           string
	Temperature     float64
	MaxOutputTokens int
}

func (o Options) maxTokens() int {
	if o.MaxOutputTokens <= 0 {
		return 1024
	}
	return o.MaxOutputTokens
}

// New builds the completion client for the named provider. An empty or unknown
// provider yields the offline MockLLMClient.
func New(ctx context.Context, provider string, opts Options) (Completer, error) {
	switch provider {
	case "gemini":
		return NewGeminiLLMClient(ctx, opts)
	case "openai":
		return NewOpenAILLMClient(ctx, opts)
	case "anthropic":
		return NewAnthropicLLMClient(ctx, opts)
	case "bedrock":
		return NewBedrockLLMClient(ctx, opts)
	default:
		if provider != "" && provider != "mock" {
			log.Warn().Str("provider", provider).Msg("unknown llm provider, using mock client")
		}
		return &MockLLMClient{}, nil
	}
}

// MockLLMClient is an offline client that parrots the last line of the prompt.
type MockLLMClient struct{}

func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return fmt.Sprintf("I am a mock LLM. You said: '%s'", last), nil
}

// Observer receives one callback per completion call.
type Observer interface {
	CompletionFinished(provider string, elapsed time.Duration, err error)
}

type instrumented struct {
	next     Completer
	provider string
	obs      Observer
}

// Instrument wraps c so that every call is logged at debug level and reported
// to obs. A nil obs only logs.
func Instrument(c Completer, provider string, obs Observer) Completer {
	if provider == "" {
		provider = "mock"
	}
	return &instrumented{next: c, provider: provider, obs: obs}
}

func (i *instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, prompt)
	elapsed := time.Since(start)
	if i.obs != nil {
		i.obs.CompletionFinished(i.provider, elapsed, err)
	}
	evt := log.Debug()
	if err != nil {
		evt = log.Warn().Err(err)
	}
	evt.Str("provider", i.provider).Dur("elapsed", elapsed).Int("prompt_len", len(prompt)).Msg("completion")
	return out, err
}
