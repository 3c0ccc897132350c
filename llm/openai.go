package llm

import (
	"context"
	"os"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAILLMClient is a client for the OpenAI Chat Completion API.
type OpenAILLMClient struct {
	client *openai.Client
	opts   Options
}

func newOpenAIClient() (*openai.Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	// OPENAI_BASE_URL points at any OpenAI-compatible endpoint.
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	c := openai.NewClient(options...)
	return &c, nil
}

// NewOpenAILLMClient creates a new OpenAILLMClient. It requires the OPENAI_API_KEY environment variable to be set.
// It also supports OPENAI_BASE_URL for custom API endpoints.
func NewOpenAILLMClient(ctx context.Context, opts Options) (*OpenAILLMClient, error) {
	c, err := newOpenAIClient()
	if err != nil {
		return nil, err
	}
	if opts.Model == "" {
		opts.Model = defaultOpenAIModel
	}
	return &OpenAILLMClient{client: c, opts: opts}, nil
}

// Complete sends the prompt as a single user message.
func (o *OpenAILLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(o.opts.Temperature),
		MaxCompletionTokens: openai.Int(int64(o.opts.maxTokens())),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errors.Wrapf(err, "failed to send prompt to OpenAI")
	}
	return openaiText(resp)
}

func openaiText(resp *openai.ChatCompletion) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("received an empty response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// OpenAIEmbedder embeds text with an OpenAI embedding model.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates an embedder; model defaults to text-embedding-3-small.
func NewOpenAIEmbedder(model string) (*OpenAIEmbedder, error) {
	c, err := newOpenAIClient()
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: c, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed text with OpenAI")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("received an empty embedding from OpenAI")
	}
	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}
