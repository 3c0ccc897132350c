package llm

import (
	"context"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/krishg0kul/genai-multi-agent/errors"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiLLMClient is a client for the Google Gemini API.
type GeminiLLMClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func newGenaiClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}
	return client, nil
}

// NewGeminiLLMClient creates a new GeminiLLMClient.
// It requires the GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable to be set.
func NewGeminiLLMClient(ctx context.Context, opts Options) (*GeminiLLMClient, error) {
	client, err := newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}

	name := opts.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(float32(opts.Temperature))
	model.SetMaxOutputTokens(int32(opts.maxTokens()))

	return &GeminiLLMClient{client: client, model: model}, nil
}

// Complete sends a single-turn prompt to Gemini.
func (g *GeminiLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrapf(err, "failed to send prompt to Gemini")
	}
	return geminiText(resp)
}

// Close releases the underlying connection.
func (g *GeminiLLMClient) Close() error {
	return g.client.Close()
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("received an empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// GeminiEmbedder embeds text with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

// NewGeminiEmbedder creates an embedder; model defaults to text-embedding-004.
func NewGeminiEmbedder(ctx context.Context, model string) (*GeminiEmbedder, error) {
	client, err := newGenaiClient(ctx)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &GeminiEmbedder{client: client, model: client.EmbeddingModel(model)}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed text with Gemini")
	}
	if res == nil || res.Embedding == nil {
		return nil, errors.New("received an empty embedding from Gemini")
	}
	return res.Embedding.Values, nil
}
