package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/krishg0kul/genai-multi-agent/errors"
)

const defaultBedrockModel = "anthropic.claude-3-haiku-20240307-v1:0"

// BedrockLLMClient is a client for the Anthropic models on AWS Bedrock.
type BedrockLLMClient struct {
	client *bedrockruntime.Client
	opts   Options
}

// NewBedrockLLMClient creates a new BedrockLLMClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockLLMClient(ctx context.Context, opts Options) (*BedrockLLMClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if opts.Model == "" {
		opts.Model = defaultBedrockModel
	}

	return &BedrockLLMClient{
		client: bedrockruntime.NewFromConfig(cfg),
		opts:   opts,
	}, nil
}

// Complete sends the prompt to the Anthropic model via AWS Bedrock.
func (b *BedrockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	requestBody, err := createBedrockRequest(prompt, b.opts)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.opts.Model),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to invoke Bedrock model")
	}

	return processBedrockResponse(resp.Body)
}

// createBedrockRequest creates the Anthropic messages body expected by Bedrock.
func createBedrockRequest(prompt string, opts Options) ([]byte, error) {
	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        opts.maxTokens(),
		"temperature":       opts.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
				},
			},
		},
	}
	return json.Marshal(request)
}

// processBedrockResponse extracts the text blocks from a Bedrock response body.
func processBedrockResponse(body []byte) (string, error) {
	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}
	if response.Error != nil {
		return "", errors.New("Bedrock API error: %v", response.Error)
	}
	if len(response.Content) == 0 {
		return "", errors.New("received an empty response from Bedrock")
	}

	var sb strings.Builder
	for _, item := range response.Content {
		if item.Type == "text" {
			sb.WriteString(item.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
