package search

import (
	"context"
	"fmt"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/llm"
)

const directResponsePrompt = `You are a helpful assistant. The user has asked: "%s"

Since I cannot perform a web search at the moment, please provide a helpful response based on your knowledge.
If you're not confident about the information, please acknowledge the limitations.
Be clear that this is based on general knowledge rather than current web search results.

Keep your response factual, concise, and directly relevant to the query.`

// LLMFallback answers from the model's general knowledge when no search
// provider is available. The answer is shaped like a single search hit.
type LLMFallback struct {
	Completer llm.Completer
}

func (f *LLMFallback) Search(ctx context.Context, query string) (any, error) {
	if f.Completer == nil {
		return nil, errors.New("no completer configured for direct responses")
	}
	answer, err := f.Completer.Complete(ctx, fmt.Sprintf(directResponsePrompt, query))
	if err != nil {
		return nil, errors.Wrapf(err, "direct response failed")
	}
	return []Result{{Title: "Direct Response", Link: "N/A", Snippet: answer}}, nil
}
