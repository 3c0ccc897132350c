package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/krishg0kul/genai-multi-agent/search"
	"github.com/rs/zerolog/log"
)

// WebSearchPipeline is the specialist of last resort. It answers greetings,
// questions about the conversation itself, and everything else from web
// search results. It never returns an error.
type WebSearchPipeline struct {
	llm        llm.Completer
	searcher   search.Searcher
	maxResults int
}

func NewWebSearchPipeline(c llm.Completer, s search.Searcher, maxResults int) *WebSearchPipeline {
	if s == nil {
		s = search.Disabled{}
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &WebSearchPipeline{llm: c, searcher: s, maxResults: maxResults}
}

// ProcessQuery returns only the answer text.
func (w *WebSearchPipeline) ProcessQuery(ctx context.Context, query string, history History) string {
	resp, _ := w.Run(ctx, query, history)
	return resp.Text
}

func (w *WebSearchPipeline) Run(ctx context.Context, query string, history History) (Response, error) {
	if isRecallQuery(query) {
		log.Info().Msg("literal history recall")
		return Response{Text: recallLastQuestion(query, history), Outcome: OutcomeHistory, Verbatim: true}, nil
	}

	qt := w.DetectQueryType(ctx, query, history)
	log.Debug().Stringer("type", qt).Msg("web search query classified")
	switch qt {
	case QueryGreeting:
		return w.greet(ctx, query), nil
	case QueryHistory:
		return w.answerFromHistory(ctx, query, history), nil
	default:
		return w.answerFromSearch(ctx, query, history), nil
	}
}

// DetectQueryType classifies query as a greeting, a question about the
// conversation (only when history exists), or a new topic. Failed
// classification calls fall through to the next check.
func (w *WebSearchPipeline) DetectQueryType(ctx context.Context, query string, history History) QueryType {
	reply, err := w.llm.Complete(ctx, greetingClassifyPrompt(query))
	if err != nil {
		log.Warn().Err(err).Msg("greeting classification failed")
	} else if parseGreeting(reply) {
		return QueryGreeting
	}

	if len(history) == 0 {
		return QueryNewTopic
	}
	reply, err = w.llm.Complete(ctx, historyClassifyPrompt(query, history))
	if err != nil {
		log.Warn().Err(err).Msg("history classification failed")
		return QueryNewTopic
	}
	if parseHistory(reply) {
		return QueryHistory
	}
	return QueryNewTopic
}

// recallLastQuestion quotes the most recent user entry that differs from the
// current query.
func recallLastQuestion(query string, history History) string {
	current := strings.TrimSpace(query)
	for i := len(history) - 1; i >= 0; i-- {
		e := history[i]
		content := strings.TrimSpace(e.Content)
		if !e.IsUser() || content == "" || strings.EqualFold(content, current) {
			continue
		}
		return fmt.Sprintf("Your last question was: \"%s\"", content)
	}
	return noRecord
}

func (w *WebSearchPipeline) greet(ctx context.Context, query string) Response {
	text, err := w.llm.Complete(ctx, greetingReplyPrompt(query))
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Msg("greeting reply failed")
		text = defaultGreeting
	}
	return Response{Text: text, Outcome: OutcomeGreeting}
}

func (w *WebSearchPipeline) answerFromHistory(ctx context.Context, query string, history History) Response {
	if w.ambiguous(ctx, historyAmbiguityPrompt(query, history)) {
		q, err := w.llm.Complete(ctx, historyClarifyPrompt(query, history))
		if err == nil {
			return Response{Text: q, Outcome: OutcomeClarification}
		}
		log.Warn().Err(err).Msg("history clarification failed")
	}
	text, err := w.llm.Complete(ctx, historyAnswerPrompt(query, history))
	if err != nil {
		log.Warn().Err(err).Msg("history answer failed")
		return Response{Text: apology, Outcome: OutcomeHistory}
	}
	return Response{Text: text, Outcome: OutcomeHistory}
}

func (w *WebSearchPipeline) answerFromSearch(ctx context.Context, query string, history History) Response {
	results := w.search(ctx, query)
	searchContext := formatSearchContext(results, w.maxResults)

	// With no results there is nothing to judge ambiguity against. The
	// synthesis prompt then acknowledges that no sources were found.
	if len(results) > 0 && w.ambiguous(ctx, searchAmbiguityPrompt(query, searchContext, history)) {
		q, err := w.llm.Complete(ctx, searchClarifyPrompt(query, searchContext))
		if err == nil {
			return Response{Text: q, Outcome: OutcomeClarification}
		}
		log.Warn().Err(err).Msg("search clarification failed")
	}

	text, err := w.llm.Complete(ctx, searchAnswerPrompt(query, searchContext, history))
	if err != nil || strings.TrimSpace(text) == "" {
		log.Warn().Err(err).Msg("search synthesis failed")
		return Response{Text: apology, Outcome: OutcomeAnswer}
	}
	return Response{Text: text, Outcome: OutcomeAnswer}
}

// search treats a provider failure as an empty result list.
func (w *WebSearchPipeline) search(ctx context.Context, query string) []search.Result {
	raw, err := w.searcher.Search(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("web search failed, continuing without results")
		return nil
	}
	results := search.Normalize(raw)
	log.Debug().Int("results", len(results)).Msg("web search results")
	return results
}

// ambiguous asks the model for a CLEAR/AMBIGUOUS verdict. Errors count as clear.
func (w *WebSearchPipeline) ambiguous(ctx context.Context, prompt string) bool {
	reply, err := w.llm.Complete(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("ambiguity check failed, treating query as clear")
		return false
	}
	return parseAmbiguous(reply)
}
