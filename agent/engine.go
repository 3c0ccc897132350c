package agent

import (
	"context"
	"strings"
	"time"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/knowledge"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/krishg0kul/genai-multi-agent/search"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/krishg0kul/genai-multi-agent/agent"

// ErrUnknownAgent is returned when the dispatch table has no pipeline for a
// routed id.
var ErrUnknownAgent = errors.Sentinel("no pipeline for agent")

// Capabilities are the external services the engine depends on.
type Capabilities struct {
	Completer llm.Completer
	Retriever knowledge.Retriever
	Searcher  search.Searcher
}

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	Domains          []DomainDescriptor
	WebSearchScope   string
	TopK             int
	MaxSearchResults int
	Observer         Observer
	Tracer           trace.Tracer
}

// Engine routes a query, runs the chosen specialists one after another,
// cleans each answer and summarizes them.
type Engine struct {
	llm       llm.Completer
	router    *Router
	web       Pipeline
	pipelines map[ID]Pipeline
	scopes    map[ID]string
	obs       Observer
	tracer    trace.Tracer
}

func NewEngine(caps Capabilities, opts Options) (*Engine, error) {
	if caps.Completer == nil {
		return nil, errors.New("engine needs a completer")
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	web := NewWebSearchPipeline(caps.Completer, caps.Searcher, opts.MaxSearchResults)
	e := &Engine{
		llm:       caps.Completer,
		router:    NewRouter(caps.Completer, opts.Domains, opts.WebSearchScope),
		web:       web,
		pipelines: map[ID]Pipeline{WebSearch: web},
		scopes:    map[ID]string{WebSearch: opts.WebSearchScope},
		obs:       opts.Observer,
		tracer:    opts.Tracer,
	}
	for _, d := range opts.Domains {
		if !d.ID.IsValid() || d.ID == WebSearch {
			return nil, errors.New("invalid domain agent id %q", d.ID)
		}
		if _, dup := e.pipelines[d.ID]; dup {
			return nil, errors.New("domain agent %q registered twice", d.ID)
		}
		e.pipelines[d.ID] = NewDomainPipeline(d, caps.Completer, caps.Retriever, web, opts.TopK)
		e.scopes[d.ID] = d.Scope
	}
	return e, nil
}

// Process answers query. It never fails: when orchestration breaks down the
// query is answered by web search alone, and if that breaks too the caller
// gets a fixed apology.
func (e *Engine) Process(ctx context.Context, query string, history History) FinalResult {
	ctx, span := e.tracer.Start(ctx, "orchestrate")
	defer span.End()

	res, err := e.orchestrate(ctx, query, history)
	if err == nil {
		span.SetAttributes(attribute.StringSlice("agents", idStrings(res.Agents)))
		return res
	}

	log.Error().Err(err).Msg("orchestration failed, forcing web search")
	span.RecordError(err)
	span.SetStatus(codes.Error, "orchestration failed")
	return e.forceWebSearch(ctx, query, history)
}

func (e *Engine) orchestrate(ctx context.Context, query string, history History) (res FinalResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic during orchestration: %v", r)
		}
	}()

	decision := e.route(ctx, query, history)
	e.obs.Routed(decision.Agents)

	state := NewState(query, history, decision)
	for {
		id, ok := state.Next()
		if !ok {
			break
		}
		r, err := e.runAgent(ctx, id, query, history)
		if err != nil {
			return FinalResult{}, err
		}
		state = state.WithResult(r)
	}

	return state.Final(e.summarize(ctx, query, state.Results())), nil
}

func (e *Engine) route(ctx context.Context, query string, history History) RoutingDecision {
	ctx, span := e.tracer.Start(ctx, "route")
	defer span.End()
	d := e.router.Decide(ctx, query, history)
	span.SetAttributes(attribute.StringSlice("agents", idStrings(d.Agents)))
	return d
}

// runAgent dispatches one specialist and cleans its answer.
func (e *Engine) runAgent(ctx context.Context, id ID, query string, history History) (Result, error) {
	p, ok := e.pipelines[id]
	if !ok {
		return Result{}, errors.Wrapf(ErrUnknownAgent, "dispatch %s", id)
	}

	ctx, span := e.tracer.Start(ctx, "agent."+id.String())
	defer span.End()

	start := time.Now()
	resp, err := p.Run(ctx, query, history)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "agent failed")
		return Result{}, errors.Wrapf(err, "%s agent failed", id)
	}
	e.obs.AgentFinished(id, resp.Outcome, time.Since(start))
	span.SetAttributes(
		attribute.String("outcome", string(resp.Outcome)),
		attribute.Bool("fallback", resp.UsedFallback),
	)
	log.Info().Str("agent", id.String()).Str("outcome", string(resp.Outcome)).Bool("fallback", resp.UsedFallback).Msg("agent finished")

	r := Result{
		Agent:        id,
		Raw:          resp.Text,
		Cleaned:      resp.Text,
		Outcome:      resp.Outcome,
		UsedFallback: resp.UsedFallback,
		Verbatim:     resp.Verbatim,
	}
	if !r.Verbatim {
		r.Cleaned = e.clean(ctx, id, resp.Text)
	}
	return r, nil
}

// clean strips out-of-scope content from an answer. The raw answer is kept
// when cleaning fails or returns nothing.
func (e *Engine) clean(ctx context.Context, id ID, answer string) string {
	if strings.TrimSpace(answer) == "" {
		return answer
	}
	cleaned, err := e.llm.Complete(ctx, cleanPrompt(id, e.scopes[id], answer))
	if err != nil || strings.TrimSpace(cleaned) == "" {
		log.Warn().Err(err).Str("agent", id.String()).Msg("cleaning failed, keeping raw answer")
		return answer
	}
	return cleaned
}

// summarize merges the cleaned answers into one. A lone verbatim recall is
// returned as is; a failed summary degrades to the answers joined by blank
// lines.
func (e *Engine) summarize(ctx context.Context, query string, results []Result) string {
	if len(results) == 0 {
		return apology
	}
	if len(results) == 1 && results[0].Verbatim {
		return results[0].Cleaned
	}

	ctx, span := e.tracer.Start(ctx, "summarize")
	defer span.End()

	summary, err := e.llm.Complete(ctx, summaryPrompt(query, results))
	if err == nil && strings.TrimSpace(summary) != "" {
		return summary
	}
	log.Warn().Err(err).Msg("summarization failed, concatenating agent responses")
	span.SetStatus(codes.Error, "summarization failed")
	return joinCleaned(results)
}

func joinCleaned(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if s := strings.TrimSpace(r.Cleaned); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// forceWebSearch is the outermost fallback: one web-search run, summarized
// on its own.
func (e *Engine) forceWebSearch(ctx context.Context, query string, history History) (res FinalResult) {
	res = FinalResult{
		Agents:          []ID{WebSearch},
		Reasoning:       "fallback",
		ResponseSummary: apology,
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("web search fallback failed")
			res.ResponseSummary = apology
		}
	}()

	resp, err := e.web.Run(ctx, query, history)
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		log.Error().Err(err).Msg("web search fallback produced no answer")
		return res
	}
	r := Result{Agent: WebSearch, Raw: resp.Text, Cleaned: resp.Text, Outcome: resp.Outcome, Verbatim: resp.Verbatim}
	res.Responses = map[ID]string{WebSearch: r.Cleaned}
	if summary := e.summarize(ctx, query, []Result{r}); strings.TrimSpace(summary) != "" {
		res.ResponseSummary = summary
	}
	return res
}
