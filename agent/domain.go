package agent

import (
	"context"
	"sort"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/errors"
	"github.com/krishg0kul/genai-multi-agent/knowledge"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/rs/zerolog/log"
)

// DefaultTopK is the number of knowledge snippets retrieved per query.
const DefaultTopK = 5

// Pipeline answers one query for one specialist.
type Pipeline interface {
	Run(ctx context.Context, query string, history History) (Response, error)
}

// DomainPipeline answers from a domain's knowledge collection, asks for
// clarification when unsure, and hands off to web search when the
// collection cannot help. Any failure also hands off to web search, so Run
// never returns an error.
type DomainPipeline struct {
	desc      DomainDescriptor
	llm       llm.Completer
	retriever knowledge.Retriever
	web       Pipeline
	topK      int
}

func NewDomainPipeline(desc DomainDescriptor, c llm.Completer, r knowledge.Retriever, web Pipeline, topK int) *DomainPipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &DomainPipeline{desc: desc, llm: c, retriever: r, web: web, topK: topK}
}

func (p *DomainPipeline) Descriptor() DomainDescriptor { return p.desc }

// ProcessQuery returns only the answer text.
func (p *DomainPipeline) ProcessQuery(ctx context.Context, query string, history History) string {
	resp, _ := p.Run(ctx, query, history)
	return resp.Text
}

func (p *DomainPipeline) Run(ctx context.Context, query string, history History) (Response, error) {
	resp, delegate, err := p.answer(ctx, query, history)
	if err != nil {
		log.Warn().Err(err).Str("agent", p.desc.ID.String()).Msg("domain agent failed, falling back to web search")
		return p.delegate(ctx, query, history), nil
	}
	if delegate {
		log.Info().Str("agent", p.desc.ID.String()).Msg("documentation does not cover the query, falling back to web search")
		return p.delegate(ctx, query, history), nil
	}
	return resp, nil
}

// answer runs retrieval, the confidence gate and generation. delegate is set
// when the model returned the fallback sentinel.
func (p *DomainPipeline) answer(ctx context.Context, query string, history History) (resp Response, delegate bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic in %s agent: %v", p.desc.ID, r)
		}
	}()

	documentContext := p.retrieve(ctx, query)

	assessment, err := p.AssessConfidence(ctx, query, documentContext, history)
	if err != nil {
		return Response{}, false, err
	}
	if assessment.NeedsClarification {
		q, err := p.llm.Complete(ctx, clarifyPrompt(query, documentContext))
		if err != nil {
			return Response{}, false, errors.Wrapf(err, "clarifying question failed")
		}
		return Response{Text: q, Outcome: OutcomeClarification}, false, nil
	}

	text, err := p.llm.Complete(ctx, domainAnswerPrompt(p.desc, query, documentContext, history))
	if err != nil {
		return Response{}, false, errors.Wrapf(err, "answer generation failed")
	}
	if strings.Contains(text, Sentinel) {
		return Response{}, true, nil
	}
	return Response{Text: text, Outcome: OutcomeAnswer}, false, nil
}

// retrieve returns the top snippets in document order, joined by blank
// lines. A retrieval failure yields an empty context.
func (p *DomainPipeline) retrieve(ctx context.Context, query string) string {
	if p.retriever == nil {
		return ""
	}
	collection := p.desc.Collection
	if collection == "" {
		collection = strings.ToLower(p.desc.ID.String())
	}
	snippets, err := p.retriever.Search(ctx, collection, query, p.topK)
	if err != nil {
		log.Warn().Err(err).Str("agent", p.desc.ID.String()).Msg("knowledge retrieval failed, continuing without context")
		return ""
	}
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].ChunkIndex < snippets[j].ChunkIndex
	})
	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	return strings.Join(texts, "\n\n")
}

// AssessConfidence asks the model how well documentContext answers query.
func (p *DomainPipeline) AssessConfidence(ctx context.Context, query, documentContext string, history History) (ConfidenceAssessment, error) {
	reply, err := p.llm.Complete(ctx, confidencePrompt(query, documentContext, history))
	if err != nil {
		return ConfidenceAssessment{}, errors.Wrapf(err, "confidence evaluation failed")
	}
	a := newAssessment(parseConfidence(reply))
	log.Info().Str("agent", p.desc.ID.String()).Int("confidence", a.Score).Bool("clarify", a.NeedsClarification).Msg("confidence evaluation")
	return a, nil
}

// delegate hands the query to web search. The sentinel never survives into
// the returned text.
func (p *DomainPipeline) delegate(ctx context.Context, query string, history History) Response {
	resp, err := p.web.Run(ctx, query, history)
	if err != nil {
		log.Warn().Err(err).Str("agent", p.desc.ID.String()).Msg("web search fallback failed")
		resp = Response{Text: apology}
	}
	resp.Text = stripSentinel(resp.Text)
	if resp.Text == "" {
		resp.Text = apology
	}
	resp.Outcome = OutcomeFallback
	resp.UsedFallback = true
	return resp
}
