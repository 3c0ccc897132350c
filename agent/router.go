package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/rs/zerolog/log"
)

// Router picks the specialists for a query.
type Router struct {
	llm       llm.Completer
	known     []ID
	catalogue string
}

// NewRouter builds a router whose catalogue lists the given domains followed
// by the web-search specialist.
func NewRouter(c llm.Completer, domains []DomainDescriptor, webSearchScope string) *Router {
	var lines []string
	var known []ID
	for _, d := range domains {
		lines = append(lines, fmt.Sprintf("- %s: %s", d.ID, d.Scope))
		known = append(known, d.ID)
	}
	lines = append(lines, fmt.Sprintf("- %s: %s", WebSearch, webSearchScope))
	known = append(known, WebSearch)
	return &Router{llm: c, known: known, catalogue: strings.Join(lines, "\n")}
}

// Decide returns at least one agent. Any completion failure routes to web
// search with the reasoning "fallback".
func (r *Router) Decide(ctx context.Context, query string, history History) RoutingDecision {
	reply, err := r.llm.Complete(ctx, routingPrompt(query, history, r.catalogue))
	if err != nil {
		log.Warn().Err(err).Msg("routing failed, defaulting to web search")
		return RoutingDecision{Agents: []ID{WebSearch}, Reasoning: "fallback"}
	}

	agents := parseAgentIDs(reply, r.known)
	if len(agents) == 0 {
		log.Info().Str("reply", reply).Msg("router named no known agent, defaulting to web search")
		agents = []ID{WebSearch}
	}

	reasoning, err := r.llm.Complete(ctx, routingReasonPrompt(query, history, agents))
	if err != nil {
		log.Warn().Err(err).Msg("routing rationale failed, defaulting to web search")
		return RoutingDecision{Agents: []ID{WebSearch}, Reasoning: "fallback"}
	}

	log.Info().Strs("agents", idStrings(agents)).Str("reasoning", reasoning).Msg("routing decision")
	return RoutingDecision{Agents: agents, Reasoning: strings.TrimSpace(reasoning)}
}

func idStrings(ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
