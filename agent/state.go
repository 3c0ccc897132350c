package agent

import "slices"

// State threads one orchestration run. Every method returns a new value;
// a State is never modified after construction.
type State struct {
	query     string
	history   History
	decision  RoutingDecision
	processed []ID
	results   []Result
}

func NewState(query string, history History, decision RoutingDecision) State {
	return State{
		query:    query,
		history:  history,
		decision: RoutingDecision{Agents: slices.Clone(decision.Agents), Reasoning: decision.Reasoning},
	}
}

func (s State) Query() string { return s.query }
func (s State) History() History { return s.history }
func (s State) Agents() []ID { return slices.Clone(s.decision.Agents) }
func (s State) Reasoning() string { return s.decision.Reasoning }
func (s State) Processed() []ID { return slices.Clone(s.processed) }
func (s State) Results() []Result { return slices.Clone(s.results) }

// Done reports whether every routed agent has run.
func (s State) Done() bool {
	_, ok := s.Next()
	return !ok
}

// Next returns the first routed agent that has not run yet.
func (s State) Next() (ID, bool) {
	for _, id := range s.decision.Agents {
		if !slices.Contains(s.processed, id) {
			return id, true
		}
	}
	return "", false
}

// WithResult records r as the next processed agent.
func (s State) WithResult(r Result) State {
	next := s
	next.processed = append(slices.Clone(s.processed), r.Agent)
	next.results = append(slices.Clone(s.results), r)
	return next
}

// Responses maps each processed agent to its cleaned answer.
func (s State) Responses() map[ID]string {
	out := make(map[ID]string, len(s.results))
	for _, r := range s.results {
		out[r.Agent] = r.Cleaned
	}
	return out
}

// Final builds the caller-facing result. WEB_SEARCH is reported when any
// domain specialist delegated to it, even if it was not routed directly.
func (s State) Final(summary string) FinalResult {
	agents := s.Processed()
	for _, r := range s.results {
		if r.UsedFallback && !slices.Contains(agents, WebSearch) {
			agents = append(agents, WebSearch)
		}
	}
	return FinalResult{
		Agents:          agents,
		Reasoning:       s.decision.Reasoning,
		ResponseSummary: summary,
		Responses:       s.Responses(),
	}
}
