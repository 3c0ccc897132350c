package agent

import (
	"strings"

	"github.com/krishg0kul/genai-multi-agent/config"
	"github.com/krishg0kul/genai-multi-agent/memory"
)

// ID names a specialist. The set is closed: every value the router hands to
// the engine is one of the constants below.
type ID string

const (
	IT        ID = config.AgentIT
	HR        ID = config.AgentHR
	Finance   ID = config.AgentFinance
	WebSearch ID = config.AgentWebSearch
)

// AllIDs lists every specialist in catalogue order.
var AllIDs = []ID{IT, HR, Finance, WebSearch}

func (id ID) IsValid() bool {
	switch id {
	case IT, HR, Finance, WebSearch:
		return true
	}
	return false
}

func (id ID) String() string { return string(id) }

// QueryType is the web-search specialist's classification of a query.
type QueryType int

const (
	QueryNewTopic QueryType = iota
	QueryGreeting
	QueryHistory
)

func (q QueryType) String() string {
	switch q {
	case QueryGreeting:
		return "GREETING"
	case QueryHistory:
		return "HISTORY"
	default:
		return "NEW_TOPIC"
	}
}

// Outcome records which terminal path a specialist took.
type Outcome string

const (
	OutcomeAnswer        Outcome = "answer"
	OutcomeClarification Outcome = "clarification"
	OutcomeFallback      Outcome = "fallback"
	OutcomeGreeting      Outcome = "greeting"
	OutcomeHistory       Outcome = "history"
)

// DomainDescriptor parameterizes the domain pipeline for one specialist.
type DomainDescriptor struct {
	ID          ID
	DisplayName string
	Scope       string
	// Collection is the knowledge collection searched for this domain.
	Collection string
}

// DescriptorsFromConfig converts the configured domain specialists.
func DescriptorsFromConfig(domains []config.Domain) []DomainDescriptor {
	out := make([]DomainDescriptor, 0, len(domains))
	for _, d := range domains {
		out = append(out, DomainDescriptor{
			ID:          ID(d.ID),
			DisplayName: d.DisplayName,
			Scope:       d.Scope,
			Collection:  d.Collection,
		})
	}
	return out
}

// RoutingDecision is the router's ordered, duplicate-free choice of
// specialists. Agents is never empty.
type RoutingDecision struct {
	Agents    []ID
	Reasoning string
}

// ConfidenceThreshold is the lowest score answered without clarification.
const ConfidenceThreshold = 75

// ConfidenceAssessment is a domain specialist's 0-100 self-rating.
type ConfidenceAssessment struct {
	Score              int
	NeedsClarification bool
}

func newAssessment(score int) ConfidenceAssessment {
	return ConfidenceAssessment{Score: score, NeedsClarification: score < ConfidenceThreshold}
}

// Response is what a pipeline returns for one query.
type Response struct {
	Text    string
	Outcome Outcome
	// UsedFallback is set when a domain specialist handed the query to web search.
	UsedFallback bool
	// Verbatim marks a literal history recall that must not be rewritten.
	Verbatim bool
}

// Result is one executed specialist's contribution.
type Result struct {
	Agent        ID
	Raw          string
	Cleaned      string
	Outcome      Outcome
	UsedFallback bool
	Verbatim     bool
}

// FinalResult is returned to the caller once orchestration ends.
type FinalResult struct {
	Agents          []ID          `json:"agents"`
	Reasoning       string        `json:"reasoning"`
	ResponseSummary string        `json:"responseSummary"`
	Responses       map[ID]string `json:"responses,omitempty"`
}

// Text is the answer shown to the user: the summary, or the per-agent
// responses in routing order when no summary was produced.
func (r FinalResult) Text() string {
	if strings.TrimSpace(r.ResponseSummary) != "" {
		return r.ResponseSummary
	}
	var parts []string
	for _, id := range r.Agents {
		if s := strings.TrimSpace(r.Responses[id]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// History is the chat transcript handed to every stage, oldest first.
type History = []memory.Entry
