package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/krishg0kul/genai-multi-agent/knowledge"
	"github.com/krishg0kul/genai-multi-agent/memory"
)

// Prompt markers, one per prompt kind.
const (
	markRoute         = "You are a router agent that determines"
	markReason        = "You are a router agent that has decided"
	markConfidence    = "Evaluate your confidence"
	markClarify       = "Generate a clarifying question"
	markAnswer        = "RELEVANT DOCUMENTATION:"
	markGreetClassify = "Analyze if the following text is a greeting"
	markGreetReply    = "The user has greeted you"
	markHistClassify  = `"HISTORY" or "NEW_TOPIC"`
	markHistAmbiguity = "The user is asking about the earlier conversation."
	markHistClarify   = "it is unclear which part they mean"
	markHistAnswer    = "Answer the user's question about the earlier conversation"
	markSearchAmbig   = "Decide whether the user's question is clear enough"
	markSearchClarify = "The user's question is ambiguous"
	markSearchAnswer  = "You are a web search agent"
	markClean         = "You are editing the answer produced by"
	markSummary       = "Combine the following specialist responses"
)

type rule struct {
	marker string
	reply  func(prompt string) (string, error)
}

// fakeLLM answers each prompt with the first rule whose marker it contains.
type fakeLLM struct {
	mu      sync.Mutex
	rules   []rule
	def     string
	prompts []string
}

func newFakeLLM() *fakeLLM { return &fakeLLM{def: "NOT_GREETING"} }

func (f *fakeLLM) on(marker, reply string) *fakeLLM {
	return f.onFunc(marker, func(string) (string, error) { return reply, nil })
}

func (f *fakeLLM) fail(marker string, err error) *fakeLLM {
	return f.onFunc(marker, func(string) (string, error) { return "", err })
}

func (f *fakeLLM) onFunc(marker string, reply func(string) (string, error)) *fakeLLM {
	f.rules = append(f.rules, rule{marker: marker, reply: reply})
	return f
}

// echoing makes cleaning and summarization pass their input through.
func (f *fakeLLM) echoing() *fakeLLM {
	f.onFunc(markClean, func(p string) (string, error) { return between(p, "ANSWER:\n", "\n\nRewrite the answer"), nil })
	f.onFunc(markSummary, func(p string) (string, error) { return between(p, "RESPONSES:\n", "\n\nInstructions:"), nil })
	return f
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	rules := f.rules
	f.mu.Unlock()
	for _, r := range rules {
		if strings.Contains(prompt, r.marker) {
			return r.reply(prompt)
		}
	}
	return f.def, nil
}

func (f *fakeLLM) promptsWith(marker string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.prompts {
		if strings.Contains(p, marker) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		s = s[:j]
	}
	return s
}

type fakeRetriever struct {
	snippets map[string][]knowledge.Snippet
	err      error
	panicMsg string
	queries  []string
}

func (f *fakeRetriever) Search(_ context.Context, domain, query string, k int) ([]knowledge.Snippet, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.queries = append(f.queries, domain+":"+query)
	if f.err != nil {
		return nil, f.err
	}
	s := f.snippets[domain]
	if len(s) > k {
		s = s[:k]
	}
	return append([]knowledge.Snippet(nil), s...), nil
}

type fakeSearcher struct {
	raw   any
	err   error
	calls int
}

func (f *fakeSearcher) Search(context.Context, string) (any, error) {
	f.calls++
	return f.raw, f.err
}

type recordingObserver struct {
	mu       sync.Mutex
	routed   [][]ID
	finished []ID
	outcomes []Outcome
}

func (o *recordingObserver) Routed(agents []ID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routed = append(o.routed, agents)
}

func (o *recordingObserver) AgentFinished(id ID, outcome Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, id)
	o.outcomes = append(o.outcomes, outcome)
}

type panicPipeline struct{}

func (panicPipeline) Run(context.Context, string, History) (Response, error) {
	panic("pipeline exploded")
}

func userEntry(content string) memory.Entry {
	return memory.Entry{Role: memory.RoleUser, Content: content, Timestamp: time.Now()}
}

func assistantEntry(content string) memory.Entry {
	return memory.Entry{Role: memory.RoleAssistant, Content: content, Timestamp: time.Now()}
}

var testDomains = []DomainDescriptor{
	{ID: IT, DisplayName: "IT Support", Scope: "IT Agent: technical issues, password", Collection: "it"},
	{ID: HR, DisplayName: "Human Resources", Scope: "HR Agent: employee policies, benefits", Collection: "hr"},
	{ID: Finance, DisplayName: "Finance", Scope: "Finance Agent: expenses, reimbursement queries", Collection: "finance"},
}
