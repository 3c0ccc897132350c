package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/krishg0kul/genai-multi-agent/knowledge"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func newTestEngine(t testingT, f llm.Completer, r knowledge.Retriever, s *fakeSearcher, obs Observer) *Engine {
	t.Helper()
	if s == nil {
		s = &fakeSearcher{}
	}
	e, err := NewEngine(Capabilities{Completer: f, Retriever: r, Searcher: s}, Options{
		Domains:        testDomains,
		WebSearchScope: "Web Search Agent: general information",
		Observer:       obs,
	})
	require.NoError(t, err)
	return e
}

var passwordSnippets = map[string][]knowledge.Snippet{
	"it": {{Text: "Password reset: 1. Open https://reset.example.com 2. Choose Forgot password 3. Enter the SMS code", ChunkIndex: 0}},
}

func TestEnginePasswordScenario(t *testing.T) {
	f := newFakeLLM().echoing().
		on(markRoute, "IT").
		on(markReason, "Password resets are IT support.").
		on(markConfidence, "95").
		on(markAnswer, "1. Open https://reset.example.com\n2. Choose Forgot password\n3. Enter the SMS code")
	obs := &recordingObserver{}
	e := newTestEngine(t, f, &fakeRetriever{snippets: passwordSnippets}, nil, obs)

	res := e.Process(context.Background(), "How do I reset my password?", nil)
	assert.Equal(t, []ID{IT}, res.Agents)
	assert.Equal(t, "Password resets are IT support.", res.Reasoning)
	assert.Contains(t, res.ResponseSummary, "Choose Forgot password")
	assert.Contains(t, res.ResponseSummary, "[IT AGENT]")
	assert.Contains(t, res.Responses[IT], "Enter the SMS code")

	assert.Equal(t, [][]ID{{IT}}, obs.routed)
	assert.Equal(t, []Outcome{OutcomeAnswer}, obs.outcomes)
	assert.Contains(t, f.promptsWith(markClean)[0], "Agent scope: IT Agent: technical issues, password")
}

func TestEngineRunsAgentsInRoutedOrder(t *testing.T) {
	f := newFakeLLM().echoing().
		on(markRoute, "FINANCE, HR, FINANCE").
		on(markConfidence, "90").
		onFunc(markAnswer, func(p string) (string, error) {
			if strings.Contains(p, "Finance Agent") {
				return "Travel is reimbursed within 30 days.", nil
			}
			return "Parental leave is 16 weeks.", nil
		})
	obs := &recordingObserver{}
	res := newTestEngine(t, f, &fakeRetriever{}, nil, obs).Process(context.Background(), "Leave and travel policy?", nil)

	if diff := cmp.Diff([]ID{Finance, HR}, res.Agents); diff != "" {
		t.Errorf("agents mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []ID{Finance, HR}, obs.finished)
	assert.Equal(t, map[ID]string{
		Finance: "Travel is reimbursed within 30 days.",
		HR:      "Parental leave is 16 weeks.",
	}, res.Responses)

	summaryPrompt := f.promptsWith(markSummary)[0]
	fi := strings.Index(summaryPrompt, "[FINANCE AGENT]\nTravel is reimbursed")
	hi := strings.Index(summaryPrompt, "[HR AGENT]\nParental leave")
	require.True(t, fi >= 0 && hi >= 0)
	assert.Less(t, fi, hi)
}

func TestEngineGenerationFailureReportsWebSearch(t *testing.T) {
	f := newFakeLLM().echoing().
		on(markRoute, "IT").
		on(markConfidence, "90").
		fail(markAnswer, errors.New("model crashed")).
		on(markSearchAnswer, "According to the vendor site, restart the router.")
	obs := &recordingObserver{}
	res := newTestEngine(t, f, &fakeRetriever{}, nil, obs).Process(context.Background(), "Wifi keeps dropping", nil)

	assert.Equal(t, []ID{IT, WebSearch}, res.Agents)
	assert.Contains(t, res.ResponseSummary, "restart the router")
	assert.Equal(t, []Outcome{OutcomeFallback}, obs.outcomes)
}

func TestEngineCleaningFailureKeepsRawAnswer(t *testing.T) {
	f := newFakeLLM().
		on(markRoute, "HR").
		on(markConfidence, "90").
		on(markAnswer, "Benefits enrollment closes on 30 November.").
		fail(markClean, errors.New("down")).
		fail(markSummary, errors.New("down"))
	res := newTestEngine(t, f, &fakeRetriever{}, nil, nil).Process(context.Background(), "When does enrollment close?", nil)
	assert.Equal(t, "Benefits enrollment closes on 30 November.", res.ResponseSummary)
}

func TestEngineSummaryFailureConcatenates(t *testing.T) {
	f := newFakeLLM().
		on(markRoute, "IT, HR").
		on(markConfidence, "90").
		onFunc(markClean, func(p string) (string, error) {
			if strings.Contains(p, "IT agent") {
				return "IT part", nil
			}
			return "HR part", nil
		}).
		on(markAnswer, "raw").
		fail(markSummary, errors.New("down"))
	res := newTestEngine(t, f, &fakeRetriever{}, nil, nil).Process(context.Background(), "q", nil)
	assert.Equal(t, "IT part\n\nHR part", res.ResponseSummary)
}

func TestEngineHistoryRecallIsVerbatim(t *testing.T) {
	f := newFakeLLM().echoing().on(markRoute, "WEB_SEARCH")
	history := History{userEntry("A"), assistantEntry("B"), userEntry("C")}
	res := newTestEngine(t, f, &fakeRetriever{}, nil, nil).Process(context.Background(), "what was my last question?", history)

	assert.Equal(t, []ID{WebSearch}, res.Agents)
	assert.Equal(t, `Your last question was: "C"`, res.ResponseSummary)
	assert.Empty(t, f.promptsWith(markClean))
	assert.Empty(t, f.promptsWith(markSummary))
}

func TestEngineRouterFailure(t *testing.T) {
	f := newFakeLLM().echoing().
		fail(markRoute, errors.New("down")).
		on(markSearchAnswer, "web answer")
	res := newTestEngine(t, f, &fakeRetriever{}, nil, nil).Process(context.Background(), "q", nil)
	assert.Equal(t, []ID{WebSearch}, res.Agents)
	assert.Equal(t, "fallback", res.Reasoning)
	assert.Contains(t, res.ResponseSummary, "web answer")
}

func TestEngineForcesWebSearchOnBreakdown(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
	}{
		{name: "pipeline panics", setup: func(e *Engine) { e.pipelines[IT] = panicPipeline{} }},
		{name: "no pipeline for agent", setup: func(e *Engine) { delete(e.pipelines, IT) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeLLM().echoing().
				on(markRoute, "IT").
				on(markSearchAnswer, "web rescue")
			e := newTestEngine(t, f, &fakeRetriever{}, nil, nil)
			tt.setup(e)

			var res FinalResult
			require.NotPanics(t, func() { res = e.Process(context.Background(), "q", nil) })
			assert.Equal(t, []ID{WebSearch}, res.Agents)
			assert.Equal(t, "fallback", res.Reasoning)
			assert.Contains(t, res.ResponseSummary, "web rescue")
		})
	}
}

func TestEngineApologizesWhenEverythingFails(t *testing.T) {
	f := newFakeLLM().on(markRoute, "IT")
	e := newTestEngine(t, f, &fakeRetriever{}, nil, nil)
	e.pipelines[IT] = panicPipeline{}
	e.web = panicPipeline{}

	res := e.Process(context.Background(), "q", nil)
	assert.Equal(t, []ID{WebSearch}, res.Agents)
	assert.Equal(t, apology, res.ResponseSummary)
}

func TestNewEngineValidation(t *testing.T) {
	f := newFakeLLM()
	_, err := NewEngine(Capabilities{}, Options{})
	assert.Error(t, err)

	_, err = NewEngine(Capabilities{Completer: f}, Options{Domains: []DomainDescriptor{{ID: "LEGAL"}}})
	assert.Error(t, err)

	_, err = NewEngine(Capabilities{Completer: f}, Options{Domains: []DomainDescriptor{{ID: WebSearch}}})
	assert.Error(t, err)

	_, err = NewEngine(Capabilities{Completer: f}, Options{Domains: []DomainDescriptor{{ID: IT}, {ID: IT}}})
	assert.Error(t, err)
}

func TestProcessedAgentsMatchRouting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		routed := rapid.SliceOfN(rapid.SampledFrom(AllIDs), 1, 6).Draw(t, "routed")
		reply := strings.Join(idStrings(routed), ", ")

		var want []ID
		for _, id := range routed {
			if !contains(want, id) {
				want = append(want, id)
			}
		}

		f := newFakeLLM().on(markRoute, reply).on(markConfidence, "90").on(markAnswer, "domain answer")
		f.def = "plain"
		obs := &recordingObserver{}
		res := newTestEngine(t, f, &fakeRetriever{}, nil, obs).Process(context.Background(), "q", nil)

		if diff := cmp.Diff(want, res.Agents); diff != "" {
			t.Fatalf("agents mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want, obs.finished); diff != "" {
			t.Fatalf("execution order mismatch (-want +got):\n%s", diff)
		}
	})
}

func contains(ids []ID, id ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
