package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecallLastQuestion(t *testing.T) {
	history := History{userEntry("A"), assistantEntry("B"), userEntry("C")}
	f := newFakeLLM()
	w := NewWebSearchPipeline(f, &fakeSearcher{}, 5)

	resp, err := w.Run(context.Background(), "what was my last question?", history)
	require.NoError(t, err)
	assert.Equal(t, `Your last question was: "C"`, resp.Text)
	assert.True(t, resp.Verbatim)
	assert.Equal(t, OutcomeHistory, resp.Outcome)
	assert.Zero(t, f.calls(), "recall is answered without the model")
}

func TestRecallQuotesQuestionVerbatim(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"embedded quotes", `What does "PTO" mean?`},
		{"multi-line", "Line one\nline two"},
		{"backslash", `Where is C:\Users\me\vpn.cfg?`},
		{"unicode", "Wie beantrage ich Urlaub? 休假"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := History{userEntry(tt.content), assistantEntry("answer")}
			text := recallLastQuestion("what was my last question?", history)
			assert.Equal(t, "Your last question was: \""+tt.content+"\"", text)
		})
	}
}

func TestRecallWithEmptyHistory(t *testing.T) {
	f := newFakeLLM()
	text := NewWebSearchPipeline(f, &fakeSearcher{}, 5).ProcessQuery(context.Background(), "what was my last question?", nil)
	assert.Contains(t, text, "no record of your previous questions")
	assert.Zero(t, f.calls())
}

func TestRecallSkipsCurrentQueryAndAssistantTurns(t *testing.T) {
	history := History{
		userEntry("How many vacation days do I get?"),
		assistantEntry("25 days."),
		{Content: "Is the VPN down?"}, // entries without a role count as the user's
		assistantEntry("No."),
		userEntry("What was my previous question"),
	}
	text := recallLastQuestion("what was my previous question", history)
	assert.Equal(t, `Your last question was: "Is the VPN down?"`, text)

	assert.Equal(t, noRecord, recallLastQuestion("q", History{assistantEntry("hello")}))
}

func TestGreeting(t *testing.T) {
	s := &fakeSearcher{}
	f := newFakeLLM().
		on(markGreetClassify, "GREETING").
		on(markGreetReply, "Hi there! How can I help you today?")
	resp, err := NewWebSearchPipeline(f, s, 5).Run(context.Background(), "hello!", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeGreeting, resp.Outcome)
	assert.Equal(t, "Hi there! How can I help you today?", resp.Text)
	assert.Zero(t, s.calls)
}

func TestGreetingReplyFailureUsesDefault(t *testing.T) {
	f := newFakeLLM().on(markGreetClassify, "GREETING").fail(markGreetReply, errors.New("down"))
	assert.Equal(t, defaultGreeting, NewWebSearchPipeline(f, nil, 5).ProcessQuery(context.Background(), "hey", nil))
}

func TestDetectQueryType(t *testing.T) {
	history := History{userEntry("How do I reset my password?"), assistantEntry("Use the portal.")}
	tests := []struct {
		name    string
		llm     *fakeLLM
		history History
		want    QueryType
	}{
		{name: "greeting", llm: newFakeLLM().on(markGreetClassify, "GREETING"), history: history, want: QueryGreeting},
		{name: "history", llm: newFakeLLM().on(markHistClassify, "HISTORY"), history: history, want: QueryHistory},
		{name: "new topic", llm: newFakeLLM().on(markHistClassify, "NEW_TOPIC"), history: history, want: QueryNewTopic},
		{name: "history needs history", llm: newFakeLLM().on(markHistClassify, "HISTORY"), history: nil, want: QueryNewTopic},
		{name: "greeting check fails", llm: newFakeLLM().fail(markGreetClassify, errors.New("x")).on(markHistClassify, "HISTORY"), history: history, want: QueryHistory},
		{name: "history check fails", llm: newFakeLLM().fail(markHistClassify, errors.New("x")), history: history, want: QueryNewTopic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWebSearchPipeline(tt.llm, nil, 5)
			assert.Equal(t, tt.want, w.DetectQueryType(context.Background(), "tell me more about that", tt.history))
		})
	}

	f := newFakeLLM()
	NewWebSearchPipeline(f, nil, 5).DetectQueryType(context.Background(), "q", nil)
	assert.Empty(t, f.promptsWith(markHistClassify), "no history classification without history")
}

func TestHistoryQuestion(t *testing.T) {
	history := History{userEntry("How do I reset my password?"), assistantEntry("Use the portal.")}

	t.Run("clear", func(t *testing.T) {
		s := &fakeSearcher{}
		f := newFakeLLM().
			on(markHistClassify, "HISTORY").
			on(markHistAmbiguity, "CLEAR").
			on(markHistAnswer, `You asked "How do I reset my password?"`)
		resp, err := NewWebSearchPipeline(f, s, 5).Run(context.Background(), "what did we talk about?", history)
		require.NoError(t, err)
		assert.Equal(t, OutcomeHistory, resp.Outcome)
		assert.False(t, resp.Verbatim)
		assert.Contains(t, resp.Text, "reset my password")
		assert.Zero(t, s.calls)
		assert.Contains(t, f.promptsWith(markHistAnswer)[0], "User: How do I reset my password?\nAssistant: Use the portal.")
	})

	t.Run("ambiguous", func(t *testing.T) {
		f := newFakeLLM().
			on(markHistClassify, "HISTORY").
			on(markHistAmbiguity, "AMBIGUOUS").
			on(markHistClarify, "Do you mean the password question?")
		resp, _ := NewWebSearchPipeline(f, nil, 5).Run(context.Background(), "what about that thing?", history)
		assert.Equal(t, OutcomeClarification, resp.Outcome)
		assert.Equal(t, "Do you mean the password question?", resp.Text)
	})

	t.Run("answer fails", func(t *testing.T) {
		f := newFakeLLM().on(markHistClassify, "HISTORY").fail(markHistAnswer, errors.New("down"))
		assert.Equal(t, apology, NewWebSearchPipeline(f, nil, 5).ProcessQuery(context.Background(), "what did we discuss?", history))
	})
}

func serpBody(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"title":"Result %c","link":"https://example.com/%d","snippet":"Snippet %d"}`, 'A'+i, i, i)
	}
	return `{"organic_results":[` + strings.Join(items, ",") + `]}`
}

func TestSearchAnswer(t *testing.T) {
	s := &fakeSearcher{raw: serpBody(7)}
	f := newFakeLLM().
		on(markSearchAmbig, "CLEAR").
		on(markSearchAnswer, "Paris is the capital of France [1].")
	resp, err := NewWebSearchPipeline(f, s, 5).Run(context.Background(), "What is the capital of France?", nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswer, resp.Outcome)
	assert.Equal(t, "Paris is the capital of France [1].", resp.Text)

	prompt := f.promptsWith(markSearchAnswer)[0]
	assert.Contains(t, prompt, "[1] \"Result A\"\nSnippet 0\nSource: https://example.com/0")
	assert.Contains(t, prompt, "[5] \"Result E\"")
	assert.NotContains(t, prompt, "[6]")
	assert.Contains(t, prompt, "Ignore anything you know")
	assert.Len(t, f.promptsWith(markSearchAmbig), 1)
}

func TestSearchAmbiguousAsksForClarification(t *testing.T) {
	f := newFakeLLM().
		on(markSearchAmbig, "AMBIGUOUS").
		on(markSearchClarify, "Do you mean Mercury the planet or the element?")
	resp, _ := NewWebSearchPipeline(f, &fakeSearcher{raw: serpBody(2)}, 5).Run(context.Background(), "Tell me about Mercury", nil)
	assert.Equal(t, OutcomeClarification, resp.Outcome)
	assert.Equal(t, "Do you mean Mercury the planet or the element?", resp.Text)
	assert.Empty(t, f.promptsWith(markSearchAnswer))
}

func TestSearchFailureProceedsWithoutResults(t *testing.T) {
	f := newFakeLLM().on(markSearchAnswer, "I could not find sources, but generally...")
	resp, err := NewWebSearchPipeline(f, &fakeSearcher{err: errors.New("503")}, 5).Run(context.Background(), "latest release?", nil)
	require.NoError(t, err)
	assert.Equal(t, "I could not find sources, but generally...", resp.Text)
	assert.Contains(t, f.promptsWith(markSearchAnswer)[0], noSearchResults)
	assert.Empty(t, f.promptsWith(markSearchAmbig))
}

func TestSearchResponseWithoutResultListCountsAsNoResults(t *testing.T) {
	body := `{"search_metadata":{"status":"Success"},"search_parameters":{"q":"obscure"},"answer_box":{"result":"42"}}`
	f := newFakeLLM().on(markSearchAnswer, "Nothing turned up for that.")
	resp, err := NewWebSearchPipeline(f, &fakeSearcher{raw: body}, 5).Run(context.Background(), "obscure thing?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Nothing turned up for that.", resp.Text)

	prompt := f.promptsWith(markSearchAnswer)[0]
	assert.Contains(t, prompt, noSearchResults)
	assert.NotContains(t, prompt, "search_metadata")
	assert.Empty(t, f.promptsWith(markSearchAmbig))
}

func TestSearchSynthesisFailureApologizes(t *testing.T) {
	f := newFakeLLM().fail(markSearchAnswer, errors.New("down"))
	resp, err := NewWebSearchPipeline(f, &fakeSearcher{raw: "plain text result"}, 5).Run(context.Background(), "q", History{userEntry("hi")})
	require.NoError(t, err)
	assert.Equal(t, apology, resp.Text)
}

func TestQueryTypeString(t *testing.T) {
	assert.Equal(t, "GREETING", QueryGreeting.String())
	assert.Equal(t, "HISTORY", QueryHistory.String())
	assert.Equal(t, "NEW_TOPIC", QueryNewTopic.String())
}
