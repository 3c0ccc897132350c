package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/krishg0kul/genai-multi-agent/chat"
	"github.com/krishg0kul/genai-multi-agent/llm"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ agent.Observer = (*Metrics)(nil)
	_ llm.Observer   = (*Metrics)(nil)
	_ chat.Observer  = (*Metrics)(nil)
)

func TestCounters(t *testing.T) {
	m := New()
	m.Routed([]agent.ID{agent.IT, agent.HR})
	m.Routed([]agent.ID{agent.IT})
	m.AgentFinished(agent.IT, agent.OutcomeFallback, time.Second)
	m.CompletionFinished("gemini", 200*time.Millisecond, nil)
	m.CompletionFinished("gemini", 10*time.Millisecond, errors.New("quota"))
	m.ChatFinished("ok", 3*time.Second)
	m.RecordHTTP("POST", "/chat", 200, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.routedAgents.WithLabelValues("IT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.routedAgents.WithLabelValues("HR")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.agentRuns.WithLabelValues("IT", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completionCalls.WithLabelValues("gemini", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/chat", "200")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ChatFinished("error", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `helpdesk_chat_requests_total{status="error"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
