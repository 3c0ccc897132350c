// Package metrics exposes Prometheus metrics for chat turns, agent runs,
// completion calls and HTTP requests on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/krishg0kul/genai-multi-agent/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	chatRequests       *prometheus.CounterVec
	chatDuration       prometheus.Histogram
	routedAgents       *prometheus.CounterVec
	agentRuns          *prometheus.CounterVec
	agentDuration      *prometheus.HistogramVec
	completionCalls    *prometheus.CounterVec
	completionDuration *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec

	registry *prometheus.Registry
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		chatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_chat_requests_total",
				Help: "Chat turns by final status",
			},
			[]string{"status"},
		),
		chatDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "helpdesk_chat_duration_seconds",
				Help:    "End-to-end chat turn latency in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
		),
		routedAgents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_routed_agents_total",
				Help: "Specialists selected by the router",
			},
			[]string{"agent"},
		),
		agentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_agent_runs_total",
				Help: "Specialist runs by terminal outcome",
			},
			[]string{"agent", "outcome"},
		),
		agentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helpdesk_agent_duration_seconds",
				Help:    "Specialist run latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"agent"},
		),
		completionCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_completion_calls_total",
				Help: "Completion calls by provider and status",
			},
			[]string{"provider", "status"},
		),
		completionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helpdesk_completion_duration_seconds",
				Help:    "Completion call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helpdesk_http_requests_total",
				Help: "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helpdesk_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.chatRequests,
		m.chatDuration,
		m.routedAgents,
		m.agentRuns,
		m.agentDuration,
		m.completionCalls,
		m.completionDuration,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is exposed for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Routed(agents []agent.ID) {
	for _, id := range agents {
		m.routedAgents.WithLabelValues(id.String()).Inc()
	}
}

func (m *Metrics) AgentFinished(id agent.ID, outcome agent.Outcome, elapsed time.Duration) {
	m.agentRuns.WithLabelValues(id.String(), string(outcome)).Inc()
	m.agentDuration.WithLabelValues(id.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) CompletionFinished(provider string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.completionCalls.WithLabelValues(provider, status).Inc()
	m.completionDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ChatFinished(status string, elapsed time.Duration) {
	m.chatRequests.WithLabelValues(status).Inc()
	m.chatDuration.Observe(elapsed.Seconds())
}

// RecordHTTP counts one served request. route is the matched pattern, not
// the raw path.
func (m *Metrics) RecordHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
