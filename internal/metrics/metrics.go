// Package metrics exposes the gateway's Prometheus instrumentation,
// grounded on the example pack's client_golang usage: a small set of
// named collectors registered once at startup, exercised by the
// orchestrator and HTTP layer rather than scattered ad hoc.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts completed chat-completion turns by outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qwen_gateway_requests_total",
		Help: "Total chat completion turns processed, by outcome.",
	}, []string{"outcome"})

	// UpstreamCallDuration observes upstream call latency by operation.
	UpstreamCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "qwen_gateway_upstream_call_duration_seconds",
		Help:    "Upstream Qwen call latency, by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// UpstreamErrorsTotal counts classified upstream failures by kind.
	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qwen_gateway_upstream_errors_total",
		Help: "Classified upstream errors, by error kind.",
	}, []string{"kind"})

	// ActiveSessions reports the current live (non-swept) session count.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qwen_gateway_active_sessions",
		Help: "Number of sessions not yet swept as expired.",
	})

	// SessionsSweptTotal counts sessions removed by the expiry sweeper.
	SessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwen_gateway_sessions_swept_total",
		Help: "Total sessions removed by the expiry sweeper.",
	})

	// StreamingChunksTotal counts SSE chunks written to clients.
	StreamingChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qwen_gateway_streaming_chunks_total",
		Help: "Total SSE chunks relayed to clients.",
	})
)
