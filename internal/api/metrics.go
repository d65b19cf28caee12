package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/northdesk/triage/internal/engine"
)

var (
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_decisions_total",
		Help: "Assignment decisions by outcome.",
	}, []string{"assignment_type"})

	decisionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "triage_decision_duration_seconds",
		Help:    "End-to-end decision latency.",
		Buckets: prometheus.DefBuckets,
	})

	rulesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "triage_rules_applied_total",
		Help: "Rule firings by rule name.",
	}, []string{"rule"})
)

func observeDecision(d *engine.Decision, elapsed time.Duration) {
	decisionsTotal.WithLabelValues(string(d.Type)).Inc()
	decisionDuration.Observe(elapsed.Seconds())
	for _, rule := range d.AppliedRules {
		rulesApplied.WithLabelValues(rule).Inc()
	}
}
