// Package metrics exposes Prometheus collectors for featureflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "featureflow"

// Recorder records workflow activity. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	transitions      *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	invocations      *prometheus.CounterVec
	invocationTime   *prometheus.HistogramVec
	prPolls          *prometheus.CounterVec
	activeSessions   prometheus.Gauge
	persistenceFails prometheus.Counter
}

// New registers the collectors with reg. Registering twice on the same
// registry panics, so tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Workflow state transitions.",
		}, []string{"from", "to"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_messages_total",
			Help:      "Inbound messages answered without a transition.",
		}, []string{"reason"}),
		invocations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "invocations_total",
			Help:      "Coding-agent invocations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		invocationTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "invocation_duration_seconds",
			Help:      "Wall-clock duration of coding-agent invocations.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 2400, 3600},
		}, []string{"kind"}),
		prPolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pr",
			Name:      "polls_total",
			Help:      "Pull request status checks by result.",
		}, []string{"result"}),
		activeSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions held in memory.",
		}),
		persistenceFails: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_errors_total",
			Help:      "Durable writes that failed and were swallowed.",
		}),
	}
}

// Transition counts a state change.
func (r *Recorder) Transition(from, to string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(from, to).Inc()
}

// Rejected counts a message answered without a transition.
func (r *Recorder) Rejected(reason string) {
	if r == nil {
		return
	}
	r.rejections.WithLabelValues(reason).Inc()
}

// Invocation records one agent run. outcome is "ok", "nonzero_exit" or
// "dispatch_error".
func (r *Recorder) Invocation(kind, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.invocations.WithLabelValues(kind, outcome).Inc()
	if d > 0 {
		r.invocationTime.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// PRPoll counts one status check; result is the PR state or "error".
func (r *Recorder) PRPoll(result string) {
	if r == nil {
		return
	}
	r.prPolls.WithLabelValues(result).Inc()
}

// SetActiveSessions sets the active session gauge.
func (r *Recorder) SetActiveSessions(n int) {
	if r == nil {
		return
	}
	r.activeSessions.Set(float64(n))
}

// PersistenceError counts a swallowed durable write failure.
func (r *Recorder) PersistenceError() {
	if r == nil {
		return
	}
	r.persistenceFails.Inc()
}
