package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "pcstate"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	transitions    *prom.CounterVec
	illegal        *prom.CounterVec
	flushes        *prom.CounterVec
	commitDuration *prom.HistogramVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a private registry.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by source state, event and target state",
		}, []string{"from", "event", "to"}),
		illegal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "illegal_transitions_total",
			Help:      "Rejected lifecycle events by state and event",
		}, []string{"state", "event"}),
		flushes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "store_calls_total",
			Help:      "Store calls by operation and result",
		}, []string{"operation", "result"}),
		commitDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of transaction completion by outcome",
			Buckets:   prom.DefBuckets,
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.transitions, pr.illegal, pr.flushes, pr.commitDuration)
	return pr
}

func (p *PrometheusRecorder) ObserveTransition(from, event, to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(from, event, to).Inc()
}

func (p *PrometheusRecorder) IncIllegalTransition(state, event string) {
	if p == nil || p.illegal == nil {
		return
	}
	p.illegal.WithLabelValues(state, event).Inc()
}

func (p *PrometheusRecorder) IncFlush(operation string, result FlushLabel) {
	if p == nil || p.flushes == nil {
		return
	}
	p.flushes.WithLabelValues(operation, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveCommit(outcome OutcomeLabel, d time.Duration) {
	if p == nil || p.commitDuration == nil {
		return
	}
	p.commitDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}
