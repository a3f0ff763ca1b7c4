// Package metrics records lifecycle transitions, store flushes and commit
// outcomes. Components default to NoopRecorder; a PrometheusRecorder is
// injected when metrics are wanted.
package metrics

import "time"

// FlushLabel enumerates store call results for counters.
type FlushLabel string

const (
	FlushComplete    FlushLabel = "complete"
	FlushNotComplete FlushLabel = "not_complete"
	FlushError       FlushLabel = "error"
)

// OutcomeLabel enumerates transaction outcomes.
type OutcomeLabel string

const (
	OutcomeCommitted  OutcomeLabel = "committed"
	OutcomeRolledBack OutcomeLabel = "rolled_back"
	OutcomeFailed     OutcomeLabel = "failed"
)

// Recorder defines the observability hooks used by the state manager and
// the session. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveTransition(from, event, to string)
	IncIllegalTransition(state, event string)
	IncFlush(operation string, result FlushLabel)
	ObserveCommit(outcome OutcomeLabel, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTransition(string, string, string)  {}
func (NoopRecorder) IncIllegalTransition(string, string)       {}
func (NoopRecorder) IncFlush(string, FlushLabel)               {}
func (NoopRecorder) ObserveCommit(OutcomeLabel, time.Duration) {}
