package txhistory

import (
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// Outcome is how a transaction ended.
type Outcome string

const (
	OutcomeActive     Outcome = "active"
	OutcomeCommitted  Outcome = "committed"
	OutcomeRolledBack Outcome = "rolled_back"
	OutcomeFailed     Outcome = "failed"
)

// Record describes one session transaction.
type Record struct {
	ID        uuid.UUID
	Outcome   Outcome
	StartedAt time.Time
	EndedAt   time.Time

	// Objects is the number of transactional objects at completion.
	Objects int
	// FlushPasses counts the flush passes the commit needed.
	FlushPasses int
	Err         error

	logs *loglater.LogCollector
}

// NewRecord starts the record of an active transaction whose log lines are
// kept by logs.
func NewRecord(id uuid.UUID, logs *loglater.LogCollector) *Record {
	return &Record{
		ID:        id,
		Outcome:   OutcomeActive,
		StartedAt: time.Now(),
		logs:      logs,
	}
}

// Finish closes the record.
func (r *Record) Finish(outcome Outcome, objects, passes int, err error) {
	r.Outcome = outcome
	r.Objects = objects
	r.FlushPasses = passes
	r.Err = err
	r.EndedAt = time.Now()
}

// Terminal reports whether the transaction has ended.
func (r *Record) Terminal() bool {
	return r.Outcome != OutcomeActive
}

// Duration returns how long the transaction ran, or has run so far.
func (r *Record) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// LogCount returns the number of log lines captured for the transaction.
func (r *Record) LogCount() int {
	if r.logs == nil {
		return 0
	}
	return len(r.logs.GetLogs())
}

// PlaybackLogs plays back the transaction logs to the given handler
func (r *Record) PlaybackLogs(handler slog.Handler) error {
	if r.logs == nil {
		return nil
	}
	return r.logs.PlayLogs(handler)
}
