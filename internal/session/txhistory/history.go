// Package txhistory keeps the records of recent session transactions.
package txhistory

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// DefaultMaxRecords is the default number of transactions to keep in history
const DefaultMaxRecords = 20

// History provides thread-safe storage for transaction records
type History struct {
	records []*Record

	// Current active transaction
	current *Record

	mu sync.RWMutex

	maxRecords int

	// Function to clean up records (e.g., remove old ones)
	cleanupFunc func([]*Record) []*Record

	logger *slog.Logger
}

// New creates a new transaction history with the given options
func New(opts ...Option) *History {
	h := &History{
		records:    make([]*Record, 0, 10),
		maxRecords: DefaultMaxRecords,
		logger:     slog.Default().WithGroup("txhistory"),
	}

	// Default cleanup function: keep only the last maxRecords
	h.cleanupFunc = func(recs []*Record) []*Record {
		if len(recs) <= h.maxRecords {
			return recs
		}
		return recs[len(recs)-h.maxRecords:]
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add appends a finished record and trims the history.
func (h *History) Add(rec *Record) {
	if rec == nil {
		return
	}
	h.logger.Debug("Adding transaction", "id", rec.ID.String(), "outcome", rec.Outcome)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == rec {
		h.current = nil
	}
	h.records = append(h.records, rec)
	if h.cleanupFunc != nil {
		h.records = h.cleanupFunc(h.records)
	}
}

// SetCurrent sets the current active transaction
func (h *History) SetCurrent(rec *Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = rec

	if rec != nil {
		h.logger.Debug("Setting current transaction", "id", rec.ID.String())
	} else {
		h.logger.Debug("Clearing current transaction")
	}
}

// GetCurrent returns the current active transaction
func (h *History) GetCurrent() *Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// GetAll returns all finished records, oldest first
func (h *History) GetAll() []*Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.records)
}

// GetByID returns a record by ID or nil if not found
func (h *History) GetByID(id string) *Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.current != nil && h.current.ID.String() == id {
		return h.current
	}
	for _, rec := range h.records {
		if rec.ID.String() == id {
			return rec
		}
	}
	return nil
}

// Last returns the most recently finished record, or nil.
func (h *History) Last() *Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.records) == 0 {
		return nil
	}
	return h.records[len(h.records)-1]
}

// Clear removes terminal records, keeping at least the last keepLast records.
// Returns the number of records cleared.
func (h *History) Clear(keepLast int) (int, error) {
	if keepLast < 0 {
		return 0, fmt.Errorf("keepLast must be non-negative, got %d", keepLast)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	total := len(h.records)
	if total <= keepLast {
		return 0, nil
	}

	toDelete := total - keepLast
	deleted := 0
	kept := make([]*Record, 0, keepLast)
	for _, rec := range h.records {
		if deleted < toDelete && rec.Terminal() {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	h.records = kept

	h.logger.Info("Cleared transactions", "cleared", deleted, "remaining", len(h.records))
	return deleted, nil
}
