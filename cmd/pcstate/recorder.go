package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/atlanticdynamic/pcstate/internal/fancy"
	"github.com/atlanticdynamic/pcstate/internal/metrics"
)

// printRecorder writes every state change and store call to w before
// passing it on to next.
type printRecorder struct {
	mu   sync.Mutex
	w    io.Writer
	next metrics.Recorder
}

var _ metrics.Recorder = (*printRecorder)(nil)

func newPrintRecorder(w io.Writer, next metrics.Recorder) *printRecorder {
	if next == nil {
		next = metrics.NoopRecorder{}
	}
	return &printRecorder{w: w, next: next}
}

func (p *printRecorder) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *printRecorder) ObserveTransition(from, event, to string) {
	if from != to {
		p.printf("    %s --%s--> %s\n", fancy.StateText(from), fancy.EventText(event), fancy.StateText(to))
	}
	p.next.ObserveTransition(from, event, to)
}

func (p *printRecorder) IncIllegalTransition(state, event string) {
	p.printf("    %s %s in %s\n", fancy.ErrorText("illegal"), fancy.EventText(event), fancy.StateText(state))
	p.next.IncIllegalTransition(state, event)
}

func (p *printRecorder) IncFlush(operation string, result metrics.FlushLabel) {
	p.printf("    store %s: %s\n", operation, result)
	p.next.IncFlush(operation, result)
}

func (p *printRecorder) ObserveCommit(outcome metrics.OutcomeLabel, d time.Duration) {
	p.next.ObserveCommit(outcome, d)
}
