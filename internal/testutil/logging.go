package testutil

import (
	"bytes"
	"log/slog"
	"sync"
)

// ThreadSafeBuffer collects log output written from concurrent commit and
// rollback fan-outs.
type ThreadSafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *ThreadSafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *ThreadSafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewLogHandler returns a debug-level text handler writing into buf, so
// tests can assert on log output.
func NewLogHandler(buf *ThreadSafeBuffer) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
}
