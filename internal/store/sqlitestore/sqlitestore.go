// Package sqlitestore is a store.Manager backed by SQLite. Each object is a
// row in objects and each stored field a row in fields holding its encoded
// value.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id TEXT PRIMARY KEY,
	class TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS fields (
	object_id TEXT NOT NULL REFERENCES objects(id) ON DELETE CASCADE,
	field INTEGER NOT NULL,
	value BLOB NOT NULL,
	PRIMARY KEY (object_id, field)
);
`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements store.Manager and store.Transactional using SQLite.
type Store struct {
	db     *sql.DB
	tx     *sql.Tx
	closed bool
	mu     sync.RWMutex
	logger *slog.Logger
}

var (
	_ store.Manager       = (*Store)(nil)
	_ store.Transactional = (*Store)(nil)
	_ store.Closer        = (*Store)(nil)
)

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithLogHandler sets the log handler for the store
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Store) {
		if handler != nil {
			s.logger = slog.New(handler).WithGroup("sqlitestore")
		}
	}
}

// New opens the database at dbPath. Use ":memory:" for a private in-memory
// database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases and open transactions
	// visible to every call
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: slog.Default().WithGroup("sqlitestore"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// atomically runs fn inside the open store transaction, or inside a
// transaction of its own when none is open.
func (s *Store) atomically(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Insert implements store.Manager
func (s *Store) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NotComplete, store.ErrClosed
	}
	id := h.ObjectID()
	err := s.atomically(ctx, func(q querier) error {
		exists, err := s.exists(ctx, q, id)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", store.ErrDuplicateObject, id)
		}
		if _, err := q.ExecContext(ctx,
			"INSERT INTO objects (id, class) VALUES (?, ?)",
			id.String(), h.Class().Name,
		); err != nil {
			return fmt.Errorf("insert object: %w", err)
		}
		return s.writeFields(ctx, q, loaded, h)
	})
	if err != nil {
		return store.NotComplete, err
	}
	s.logger.Debug("Object inserted", "id", id, "class", h.Class().Name)
	return store.Complete, nil
}

// Update implements store.Manager
func (s *Store) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NotComplete, store.ErrClosed
	}
	id := h.ObjectID()
	err := s.atomically(ctx, func(q querier) error {
		exists, err := s.exists(ctx, q, id)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
		}
		return s.writeFields(ctx, q, dirty, h)
	})
	if err != nil {
		return store.NotComplete, err
	}
	s.logger.Debug("Object updated", "id", id, "fields", store.Fields(dirty))
	return store.Complete, nil
}

// Delete implements store.Manager
func (s *Store) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.NotComplete, store.ErrClosed
	}
	id := h.ObjectID()
	err := s.atomically(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, "DELETE FROM fields WHERE object_id = ?", id.String()); err != nil {
			return fmt.Errorf("delete fields: %w", err)
		}
		res, err := q.ExecContext(ctx, "DELETE FROM objects WHERE id = ?", id.String())
		if err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
		}
		return nil
	})
	if err != nil {
		return store.NotComplete, err
	}
	s.logger.Debug("Object deleted", "id", id)
	return store.Complete, nil
}

// Fetch implements store.Manager
func (s *Store) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id := h.ObjectID()
	exists, err := s.exists(ctx, s.q(), id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
	}

	rows, err := s.q().QueryContext(ctx,
		"SELECT field, value FROM fields WHERE object_id = ? ORDER BY field",
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stored := make(map[int][]byte)
	for rows.Next() {
		var (
			field int
			value []byte
		)
		if err := rows.Scan(&field, &value); err != nil {
			return fmt.Errorf("scan field: %w", err)
		}
		stored[field] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate fields: %w", err)
	}

	cls := h.Class()
	for _, i := range store.Fields(fields) {
		data, ok := stored[i]
		if !ok {
			h.ReplaceField(i, cls.Zero(i))
			continue
		}
		if err := store.DecodeField(h, i, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) exists(ctx context.Context, q querier, id uuid.UUID) (bool, error) {
	if s.closed {
		return false, store.ErrClosed
	}
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM objects WHERE id = ?", id.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup object: %w", err)
	}
	return n > 0, nil
}

func (s *Store) writeFields(ctx context.Context, q querier, fields *bitset.BitSet, h store.Handle) error {
	id := h.ObjectID().String()
	for _, i := range store.Fields(fields) {
		data, err := store.EncodeField(h, i)
		if err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			"INSERT OR REPLACE INTO fields (object_id, field, value) VALUES (?, ?, ?)",
			id, i, data,
		); err != nil {
			return fmt.Errorf("write field %d: %w", i, err)
		}
	}
	return nil
}

// Begin implements store.Transactional
func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if s.tx != nil {
		return errors.New("sqlite transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit implements store.Transactional
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return store.ErrNoTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback implements store.Transactional
func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return store.ErrNoTransaction
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close implements store.Closer
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}
