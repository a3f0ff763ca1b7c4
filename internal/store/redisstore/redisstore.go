// Package redisstore is a store.Manager that keeps each object in a Redis
// hash. Hash fields are the field indices; the class name lives under
// classKey. Writes made between Begin and Commit are staged locally and sent
// in one MULTI/EXEC pipeline.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"

	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/bits-and-blooms/bitset"
	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

const classKey = "_class"

type staged struct {
	deleted bool
	class   string
	fields  map[string]any
}

// Store implements store.Manager and store.Transactional on Redis.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*staged
	closed  bool
}

var (
	_ store.Manager       = (*Store)(nil)
	_ store.Transactional = (*Store)(nil)
	_ store.Closer        = (*Store)(nil)
)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, options Options, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       options.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", options.Address, err)
	}
	return NewWithClient(client, options.KeyPrefix, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, keyPrefix string, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: keyPrefix,
		logger: slog.Default().WithGroup("redisstore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id uuid.UUID) string {
	return s.prefix + "obj:" + id.String()
}

func encodeFields(fields *bitset.BitSet, h store.Handle) (map[string]any, error) {
	out := make(map[string]any)
	for _, i := range store.Fields(fields) {
		data, err := store.EncodeField(h, i)
		if err != nil {
			return nil, err
		}
		out[strconv.Itoa(i)] = string(data)
	}
	return out, nil
}

// exists must be called with s.mu held.
func (s *Store) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if p, ok := s.pending[id]; ok {
		return !p.deleted, nil
	}
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Insert implements store.Manager
func (s *Store) Insert(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	values, err := encodeFields(loaded, h)
	if err != nil {
		return store.NotComplete, err
	}
	id := h.ObjectID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.NotComplete, store.ErrClosed
	}

	if s.pending != nil {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return store.NotComplete, err
		}
		if exists {
			return store.NotComplete, fmt.Errorf("%w: %s", store.ErrDuplicateObject, id)
		}
		s.pending[id] = &staged{class: h.Class().Name, fields: values}
		return store.Complete, nil
	}

	created, err := s.client.HSetNX(ctx, s.key(id), classKey, h.Class().Name).Result()
	if err != nil {
		return store.NotComplete, fmt.Errorf("redis hsetnx: %w", err)
	}
	if !created {
		return store.NotComplete, fmt.Errorf("%w: %s", store.ErrDuplicateObject, id)
	}
	if len(values) > 0 {
		if err := s.client.HSet(ctx, s.key(id), values).Err(); err != nil {
			return store.NotComplete, fmt.Errorf("redis hset: %w", err)
		}
	}
	s.logger.Debug("Object inserted", "id", id)
	return store.Complete, nil
}

// Update implements store.Manager
func (s *Store) Update(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	values, err := encodeFields(dirty, h)
	if err != nil {
		return store.NotComplete, err
	}
	id := h.ObjectID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.NotComplete, store.ErrClosed
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return store.NotComplete, err
	}
	if !exists {
		return store.NotComplete, fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
	}

	if s.pending != nil {
		p, ok := s.pending[id]
		if !ok {
			p = &staged{fields: make(map[string]any)}
			s.pending[id] = p
		}
		maps.Copy(p.fields, values)
		return store.Complete, nil
	}

	if len(values) > 0 {
		if err := s.client.HSet(ctx, s.key(id), values).Err(); err != nil {
			return store.NotComplete, fmt.Errorf("redis hset: %w", err)
		}
	}
	s.logger.Debug("Object updated", "id", id, "fields", len(values))
	return store.Complete, nil
}

// Delete implements store.Manager
func (s *Store) Delete(
	ctx context.Context,
	loaded, dirty *bitset.BitSet,
	h store.Handle,
) (store.FlushStatus, error) {
	id := h.ObjectID()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.NotComplete, store.ErrClosed
	}

	exists, err := s.exists(ctx, id)
	if err != nil {
		return store.NotComplete, err
	}
	if !exists {
		return store.NotComplete, fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
	}

	if s.pending != nil {
		s.pending[id] = &staged{deleted: true}
		return store.Complete, nil
	}
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return store.NotComplete, fmt.Errorf("redis del: %w", err)
	}
	s.logger.Debug("Object deleted", "id", id)
	return store.Complete, nil
}

// Fetch implements store.Manager
func (s *Store) Fetch(ctx context.Context, fields *bitset.BitSet, h store.Handle) error {
	id := h.ObjectID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	p, isPending := s.pending[id]
	var overlay map[string]any
	if isPending {
		if p.deleted {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
		}
		overlay = maps.Clone(p.fields)
	}
	s.mu.Unlock()

	values, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis hgetall: %w", err)
	}
	if len(values) == 0 && !isPending {
		return fmt.Errorf("%w: %s", store.ErrObjectNotFound, id)
	}
	if values == nil {
		values = make(map[string]string)
	}
	for k, v := range overlay {
		values[k], _ = v.(string)
	}

	cls := h.Class()
	for _, i := range store.Fields(fields) {
		data, ok := values[strconv.Itoa(i)]
		if !ok {
			h.ReplaceField(i, cls.Zero(i))
			continue
		}
		if err := store.DecodeField(h, i, []byte(data)); err != nil {
			return err
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
	s.pending = make(map[uuid.UUID]*staged)
	return nil
}

// Commit implements store.Transactional
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if s.pending == nil {
		return store.ErrNoTransaction
	}
	pending := s.pending
	s.pending = nil
	if len(pending) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, p := range pending {
			key := s.key(id)
			if p.deleted {
				pipe.Del(ctx, key)
				continue
			}
			if p.class != "" {
				pipe.Del(ctx, key)
				pipe.HSet(ctx, key, classKey, p.class)
			}
			if len(p.fields) > 0 {
				pipe.HSet(ctx, key, p.fields)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis commit: %w", err)
	}
	s.logger.Debug("Store transaction committed", "objects", len(pending))
	return nil
}

// Rollback implements store.Transactional
func (s *Store) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if s.pending == nil {
		return store.ErrNoTransaction
	}
	s.pending = nil
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
	s.pending = nil
	return s.client.Close()
}
