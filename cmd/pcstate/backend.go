package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/pcstate/internal/config"
	"github.com/atlanticdynamic/pcstate/internal/session"
	"github.com/atlanticdynamic/pcstate/internal/store"
	"github.com/atlanticdynamic/pcstate/internal/store/memstore"
	"github.com/atlanticdynamic/pcstate/internal/store/redisstore"
	"github.com/atlanticdynamic/pcstate/internal/store/retrystore"
	"github.com/atlanticdynamic/pcstate/internal/store/sqlitestore"
)

// openStore builds the configured backend, wrapped in the retry store when
// retries are enabled. The returned store is closed by the caller.
func openStore(ctx context.Context, sc config.StoreConfig, handler slog.Handler) (store.Manager, error) {
	var (
		inner store.Manager
		err   error
	)

	switch sc.Backend {
	case config.BackendMemory:
		inner = memstore.New(memstore.WithLogHandler(handler))
	case config.BackendSQLite:
		inner, err = sqlitestore.New(sc.SQLite.Path, sqlitestore.WithLogHandler(handler))
	case config.BackendRedis:
		inner, err = redisstore.New(ctx, redisstore.Options{
			Address:   sc.Redis.Address,
			Password:  sc.Redis.Password,
			DB:        sc.Redis.DB,
			KeyPrefix: sc.Redis.KeyPrefix,
		}, redisstore.WithLogHandler(handler))
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidBackend, sc.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", sc.Backend, err)
	}

	if !sc.Retry.Enabled() {
		return inner, nil
	}
	return retrystore.New(inner,
		retrystore.WithMaxRetries(uint64(sc.Retry.MaxRetries)),
		retrystore.WithBaseDelay(sc.Retry.BaseDelay.AsDuration()),
		retrystore.WithLogHandler(handler),
	), nil
}

func closeStore(st store.Manager) error {
	if c, ok := st.(store.Closer); ok {
		return c.Close()
	}
	return nil
}

func sessionSettings(tc config.TransactionConfig) session.Settings {
	return session.Settings{
		Optimistic:            tc.Optimistic,
		NontransactionalRead:  tc.NontransactionalRead,
		NontransactionalWrite: tc.NontransactionalWrite,
		RetainValues:          tc.RetainValues,
		RestoreValues:         tc.RestoreValues,
	}
}
