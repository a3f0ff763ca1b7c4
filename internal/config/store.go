package config

import (
	"errors"
	"fmt"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

func (b Backend) String() string {
	return string(b)
}

// IsValid reports whether b names a known store.
func (b Backend) IsValid() bool {
	switch b {
	case BackendMemory, BackendSQLite, BackendRedis:
		return true
	default:
		return false
	}
}

// StoreConfig selects and configures the object store.
type StoreConfig struct {
	Backend Backend      `toml:"backend"`
	SQLite  SQLiteConfig `toml:"sqlite"`
	Redis   RedisConfig  `toml:"redis"`
	Retry   RetryConfig  `toml:"retry"`
}

// SQLiteConfig configures the SQLite backend. String settings of the store
// section may reference environment variables as ${VAR} or ${VAR:default}.
type SQLiteConfig struct {
	Path string `toml:"path" env_interpolation:"yes"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Address   string `toml:"address"    env_interpolation:"yes"`
	Password  string `toml:"password"   env_interpolation:"yes"`
	DB        int    `toml:"db"`
	KeyPrefix string `toml:"key_prefix" env_interpolation:"yes"`
}

// RetryConfig controls how transient store failures are retried. A zero
// MaxRetries disables the retry wrapper.
type RetryConfig struct {
	MaxRetries int      `toml:"max_retries"`
	BaseDelay  Duration `toml:"base_delay"`
}

// Enabled reports whether store calls should be retried.
func (rc RetryConfig) Enabled() bool {
	return rc.MaxRetries > 0
}

// Validate checks the store section, including the settings of the selected
// backend only.
func (sc *StoreConfig) Validate() error {
	var errs []error

	switch sc.Backend {
	case BackendMemory:
	case BackendSQLite:
		if sc.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("%w: store.sqlite.path", ErrMissingRequiredField))
		}
	case BackendRedis:
		if sc.Redis.Address == "" {
			errs = append(errs, fmt.Errorf("%w: store.redis.address", ErrMissingRequiredField))
		}
		if sc.Redis.DB < 0 {
			errs = append(errs, fmt.Errorf("%w: store.redis.db must not be negative, got %d", ErrInvalidValue, sc.Redis.DB))
		}
	case "":
		errs = append(errs, fmt.Errorf("%w: store.backend", ErrMissingRequiredField))
	default:
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidBackend, sc.Backend))
	}

	if sc.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%w: store.retry.max_retries must not be negative, got %d", ErrInvalidValue, sc.Retry.MaxRetries))
	}
	if sc.Retry.BaseDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: store.retry.base_delay must not be negative, got %s", ErrInvalidValue, sc.Retry.BaseDelay))
	}
	if sc.Retry.Enabled() && sc.Retry.BaseDelay == 0 {
		errs = append(errs, fmt.Errorf("%w: store.retry.base_delay", ErrMissingRequiredField))
	}

	return errors.Join(errs...)
}
