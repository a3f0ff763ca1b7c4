// Package config loads and validates the pcstate TOML configuration.
package config

import (
	"fmt"
	"time"
)

const (
	VersionLatest  = "v1"
	VersionUnknown = "unknown"
)

// Config is the root of the pcstate configuration file.
type Config struct {
	Version     string            `toml:"version"`
	Logging     LoggingConfig     `toml:"logging"`
	Transaction TransactionConfig `toml:"transaction"`
	Commit      CommitConfig      `toml:"commit"`
	Store       StoreConfig       `toml:"store"`
}

// TransactionConfig holds the flags a session starts its transaction with.
type TransactionConfig struct {
	Optimistic            bool `toml:"optimistic"`
	NontransactionalRead  bool `toml:"nontransactional_read"`
	NontransactionalWrite bool `toml:"nontransactional_write"`
	RetainValues          bool `toml:"retain_values"`
	RestoreValues         bool `toml:"restore_values"`
}

// CommitConfig tunes how a session completes a transaction.
type CommitConfig struct {
	MaxFlushPasses int `toml:"max_flush_passes"`
	Concurrency    int `toml:"concurrency"`
}

const (
	DefaultMaxFlushPasses = 8
	DefaultConcurrency    = 4
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = Duration(50 * time.Millisecond)
)

// Default returns a configuration populated with every default value.
func Default() *Config {
	return &Config{
		Version: VersionLatest,
		Logging: LoggingConfig{
			Format: LogFormatText,
			Level:  LogLevelInfo,
		},
		Transaction: TransactionConfig{
			NontransactionalRead: true,
			RetainValues:         true,
		},
		Commit: CommitConfig{
			MaxFlushPasses: DefaultMaxFlushPasses,
			Concurrency:    DefaultConcurrency,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "pcstate:",
			},
			Retry: RetryConfig{
				MaxRetries: DefaultMaxRetries,
				BaseDelay:  DefaultRetryBaseDelay,
			},
		},
	}
}

// NewConfig loads configuration from a TOML file
func NewConfig(filePath string) (*Config, error) {
	l, err := NewLoaderFromFilePath(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}

	return l.GetConfig(), nil
}

// NewConfigFromBytes loads configuration from TOML bytes
func NewConfigFromBytes(data []byte) (*Config, error) {
	l, err := NewLoaderFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadConfig, err)
	}

	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToValidateConfig, err)
	}

	return l.GetConfig(), nil
}
