package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []error
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown version",
			mutate:  func(c *Config) { c.Version = "v999" },
			wantErr: []error{ErrUnsupportedConfigVer},
		},
		{
			name:    "empty version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: []error{ErrUnsupportedConfigVer},
		},
		{
			name: "bad logging",
			mutate: func(c *Config) {
				c.Logging.Format = "xml"
				c.Logging.Level = "loud"
			},
			wantErr: []error{ErrInvalidLogFormat, ErrInvalidLogLevel},
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Commit.Concurrency = 0 },
			wantErr: []error{ErrInvalidValue},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "etcd" },
			wantErr: []error{ErrInvalidBackend},
		},
		{
			name:    "empty backend",
			mutate:  func(c *Config) { c.Store.Backend = "" },
			wantErr: []error{ErrMissingRequiredField},
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Store.Backend = BackendSQLite },
			wantErr: []error{ErrMissingRequiredField},
		},
		{
			name: "sqlite with path",
			mutate: func(c *Config) {
				c.Store.Backend = BackendSQLite
				c.Store.SQLite.Path = "objects.db"
			},
		},
		{
			name: "redis without address",
			mutate: func(c *Config) {
				c.Store.Backend = BackendRedis
				c.Store.Redis.Address = ""
				c.Store.Redis.DB = -1
			},
			wantErr: []error{ErrMissingRequiredField, ErrInvalidValue},
		},
		{
			name: "redis settings ignored for memory",
			mutate: func(c *Config) {
				c.Store.Redis.Address = ""
			},
		},
		{
			name: "retry without delay",
			mutate: func(c *Config) {
				c.Store.Retry.BaseDelay = 0
			},
			wantErr: []error{ErrMissingRequiredField},
		},
		{
			name: "retry disabled",
			mutate: func(c *Config) {
				c.Store.Retry.MaxRetries = 0
				c.Store.Retry.BaseDelay = 0
			},
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Store.Retry.MaxRetries = -1 },
			wantErr: []error{ErrInvalidValue},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			if len(tc.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestLogLevelFromString(t *testing.T) {
	for in, want := range map[string]LogLevel{
		"trace":   LogLevelTrace,
		"debug":   LogLevelDebug,
		"info":    LogLevelInfo,
		"warn":    LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"":        LogLevelUnspecified,
	} {
		got, err := LogLevelFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.True(t, got.IsValid())
	}

	_, err := LogLevelFromString("fatal")
	require.ErrorIs(t, err, ErrInvalidLogLevel)
}

func TestLogFormatFromString(t *testing.T) {
	for in, want := range map[string]LogFormat{
		"json": LogFormatJSON,
		"text": LogFormatText,
		"txt":  LogFormatText,
		"":     LogFormatUnspecified,
	} {
		got, err := LogFormatFromString(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := LogFormatFromString("xml")
	require.ErrorIs(t, err, ErrInvalidLogFormat)
}
