package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
version = "v1"

[logging]
format = "json"
level = "debug"

[transaction]
optimistic = true
nontransactional_read = true
nontransactional_write = true
retain_values = false
restore_values = true

[commit]
max_flush_passes = 3
concurrency = 2

[store]
backend = "sqlite"

[store.sqlite]
path = "/tmp/pcstate.db"

[store.retry]
max_retries = 5
base_delay = "10ms"
`

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, VersionLatest, cfg.Version)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.False(t, cfg.Transaction.Optimistic)
	assert.True(t, cfg.Transaction.NontransactionalRead)
	assert.False(t, cfg.Transaction.NontransactionalWrite)
	assert.True(t, cfg.Transaction.RetainValues)
	assert.False(t, cfg.Transaction.RestoreValues)
	assert.Equal(t, DefaultMaxFlushPasses, cfg.Commit.MaxFlushPasses)
	assert.Equal(t, DefaultConcurrency, cfg.Commit.Concurrency)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Store.Retry.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Store.Retry.BaseDelay.AsDuration())
}

func TestNewConfigFromBytes(t *testing.T) {
	cfg, err := NewConfigFromBytes([]byte(fullConfig))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
	assert.Equal(t, LogLevelDebug, cfg.Logging.Level)
	assert.Equal(t, TransactionConfig{
		Optimistic:            true,
		NontransactionalRead:  true,
		NontransactionalWrite: true,
		RetainValues:          false,
		RestoreValues:         true,
	}, cfg.Transaction)
	assert.Equal(t, CommitConfig{MaxFlushPasses: 3, Concurrency: 2}, cfg.Commit)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/pcstate.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 5, cfg.Store.Retry.MaxRetries)
	assert.Equal(t, Duration(10*time.Millisecond), cfg.Store.Retry.BaseDelay)

	// sections absent from the file keep their defaults
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Address)
	assert.Equal(t, "pcstate:", cfg.Store.Redis.KeyPrefix)
}

func TestNewConfigFromBytes_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := NewConfigFromBytes([]byte(`
[commit]
concurrency = 1
`))
	require.NoError(t, err)

	want := Default()
	want.Commit.Concurrency = 1
	assert.Equal(t, want, cfg)
}

func TestNewConfigFromBytes_Errors(t *testing.T) {
	t.Run("unsupported version", func(t *testing.T) {
		cfg, err := NewConfigFromBytes([]byte(`version = "v2"`))
		require.ErrorIs(t, err, ErrFailedToLoadConfig)
		require.ErrorIs(t, err, ErrUnsupportedConfigVer)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "unsupported config version: v2")
	})

	t.Run("invalid values", func(t *testing.T) {
		cfg, err := NewConfigFromBytes([]byte(`
[commit]
max_flush_passes = 0
`))
		require.ErrorIs(t, err, ErrFailedToValidateConfig)
		require.ErrorIs(t, err, ErrInvalidValue)
		assert.Nil(t, cfg)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewConfigFromBytes(nil)
		require.ErrorIs(t, err, ErrNoSourceProvided)
	})
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("toml file", func(t *testing.T) {
		path := filepath.Join(dir, "pcstate.toml")
		require.NoError(t, os.WriteFile(path, []byte(fullConfig), 0o644))

		cfg, err := NewConfig(path)
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "pcstate.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: v1"), 0o644))

		_, err := NewConfig(path)
		require.ErrorIs(t, err, ErrUnsupportedExtension)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewConfig(filepath.Join(dir, "absent.toml"))
		require.ErrorIs(t, err, ErrFailedToLoadConfig)
		assert.Contains(t, err.Error(), "does not exist")
	})
}

func TestConfigTree(t *testing.T) {
	cfg, err := NewConfigFromBytes([]byte(fullConfig))
	require.NoError(t, err)

	out := cfg.String()
	assert.Contains(t, out, "pcstate Config (v1)")
	assert.Contains(t, out, "Format: json")
	assert.Contains(t, out, "optimistic")
	assert.Contains(t, out, "Max flush passes: 3")
	assert.Contains(t, out, "sqlite")
	assert.Contains(t, out, "/tmp/pcstate.db")
	assert.Contains(t, out, "Retry: 5 times from 10ms")

	redis := Default()
	redis.Store.Backend = BackendRedis
	redis.Store.Redis.Password = "hunter2"
	redis.Store.Retry.MaxRetries = 0
	out = redis.String()
	assert.Contains(t, out, "localhost:6379")
	assert.Contains(t, out, "Retry: disabled")
	assert.NotContains(t, out, "hunter2")
}
