package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlanticdynamic/pcstate/internal/config"
	"github.com/atlanticdynamic/pcstate/internal/lifecycle"
)

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &bytes.Buffer{}
	app := newApp()
	app.Writer = buf
	app.ErrWriter = buf
	logPath := filepath.Join(t.TempDir(), "logs", "pcstate.log")
	err := app.Run(t.Context(), append([]string{"pcstate", "--log-output", logPath}, args...))
	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pcstate.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pcstate version dev")
}

func TestStates(t *testing.T) {
	out, err := run(t, "states")
	require.NoError(t, err)
	for _, s := range lifecycle.AllStates() {
		assert.Contains(t, out, s.String())
	}
	assert.Contains(t, out, "before-image")
}

func TestTransitions(t *testing.T) {
	t.Run("single state", func(t *testing.T) {
		out, err := run(t, "transitions", "PersistentClean")
		require.NoError(t, err)
		assert.Contains(t, out, "PersistentClean")
		assert.Contains(t, out, "writeField")
		assert.Contains(t, out, "PersistentDirty")
		assert.Contains(t, out, "deletePersistent")
		assert.Contains(t, out, "PersistentDeleted")
	})

	t.Run("every state", func(t *testing.T) {
		out, err := run(t, "transitions")
		require.NoError(t, err)
		assert.Contains(t, out, "AutoPersistentPending")
		assert.Contains(t, out, "Hollow")
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := run(t, "transitions", "Zombie")
		require.ErrorIs(t, err, lifecycle.ErrUnknownState)
	})
}

func TestWalk(t *testing.T) {
	t.Run("declared path", func(t *testing.T) {
		out, err := run(t, "walk", "Transient", "PersistentNew", "PersistentNewFlushed", "Hollow", "PersistentClean")
		require.NoError(t, err)
		assert.Contains(t, out, "Transient -> PersistentNew")
		assert.Contains(t, out, "Hollow -> PersistentClean")
		assert.Contains(t, out, "4 steps follow the lifecycle graph")
	})

	t.Run("undeclared step", func(t *testing.T) {
		out, err := run(t, "walk", "Transient", "PersistentNew", "PersistentDeletedFlushed")
		require.ErrorIs(t, err, lifecycle.ErrIllegalTransition)
		assert.Contains(t, err.Error(), "PersistentNew to PersistentDeletedFlushed")
		assert.Contains(t, out, "Transient -> PersistentNew")
	})

	t.Run("unknown state", func(t *testing.T) {
		_, err := run(t, "walk", "Transient", "Zombie")
		require.ErrorIs(t, err, lifecycle.ErrUnknownState)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := run(t, "walk", "Hollow")
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := writeConfig(t, `
version = "v1"

[store]
backend = "memory"
`)

	t.Run("summary", func(t *testing.T) {
		out, err := run(t, "validate", valid)
		require.NoError(t, err)
		assert.Contains(t, out, "valid:")
		assert.Contains(t, out, "Config Summary")
		assert.Contains(t, out, "- Store: memory")
	})

	t.Run("tree", func(t *testing.T) {
		out, err := run(t, "validate", "--tree", "--config", valid)
		require.NoError(t, err)
		assert.Contains(t, out, "pcstate Config (v1)")
	})

	t.Run("invalid", func(t *testing.T) {
		invalid := writeConfig(t, "[commit]\nconcurrency = 0\n")
		out, err := run(t, "validate", invalid)
		require.ErrorIs(t, err, config.ErrInvalidValue)
		assert.Contains(t, out, "invalid:")
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := run(t, "validate")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file path required")
	})
}

func assertDemoOutput(t *testing.T, out string) {
	t.Helper()
	assert.Contains(t, out, "create account")
	assert.Contains(t, out, "Transient --makePersistent--> PersistentNew")
	assert.Contains(t, out, "update and roll back")
	assert.Contains(t, out, "auto-persistent audit entry")
	assert.Contains(t, out, "AutoPersistentNew")
	assert.Contains(t, out, "balance is 175")
	assert.Contains(t, out, "committed")
	assert.Contains(t, out, "rolled_back")
	assert.Contains(t, out, "store insert: complete")
	assert.Contains(t, out, "store delete: complete")
}

func TestDemo(t *testing.T) {
	t.Run("memory defaults", func(t *testing.T) {
		out, err := run(t, "demo")
		require.NoError(t, err)
		assert.Contains(t, out, "pcstate demo (memory store)")
		assertDemoOutput(t, out)
	})

	t.Run("sqlite without retained values", func(t *testing.T) {
		path := writeConfig(t, fmt.Sprintf(`
[transaction]
retain_values = false
restore_values = true

[store]
backend = "sqlite"

[store.sqlite]
path = %q
`, filepath.Join(t.TempDir(), "objects.db")))

		out, err := run(t, "demo", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "pcstate demo (sqlite store)")
		assertDemoOutput(t, out)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		path := writeConfig(t, fmt.Sprintf(`
[store]
backend = "redis"

[store.redis]
address = %q
key_prefix = "demo:"

[store.retry]
max_retries = 0
`, mr.Addr()))

		out, err := run(t, "demo", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "pcstate demo (redis store)")
		assertDemoOutput(t, out)
	})

	t.Run("metrics", func(t *testing.T) {
		out, err := run(t, "demo", "--metrics")
		require.NoError(t, err)
		assert.Contains(t, out, "pcstate_transitions_total")
		assert.Contains(t, out, "pcstate_store_calls_total")
	})

	t.Run("unreachable redis", func(t *testing.T) {
		path := writeConfig(t, `
[store]
backend = "redis"

[store.redis]
address = "127.0.0.1:1"
`)
		_, err := run(t, "demo", "--config", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open redis store")
	})

	t.Run("invalid config", func(t *testing.T) {
		path := writeConfig(t, "[store]\nbackend = \"etcd\"\n")
		_, err := run(t, "demo", "--config", path)
		require.ErrorIs(t, err, config.ErrInvalidBackend)
	})
}
