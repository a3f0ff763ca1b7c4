package config

import (
	"fmt"

	"github.com/atlanticdynamic/pcstate/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	return ConfigTree(c)
}

// ConfigTree converts a Config struct into a rendered tree string
func ConfigTree(cfg *Config) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(fmt.Sprintf("pcstate Config (%s)", cfg.Version)))

	loggingTree := t.Child("Logging")
	loggingTree.Child(fmt.Sprintf("Format: %s", cfg.Logging.Format))
	loggingTree.Child(fmt.Sprintf("Level: %s", cfg.Logging.Level))

	tx := cfg.Transaction
	txTree := t.Child("Transaction")
	txTree.Child(fancy.FlagText("optimistic", tx.Optimistic))
	txTree.Child(fancy.FlagText("nontransactional_read", tx.NontransactionalRead))
	txTree.Child(fancy.FlagText("nontransactional_write", tx.NontransactionalWrite))
	txTree.Child(fancy.FlagText("retain_values", tx.RetainValues))
	txTree.Child(fancy.FlagText("restore_values", tx.RestoreValues))

	commitTree := t.Child("Commit")
	commitTree.Child(fmt.Sprintf("Max flush passes: %d", cfg.Commit.MaxFlushPasses))
	commitTree.Child(fmt.Sprintf("Concurrency: %d", cfg.Commit.Concurrency))

	storeTree := t.Child(fmt.Sprintf("Store: %s", fancy.ComponentStyle.Render(cfg.Store.Backend.String())))
	switch cfg.Store.Backend {
	case BackendSQLite:
		storeTree.Child(fmt.Sprintf("Path: %s", fancy.PathText(cfg.Store.SQLite.Path)))
	case BackendRedis:
		storeTree.Child(fmt.Sprintf("Address: %s", cfg.Store.Redis.Address))
		storeTree.Child(fmt.Sprintf("DB: %d", cfg.Store.Redis.DB))
		storeTree.Child(fmt.Sprintf("Key prefix: %s", cfg.Store.Redis.KeyPrefix))
	}
	if cfg.Store.Retry.Enabled() {
		storeTree.Child(fmt.Sprintf("Retry: %d times from %s", cfg.Store.Retry.MaxRetries, cfg.Store.Retry.BaseDelay))
	} else {
		storeTree.Child("Retry: disabled")
	}

	return t.String()
}
