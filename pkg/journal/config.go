package journal

import (
	"os"
	"strconv"
)

// Config controls the activity journal.
type Config struct {
	Path          string // SQLite file; empty disables the journal
	RetentionDays int    // Default 90
	RecordReads   bool   // Also record GET requests
}

// DefaultConfig returns the default configuration: disabled, 90 days retention.
func DefaultConfig() *Config {
	return &Config{RetentionDays: 90}
}

// Enabled reports whether a journal path is configured.
func (c *Config) Enabled() bool { return c != nil && c.Path != "" }

// ConfigFromEnv loads config from BAGTAG_JOURNAL_PATH,
// BAGTAG_JOURNAL_RETENTION_DAYS and BAGTAG_JOURNAL_RECORD_READS.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Path = os.Getenv("BAGTAG_JOURNAL_PATH")

	if v := os.Getenv("BAGTAG_JOURNAL_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}

	if v := os.Getenv("BAGTAG_JOURNAL_RECORD_READS"); v != "" {
		cfg.RecordReads, _ = strconv.ParseBool(v)
	}

	return cfg
}
