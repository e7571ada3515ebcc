package inventory

import (
	"os"
	"strconv"
)

// DefaultMaxRows is the number of rows kept by the inventory view.
const DefaultMaxRows = 50

// Config holds configuration for the inventory cache.
type Config struct {
	// MaxRows caps the view after a Prepend. Replace keeps every row the
	// server returned.
	MaxRows int
}

// DefaultConfig returns a Config with the default cap.
func DefaultConfig() *Config {
	return &Config{MaxRows: DefaultMaxRows}
}

// ConfigFromEnv reads BAGTAG_INVENTORY_MAX, falling back to the default for
// unset or non-positive values.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("BAGTAG_INVENTORY_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRows = n
		}
	}
	return cfg
}
