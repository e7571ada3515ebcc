package scan

import (
	"os"
	"time"
)

// EnvTimeout names the environment variable holding Config.Timeout as a Go
// duration ("30s", "2m"). pkg/config binds the same name through viper.
const EnvTimeout = "BAGTAG_SCAN_TIMEOUT"

// Config controls scan session behavior.
type Config struct {
	// Timeout bounds how long a session listens for a tag. Zero waits forever.
	Timeout time.Duration
}

// DefaultConfig returns the default scan configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// ConfigFromEnv loads config from environment variables.
// BAGTAG_SCAN_TIMEOUT
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}
