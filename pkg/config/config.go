// Package config loads console settings from flags, environment, an optional
// config file and an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ariyeh/bagtag/pkg/api"
	"github.com/ariyeh/bagtag/pkg/inventory"
	"github.com/ariyeh/bagtag/pkg/journal"
	"github.com/ariyeh/bagtag/pkg/scan"
)

// EnvPrefix prefixes every environment variable, e.g. BAGTAG_API_BASE.
const EnvPrefix = "BAGTAG"

// DefaultAPIBase is the backend address used when none is configured.
const DefaultAPIBase = "http://127.0.0.1:8000"

// Keys; flags use the same names with dashes.
const (
	KeyAPIBase              = "api_base"
	KeyOrigin               = "origin"
	KeyReader               = "reader"
	KeyScanTimeout          = "scan_timeout"
	KeyInventoryMax         = "inventory_max"
	KeyHTTPTimeout          = "http_timeout"
	KeyJournalPath          = "journal_path"
	KeyJournalRetentionDays = "journal_retention_days"
	KeyJournalRecordReads   = "journal_record_reads"
	KeyLogLevel             = "log_level"
	KeyOutput               = "output"
)

var outputFormats = []string{"table", "json", "yaml"}

// Config is the resolved console configuration.
type Config struct {
	APIBase              string        `json:"apiBase" yaml:"apiBase"`
	Origin               string        `json:"origin" yaml:"origin"`
	Reader               string        `json:"reader" yaml:"reader"`
	ScanTimeout          time.Duration `json:"scanTimeout" yaml:"scanTimeout"`
	InventoryMax         int           `json:"inventoryMax" yaml:"inventoryMax"`
	HTTPTimeout          time.Duration `json:"httpTimeout" yaml:"httpTimeout"`
	JournalPath          string        `json:"journalPath" yaml:"journalPath"`
	JournalRetentionDays int           `json:"journalRetentionDays" yaml:"journalRetentionDays"`
	JournalRecordReads   bool          `json:"journalRecordReads" yaml:"journalRecordReads"`
	LogLevel             string        `json:"logLevel" yaml:"logLevel"`
	Output               string        `json:"output" yaml:"output"`
}

// Default returns the built-in defaults, seeded from the per-package
// environment configs.
func Default() *Config {
	sc := scan.ConfigFromEnv()
	ic := inventory.ConfigFromEnv()
	jc := journal.ConfigFromEnv()
	return &Config{
		APIBase:              DefaultAPIBase,
		Reader:               "none",
		ScanTimeout:          sc.Timeout,
		InventoryMax:         ic.MaxRows,
		HTTPTimeout:          api.DefaultTimeout,
		JournalPath:          jc.Path,
		JournalRetentionDays: jc.RetentionDays,
		JournalRecordReads:   jc.RecordReads,
		LogLevel:             "info",
		Output:               "table",
	}
}

func flagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String(flagName(KeyAPIBase), d.APIBase, "Backend base URL")
	flags.String(flagName(KeyOrigin), "", "Console origin used for the secure-context check (defaults to the API base)")
	flags.String(flagName(KeyReader), d.Reader, "Tag reader: none, stdin, script:<file.yaml> or a device path")
	flags.Duration(flagName(KeyScanTimeout), d.ScanTimeout, "Give up listening for a tag after this long (0 = never)")
	flags.Int(flagName(KeyInventoryMax), d.InventoryMax, "Rows kept in the inventory view")
	flags.Duration(flagName(KeyHTTPTimeout), d.HTTPTimeout, "Per-request HTTP timeout")
	flags.String(flagName(KeyJournalPath), d.JournalPath, "SQLite file for the activity journal (empty = disabled)")
	flags.Int(flagName(KeyJournalRetentionDays), d.JournalRetentionDays, "Days of journal events to keep")
	flags.Bool(flagName(KeyJournalRecordReads), d.JournalRecordReads, "Also journal read-only requests")
	flags.String(flagName(KeyLogLevel), d.LogLevel, "Log level: debug, info, warn, error")
	flags.StringP(flagName(KeyOutput), "o", d.Output, "Output format: "+strings.Join(outputFormats, ", "))
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// EnvFile is loaded into the process environment when it exists.
	// Variables already set are not overridden.
	EnvFile string
	// ConfigFile is an optional yaml/json/toml file read by viper.
	ConfigFile string
}

// Load resolves the configuration. flags may be nil.
func Load(flags *pflag.FlagSet, opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	d := Default()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIBase, d.APIBase)
	v.SetDefault(KeyOrigin, "")
	v.SetDefault(KeyReader, d.Reader)
	v.SetDefault(KeyScanTimeout, d.ScanTimeout)
	v.SetDefault(KeyInventoryMax, d.InventoryMax)
	v.SetDefault(KeyHTTPTimeout, d.HTTPTimeout)
	v.SetDefault(KeyJournalPath, d.JournalPath)
	v.SetDefault(KeyJournalRetentionDays, d.JournalRetentionDays)
	v.SetDefault(KeyJournalRecordReads, d.JournalRecordReads)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyOutput, d.Output)

	if flags != nil {
		for _, key := range []string{
			KeyAPIBase, KeyOrigin, KeyReader, KeyScanTimeout, KeyInventoryMax, KeyHTTPTimeout,
			KeyJournalPath, KeyJournalRetentionDays, KeyJournalRecordReads, KeyLogLevel, KeyOutput,
		} {
			if f := flags.Lookup(flagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	cfg := &Config{
		APIBase:              strings.TrimRight(v.GetString(KeyAPIBase), "/"),
		Origin:               v.GetString(KeyOrigin),
		Reader:               v.GetString(KeyReader),
		ScanTimeout:          v.GetDuration(KeyScanTimeout),
		InventoryMax:         v.GetInt(KeyInventoryMax),
		HTTPTimeout:          v.GetDuration(KeyHTTPTimeout),
		JournalPath:          v.GetString(KeyJournalPath),
		JournalRetentionDays: v.GetInt(KeyJournalRetentionDays),
		JournalRecordReads:   v.GetBool(KeyJournalRecordReads),
		LogLevel:             strings.ToLower(v.GetString(KeyLogLevel)),
		Output:               strings.ToLower(v.GetString(KeyOutput)),
	}
	if cfg.Origin == "" {
		cfg.Origin = cfg.APIBase
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.APIBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid %s %q: must be an http(s) URL", KeyAPIBase, c.APIBase))
	}
	if _, err := url.Parse(c.Origin); err != nil {
		errs = append(errs, fmt.Errorf("invalid %s %q: %w", KeyOrigin, c.Origin, err))
	}
	if c.ScanTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyScanTimeout))
	}
	if c.InventoryMax < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyInventoryMax))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyHTTPTimeout))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if !validOutput(c.Output) {
		errs = append(errs, fmt.Errorf("unsupported %s %q (use %s)", KeyOutput, c.Output, strings.Join(outputFormats, ", ")))
	}
	return errors.Join(errs...)
}

func validOutput(o string) bool {
	for _, f := range outputFormats {
		if o == f {
			return true
		}
	}
	return false
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid %s %q", KeyLogLevel, c.LogLevel)
	}
	return lvl, nil
}

// OriginURL parses Origin.
func (c *Config) OriginURL() (*url.URL, error) {
	return url.Parse(c.Origin)
}

// ScanConfig returns the scan session settings.
func (c *Config) ScanConfig() *scan.Config {
	return &scan.Config{Timeout: c.ScanTimeout}
}

// InventoryConfig returns the inventory cache settings.
func (c *Config) InventoryConfig() *inventory.Config {
	return &inventory.Config{MaxRows: c.InventoryMax}
}

// JournalConfig returns the activity journal settings.
func (c *Config) JournalConfig() *journal.Config {
	return &journal.Config{
		Path:          c.JournalPath,
		RetentionDays: c.JournalRetentionDays,
		RecordReads:   c.JournalRecordReads,
	}
}
