package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariyeh/bagtag/pkg/scan"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newFlags(t), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIBase, cfg.APIBase)
	assert.Equal(t, DefaultAPIBase, cfg.Origin)
	assert.Equal(t, "none", cfg.Reader)
	assert.Equal(t, 50, cfg.InventoryMax)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 90, cfg.JournalRetentionDays)
	assert.Equal(t, "table", cfg.Output)
	assert.False(t, cfg.JournalConfig().Enabled())
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("BAGTAG_API_BASE", "https://env.example.com/")
	t.Setenv("BAGTAG_SCAN_TIMEOUT", "15s")
	t.Setenv("BAGTAG_OUTPUT", "yaml")

	cfg, err := Load(newFlags(t, "--output", "json", "--inventory-max", "10"), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIBase)
	assert.Equal(t, 15*time.Second, cfg.ScanConfig().Timeout)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 10, cfg.InventoryConfig().MaxRows)
}

func TestLoad_ScanTimeoutSingleEnvName(t *testing.T) {
	t.Setenv(scan.EnvTimeout, "45s")

	assert.Equal(t, 45*time.Second, Default().ScanTimeout)

	cfg, err := Load(newFlags(t), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.ScanTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BAGTAG_ORIGIN=https://console.example.com\nBAGTAG_JOURNAL_PATH="+filepath.Join(dir, "j.db")+"\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BAGTAG_ORIGIN")
		os.Unsetenv("BAGTAG_JOURNAL_PATH")
	})

	cfg, err := Load(nil, LoadOptions{EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, "https://console.example.com", cfg.Origin)
	u, err := cfg.OriginURL()
	require.NoError(t, err)
	assert.Equal(t, "console.example.com", u.Host)
	assert.True(t, cfg.JournalConfig().Enabled())
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load(nil, LoadOptions{EnvFile: filepath.Join(t.TempDir(), "absent.env")})
	assert.NoError(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bagtag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_base: http://10.0.0.5:9000\nreader: stdin\nlog_level: debug\n"), 0o600))

	cfg, err := Load(newFlags(t), LoadOptions{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.APIBase)
	assert.Equal(t, "stdin", cfg.Reader)
	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad api base", []string{"--api-base", "ftp://x"}, "invalid api_base"},
		{"bad output", []string{"--output", "xml"}, "unsupported output"},
		{"bad level", []string{"--log-level", "loud"}, "invalid log_level"},
		{"bad cap", []string{"--inventory-max", "0"}, "inventory_max must be at least 1"},
		{"negative timeout", []string{"--scan-timeout=-1s"}, "scan_timeout must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...), LoadOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
