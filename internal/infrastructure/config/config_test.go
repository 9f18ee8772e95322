package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "HOST", "HTTP_GZIP", "LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
	"TABS_SAVE_INTERVAL_MS", "TABS_MOBILE", "TABS_BASE_TITLE", "TABS_HISTORY_LIMIT", "TABS_INITIAL_HASH",
	"SETTINGS_BACKEND", "SETTINGS_SQLITE_PATH", "SETTINGS_REMOTE_URL", "SETTINGS_REMOTE_TOKEN",
	"SETTINGS_OPEN_TABS_KEY", "SETTINGS_HOISTED_KEY", "SETTINGS_TIMEOUT_MS", "NOTE_TREE_SEED",
}

// clearEnv unsets every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.True(t, cfg.Server.Gzip)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.Equal(t, time.Second, cfg.Tabs.SaveInterval())
	assert.False(t, cfg.Tabs.Mobile)
	assert.Equal(t, "Trilium Notes", cfg.Tabs.BaseTitle)

	assert.Equal(t, "sqlite", cfg.Settings.Backend)
	assert.Equal(t, "openTabs", cfg.Settings.OpenTabsKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"PORT":                  "9000",
		"HOST":                  "127.0.0.1",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
		"RATE_LIMIT_RPS":        "500",
		"RATE_LIMIT_BURST":      "1000",
		"RATE_LIMIT_ENABLED":    "false",
		"TABS_SAVE_INTERVAL_MS": "250",
		"TABS_MOBILE":           "true",
		"SETTINGS_BACKEND":      "remote",
		"SETTINGS_REMOTE_URL":   "http://notes:8080/api",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Tabs.SaveInterval())
	assert.True(t, cfg.Tabs.Mobile)
	assert.Equal(t, "remote", cfg.Settings.Backend)
	assert.Equal(t, "http://notes:8080/api", cfg.Settings.RemoteURL)
}

func TestLoadOrDefaultFallsBackOnBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_RPS", "lots")

	cfg := LoadOrDefault()
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileTOML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tabs.toml")
	content := `
[server]
port = "7000"

[tabs]
save_interval_ms = 50
mobile = true

[settings]
backend = "memory"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "keys absent from the file keep their env/default value")
	assert.Equal(t, 50*time.Millisecond, cfg.Tabs.SaveInterval())
	assert.True(t, cfg.Tabs.Mobile)
	assert.Equal(t, "memory", cfg.Settings.Backend)
}

func TestLoadFileYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tabs.yaml")
	content := `
logging:
  level: warn
note_tree:
  seed_file: notes.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "notes.yaml", cfg.NoteTree.SeedFile)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "tabs.ini")
	require.NoError(t, os.WriteFile(ini, []byte("port=1"), 0o644))
	_, err = LoadFile(ini)
	assert.ErrorContains(t, err, "unsupported config file extension")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[settings]\nbackend = \"postgres\"\n"), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "unknown settings backend")
}

func TestLoadFileEmptyPath(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
