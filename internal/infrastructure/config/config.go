package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Logging   LogConfig       `toml:"logging" yaml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Tabs      TabsConfig      `toml:"tabs" yaml:"tabs"`
	Settings  SettingsConfig  `toml:"settings" yaml:"settings"`
	NoteTree  NoteTreeConfig  `toml:"note_tree" yaml:"note_tree"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" toml:"port" yaml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" toml:"host" yaml:"host"`
	Gzip bool   `envconfig:"HTTP_GZIP" default:"true" toml:"gzip" yaml:"gzip"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"rps" yaml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled" yaml:"enabled"`
}

// TabsConfig holds tab session behaviour.
type TabsConfig struct {
	SaveIntervalMillis int    `envconfig:"TABS_SAVE_INTERVAL_MS" default:"1000" toml:"save_interval_ms" yaml:"save_interval_ms"`
	Mobile             bool   `envconfig:"TABS_MOBILE" default:"false" toml:"mobile" yaml:"mobile"`
	BaseTitle          string `envconfig:"TABS_BASE_TITLE" default:"Trilium Notes" toml:"base_title" yaml:"base_title"`
	HistoryLimit       int    `envconfig:"TABS_HISTORY_LIMIT" default:"100" toml:"history_limit" yaml:"history_limit"`
	InitialHash        string `envconfig:"TABS_INITIAL_HASH" default:"" toml:"initial_hash" yaml:"initial_hash"`
}

// SaveInterval returns the persistence spacing as a duration.
func (t TabsConfig) SaveInterval() time.Duration {
	return time.Duration(t.SaveIntervalMillis) * time.Millisecond
}

// SettingsConfig selects the key-value store holding the session.
type SettingsConfig struct {
	Backend       string `envconfig:"SETTINGS_BACKEND" default:"sqlite" toml:"backend" yaml:"backend"`
	SQLitePath    string `envconfig:"SETTINGS_SQLITE_PATH" default:"/tmp/trilium-tabs/options.db" toml:"sqlite_path" yaml:"sqlite_path"`
	RemoteURL     string `envconfig:"SETTINGS_REMOTE_URL" default:"http://localhost:8080/api" toml:"remote_url" yaml:"remote_url"`
	RemoteToken   string `envconfig:"SETTINGS_REMOTE_TOKEN" default:"" toml:"remote_token" yaml:"remote_token"`
	OpenTabsKey   string `envconfig:"SETTINGS_OPEN_TABS_KEY" default:"openTabs" toml:"open_tabs_key" yaml:"open_tabs_key"`
	HoistedKey    string `envconfig:"SETTINGS_HOISTED_KEY" default:"hoistedNoteId" toml:"hoisted_key" yaml:"hoisted_key"`
	TimeoutMillis int    `envconfig:"SETTINGS_TIMEOUT_MS" default:"5000" toml:"timeout_ms" yaml:"timeout_ms"`
}

// Timeout returns the remote store timeout as a duration.
func (s SettingsConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMillis) * time.Millisecond
}

// NoteTreeConfig points at the note tree seed.
type NoteTreeConfig struct {
	SeedFile string `envconfig:"NOTE_TREE_SEED" default:"" toml:"seed_file" yaml:"seed_file"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads environment configuration and overlays the given TOML or
// YAML file on top of it. Values present in the file win.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Settings.Backend {
	case "sqlite", "remote", "memory":
	default:
		return fmt.Errorf("unknown settings backend %q", c.Settings.Backend)
	}
	if c.Tabs.SaveIntervalMillis < 0 {
		return fmt.Errorf("tabs save interval must not be negative")
	}
	if c.Settings.OpenTabsKey == "" {
		return fmt.Errorf("open tabs settings key is required")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
			Gzip: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Tabs: TabsConfig{
			SaveIntervalMillis: 1000,
			BaseTitle:          "Trilium Notes",
			HistoryLimit:       100,
		},
		Settings: SettingsConfig{
			Backend:       "sqlite",
			SQLitePath:    "/tmp/trilium-tabs/options.db",
			RemoteURL:     "http://localhost:8080/api",
			OpenTabsKey:   "openTabs",
			HoistedKey:    "hoistedNoteId",
			TimeoutMillis: 5000,
		},
	}
}
