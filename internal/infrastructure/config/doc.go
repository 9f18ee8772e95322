// Package config provides 12-factor configuration management for the tab
// session service.
//
// Configuration is loaded from environment variables with defaults; an
// optional TOML or YAML file can be overlaid with LoadFile, and CLI flags
// override both.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, gzip)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Tabs: Persistence spacing, mobile surface, document title
//   - Settings: Key-value store backend holding the open tabs
//   - NoteTree: Seed file for the note existence cache
//
// Example Usage:
//
//	cfg, err := config.LoadFile("tabs.toml")
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, HTTP_GZIP
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - TABS_SAVE_INTERVAL_MS, TABS_MOBILE, TABS_BASE_TITLE, TABS_HISTORY_LIMIT,
//     TABS_INITIAL_HASH
//   - SETTINGS_BACKEND, SETTINGS_SQLITE_PATH, SETTINGS_REMOTE_URL, SETTINGS_REMOTE_TOKEN
//   - NOTE_TREE_SEED
package config
