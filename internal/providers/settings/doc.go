// Package settings provides the key-value stores the tab session is
// persisted to: a local SQLite options table, a note server's HTTP options
// API, and an in-memory map for tests and ephemeral runs.
package settings
