// Package main is the entry point for the tab session service.
//
// The service owns the open tabs of one note workspace: which notes are
// open, in what order, and which tab is active. It restores them at start,
// persists them to the settings store as they change, and streams tab
// notifications to the browser front end.
//
// Architecture:
//
//	Front end (browser) → REST + WebSocket → tab manager → settings store
//	                                                     → note tree cache
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional TOML or YAML file (-config)
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -config /etc/trilium-tabs/config.toml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown, flushing the session first
package main
