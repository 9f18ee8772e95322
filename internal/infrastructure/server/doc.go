// Package server wires the tab session service together.
//
// New builds every component from configuration:
//  1. Settings store (sqlite, remote or memory) and note tree cache
//  2. Session persistence, address history and the notification bus
//  3. The tab manager, restored with LoadTabs
//  4. Gin router: recovery, tracing, metrics, CORS, rate limit, gzip
//  5. REST handlers, the /stream WebSocket and /metrics
//
// Shutdown stops the HTTP server first, then flushes the session so the
// last tab state is written before the store closes.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(ctx, cfg, logger, server.Overrides{})
//	go srv.Run()
//	defer srv.Shutdown(context.Background())
package server
