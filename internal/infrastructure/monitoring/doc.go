/*
Package monitoring provides Prometheus metrics for the tab session service.

# Overview

Every Metrics value owns a private prometheus.Registry, so several instances
(one per test, for example) can coexist without duplicate registration
panics.

# Metrics

- HTTP request counts and latency per route template
- Open tab gauge and per-operation counters
- Published and dropped notifications
- Session write results and latency, settings store calls
- WebSocket connections and messages
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "sqlite", "put")
	err := store.Put(ctx, key, value)
	timer.Stop(err)
*/
package monitoring
