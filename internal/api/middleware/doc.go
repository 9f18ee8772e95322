// Package middleware provides the HTTP middleware of the tab API.
//
// Middleware stack includes:
//   - CORS: cross-origin access for the browser front end
//   - RateLimit: per-IP token bucket limiting with idle client eviction
//   - Gzip: response compression (klauspost/compress)
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.Gzip(gzip.DefaultCompression, "/stream", "/metrics"))
package middleware
