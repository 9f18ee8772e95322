// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger; Component tags the child logger so
// tab, persistence and transport logs can be told apart.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	tabsLog := logger.Component("tabs")
//	tabsLog.Info("Tab opened", zap.String("tab_id", tabID))
package logging
