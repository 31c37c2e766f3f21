// Package logging provides structured logging for octanews.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the client: connection lifecycle events, WebSocket
// message traces and raw byte dumps.
//
// # Log Levels
//
//   - Debug: Detailed debugging info (hex dumps, ping ticks)
//   - Info: Normal operations (login, session opened/closed, state changes)
//   - Warn: Non-fatal issues (401 on upgrade, proxy fallback, reconnects)
//   - Error: Failures the caller or the keep-alive loop has to deal with
//
// # Structured Logging
//
//	logging.Info("Session opened",
//	    zap.String("endpoint", "wss://octane.example.com/messaging"),
//	    zap.String("session_id", id),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, OCTANEWS_LOG_LEVEL is consulted. When neither is
// set the logger is a no-op, which keeps library use and CLI output quiet.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
