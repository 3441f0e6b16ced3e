// Package logging provides structured logging for the checkout client and the
// SDK sandbox gateway.
//
// This package wraps zap logger with convenience functions for common logging
// patterns. It is the operator-facing log; the customer-facing log panel lives
// in package eventlog and mirrors its entries here at debug level.
//
// # Log Levels
//
//   - Debug: SDK calls, websocket frames, event log mirroring
//   - Info: Connections, SDK events, readiness transitions
//   - Warn: Dropped events, ignored duplicate signals
//   - Error: Load, initialization and mount failures
//
// # Configuration
//
// Logging is silent unless a level is given, either directly or through
// CHECKOUT_LOG_LEVEL:
//
//	if err := logging.InitializeToFile("debug", "/tmp/checkout.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The interactive checkout owns the terminal, so it writes to a file
// (CHECKOUT_LOG_FILE) rather than stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
