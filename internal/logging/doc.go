// Package logging provides structured logging for ibuslink.
//
// This package wraps zap with convenience functions for the logging
// patterns used throughout the tool. Logging is silent unless enabled,
// because the monitor command draws a full-screen TUI on the same
// terminal.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: detailed debugging info (raw link bytes, frame hex dumps)
//   - Info: normal operations (port opened, server started, clients)
//   - Warn: non-fatal issues (client drops, slow consumers)
//   - Error: fatal issues (startup failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("serial link opened",
//	    zap.String("port", "/dev/ttyUSB0"),
//	    zap.Int("baud", 115200),
//	)
//
// # Configuration
//
// Enable output by exporting IBUSLINK_LOG_LEVEL=debug|info|warn|error,
// or initialize explicitly at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so it can be redirected away from the TUI.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
