// Package logging provides structured logging utilities for deploykit
// components.
//
// It wraps the standard library slog package with shared defaults: JSON
// output to stderr, module and version context on every record, source
// location tracking for debug logs, and LOG_LEVEL environment configuration.
//
// Typical usage:
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("deploykit", version)
//	    slog.Info("run started", "project", "demo")
//	}
package logging
