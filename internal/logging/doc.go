// Package logging provides daydeck's logging infrastructure built on
// charmbracelet/log.
//
// It wraps charmbracelet/log in a small factory so every package logs with a
// component prefix and inherits one centrally configured level and formatter.
// All log output goes to stderr; stdout is reserved for structured output
// (JSON, tables, the live board).
//
// Usage:
//
//	// During CLI initialization (PersistentPreRun):
//	logging.Setup(verbose, quiet, jsonFormat)
//
//	// In each package:
//	var logger = logging.New("store")
//	logger.Info("day document fetched", "date", "2025-03-14", "tasks", 7)
//
// Setup must be called before New. charmbracelet/log child loggers copy
// state at creation time; later changes to the default logger do not
// propagate to existing children.
package logging
