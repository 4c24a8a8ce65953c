// Package logger provides a structured logging interface for the feed service.
//
// It wraps the zerolog library to provide a small API with support for:
//   - Log levels (Debug, Info, Warn, Error)
//   - Structured logging with fields
//   - Pretty console output
//   - An append-only log file, the persistent sink for refresh messages
//   - A global logger instance for easy access
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "/var/log/igfeed/debug.log",
//	})
//
//	logger.Info("Service started")
//	logger.WithField("instagram_id", "C1a2B3").Warn("Failed to download image")
//
// Components take a Logger in their constructors; pass NewNopLogger or
// NewTestLogger in tests.
package logger
