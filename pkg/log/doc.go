// Package log provides the gateway's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. It is backed by log/slog via a bridge
// handler that feeds our formatter and outputs, so slog-aware code and the
// facade produce identical lines.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("radio"))
//	l.Info("frame received", log.Int("bytes", 42))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config: text or JSON
// formatting, console/file/null outputs, key redaction and sampling.
//
// # Interop
//
// Libraries that log through the standard library (pebble, grpc) can be routed
// through a Logger with RedirectStdLog or ToStdLogger.
//
// Operator logs written here are separate from the device event log in
// internal/eventlog, which is what the web UI shows.
package log
