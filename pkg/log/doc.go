// Package log records auto-transfer monitor events.
//
// This is separate from operational logging (slog). The event log is a
// machine-readable trace of every timer decision: which room was armed,
// replaced, cancelled, fired, skipped, or transferred, and why. It answers
// "why was (or wasn't) this chat transferred?" after the fact.
//
// # Basic Usage
//
//	// Development: events as slog debug lines
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// Production: append to a CBOR file
//	fl, _ := log.NewFileLogger("/var/log/autotransfer/events.atlog")
//	cfg.EventLogger = fl
//
//	// Both
//	cfg.EventLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Files are a stream of CBOR-encoded events with integer keys and the
// .atlog extension. The autotransfer-log command views, filters, and
// exports them.
package log
