// Package log records a machine-readable trace of meter resolution.
//
// It is separate from operational logging (slog): every resolution attempt
// emits state changes, captured announcements, results and errors tagged
// with a session ID, so a failed startup can be inspected afterwards.
//
// # Basic Usage
//
//	// For development: trace to console via slog
//	cfg.Trace = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Trace, _ = log.NewFileLogger("/var/log/meter/resolve.mtrace")
//
//	// Both: use MultiLogger
//	cfg.Trace = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys. The
// meter-trace command views, exports and summarizes them.
package log
