// Package logging provides structured protocol logging for the
// session server and its kernels.
//
// This package defines the Logger interface and Event types for
// capturing protocol-level events at multiple layers (transport,
// wire, service). It is separate from operational logging (zerolog)
// - protocol capture provides a complete machine-readable event trace
// for debugging and analysis.
//
// # Basic usage
//
//	// For development: log to console via zerolog.
//	cfg.Logger = logging.NewZerologAdapter(log.Logger)
//
//	// For production: write to a binary file.
//	cfg.Logger, _ = logging.NewFileLogger("/var/log/traintastic/session.tlog")
//
//	// Both: use MultiLogger.
//	cfg.Logger = logging.NewMultiLogger(
//	    logging.NewZerologAdapter(log.Logger),
//	    fileLogger,
//	)
//
// # Event types
//
// Events are captured at three layers: Transport (raw frame bytes),
// Wire (decoded frames), and Service (connection/session/kernel state
// changes). Control messages (heartbeat/ping/close) and errors have
// dedicated event types.
//
// # File format
//
// Log files use CBOR encoding. Reader provides a filtered iterator
// over a log file for offline inspection.
package logging
