// Package log provides structured protocol logging for the device client.
//
// This package defines the Logger interface and Event types for capturing
// client-level events: MQTT packets in and out, state machine transitions,
// provisioning milestones and errors. It is separate from operational
// logging (slog) - protocol capture provides a complete machine-readable
// event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/aziot/device.alog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding with .alog extension. Reader streams events
// back out, optionally filtered; the aziot-log CLI tool builds on it.
package log
