// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of watermark payload text in log attributes
//   - Masking of credentials that may ride inside a payload
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - Watermark payloads (payload, mark, watermark, data attributes)
//   - Serialized integrity envelopes detected by pattern matching
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//
// Even in verbose mode, payload text is masked: the payload identifies
// document recipients and logging it in plain text defeats the point of
// hiding it inside the document.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("embedding mark",
//	    "payload", "customer-7731",  // Will be sanitized to "***REDACTED***"
//	    "images", 4,
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
package log
