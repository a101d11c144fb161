// Package pipeline orchestrates the watermarking stages: container image
// extraction, QR mark rendering, blue-channel LSB embedding, fidelity
// verification, container reconstruction, and watermark recovery.
//
// Design decision: The stages are driven by a single Pipeline type instead
// of free functions because:
// 1. The stages share configuration (module size, DPI, extraction mode)
// 2. It provides consistent error handling and logging across stages
// 3. It supports cancellation via context for large documents
// 4. Run recording (the history database) hooks in at one place
//
// Cover images are processed concurrently with errgroup, results addressed
// by index so extraction order is preserved regardless of completion order.
package pipeline
