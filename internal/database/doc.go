// Package database provides SQLite-based storage for docseal run history.
//
// This package implements the HistoryDB, which stores:
//   - One row per completed embed or extract run
//   - Per-image outcomes with fidelity scores and error tags
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// The input container itself is never stored; runs are keyed by its
// SHA3-256 fingerprint, which is enough to answer "has this document
// been watermarked before, and how did it go".
package database
