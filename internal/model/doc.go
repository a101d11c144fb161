// Package model defines the core data structures used throughout docseal.
//
// This package contains the following main types:
//   - CoverImage: A carrier raster extracted from a document container
//   - IntegrityEnvelope: The CRC32-checksummed payload wrapper
//   - WatermarkedArtifact: A completed per-image embed result with fidelity scores
//   - EmbedResult / ExtractResult: Per-run result structures
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (container, stego, verify, pipeline, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
