// Package container locates and extracts the embedded raster images inside
// a document container (DOCX package or PDF), and rebuilds a valid
// container from watermarked replacements.
//
// Extraction order is part of the contract: the Nth extracted image
// corresponds to the Nth image consumed by reconstruction. DOCX media is
// ordered by relationship order within the document body (ZIP entry order
// is unspecified); PDF real-image mode orders by (page, image object) and
// deduplicates images reused across pages by xref identity.
package container
