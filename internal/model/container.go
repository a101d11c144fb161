package model

import (
	"bytes"
	"image"
)

// ContainerKind identifies the outer document format carrying cover images.
type ContainerKind int

// Supported container kinds.
const (
	// KindUnknown is the zero value; it never passes validation.
	KindUnknown ContainerKind = iota

	// KindDOCX is an Office Open XML word-processing package (a ZIP file).
	KindDOCX

	// KindPDF is a Portable Document Format file.
	KindPDF
)

// String returns the lowercase kind name used in CLI flags and reports.
func (k ContainerKind) String() string {
	switch k {
	case KindDOCX:
		return "docx"
	case KindPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// ParseContainerKind converts a user-supplied kind name to a ContainerKind.
// Returns KindUnknown for anything it does not recognize.
func ParseContainerKind(s string) ContainerKind {
	switch s {
	case "docx":
		return KindDOCX
	case "pdf":
		return KindPDF
	default:
		return KindUnknown
	}
}

// Magic byte prefixes used by DetectKind.
var (
	zipMagic = []byte("PK\x03\x04")
	pdfMagic = []byte("%PDF-")
)

// DetectKind sniffs the container kind from the leading bytes.
// A ZIP local-file-header magic is treated as DOCX; callers that need to
// distinguish DOCX from other OOXML packages rely on extraction failing
// with ErrInvalidFormat later. Returns ErrInvalidFormat for anything else.
func DetectKind(data []byte) (ContainerKind, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return KindDOCX, nil
	case bytes.HasPrefix(data, pdfMagic):
		return KindPDF, nil
	default:
		return KindUnknown, ErrInvalidFormat
	}
}

// ExtractionMode selects the PDF extraction strategy.
type ExtractionMode int

const (
	// ModeRealImages extracts the actual image streams from the PDF's
	// image-object cross-reference table. This is the default: it is the
	// only mode for which the LSB plane survives a container round trip.
	ModeRealImages ExtractionMode = iota

	// ModePageRender rasterizes each page as a whole-page image at a
	// fixed DPI. Lower fidelity fallback for PDFs whose images cannot be
	// extracted losslessly.
	ModePageRender
)

// String returns the mode name used in CLI flags.
func (m ExtractionMode) String() string {
	if m == ModePageRender {
		return "page-render"
	}
	return "real-images"
}

// CoverImage is an RGB carrier raster extracted from a container.
// Identity is preserved end to end: the Nth extracted image maps to the
// Nth reconstructed image.
type CoverImage struct {
	// Index is the zero-based position in extraction order.
	Index int

	// SourceID is the container-relative identity of the image: the media
	// path for DOCX (e.g. "word/media/image1.png"), "page3/obj12" for PDF
	// real-image mode, or "page3" for page-render mode.
	SourceID string

	// Image holds the decoded pixel data. Owned exclusively by whichever
	// pipeline stage currently processes this cover.
	Image image.Image

	// Raw holds the original encoded stream when the extractor has it
	// (DOCX media parts, PDF image objects). Page-render covers have no
	// original stream and leave it nil. Used for metadata inspection only;
	// reconstruction always re-encodes from Image.
	Raw []byte
}

// Width returns the pixel width of the cover.
func (c *CoverImage) Width() int { return c.Image.Bounds().Dx() }

// Height returns the pixel height of the cover.
func (c *CoverImage) Height() int { return c.Image.Bounds().Dy() }

// Capacity returns the number of embeddable bits: one bit per pixel,
// embedded channel fixed to blue.
func (c *CoverImage) Capacity() int { return c.Width() * c.Height() }
