package container

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	// Cover images arrive as PNG or JPEG streams; PDFs occasionally carry
	// TIFF. Register all three decoders for image.Decode.
	_ "image/jpeg"
	_ "golang.org/x/image/tiff"

	"github.com/docseal/docseal/internal/model"
)

// DefaultDPI is the rasterization density for page-render mode and the
// nominal resolution of reconstructed PDF pages.
const DefaultDPI = 300

// Extractor pulls every embedded cover image out of a container.
// Implementations never mutate their input.
type Extractor interface {
	// Kind reports the container format this extractor understands.
	Kind() model.ContainerKind

	// Extract returns the container's cover images in contract order.
	// Fails with model.ErrNoImagesFound when the container holds zero
	// eligible images and model.ErrInvalidFormat when the bytes are not
	// a valid container of this kind.
	Extract(ctx context.Context, data []byte) ([]model.CoverImage, error)
}

// Reconstructor rebuilds a valid container from watermarked covers.
// The covers must arrive in the same order Extract produced them.
type Reconstructor interface {
	// Kind reports the container format this reconstructor emits.
	Kind() model.ContainerKind

	// Reconstruct assembles the output container. original holds the
	// source container bytes (used by the DOCX variant to preserve
	// non-image structure). Fails with model.ErrReconstruction when no
	// output can be assembled.
	Reconstruct(ctx context.Context, original []byte, covers []model.CoverImage) ([]byte, error)
}

// NewExtractor selects the extractor for a container kind and PDF
// extraction mode. The mode flag is ignored for DOCX, which has exactly
// one extraction strategy.
func NewExtractor(kind model.ContainerKind, mode model.ExtractionMode, dpi int) (Extractor, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch kind {
	case model.KindDOCX:
		return &DOCXExtractor{}, nil
	case model.KindPDF:
		if mode == model.ModePageRender {
			return &PageRenderExtractor{DPI: dpi}, nil
		}
		return &PDFExtractor{}, nil
	default:
		return nil, fmt.Errorf("no extractor for container kind %q: %w", kind, model.ErrInvalidFormat)
	}
}

// NewReconstructor selects the reconstructor for a container kind.
func NewReconstructor(kind model.ContainerKind, dpi int) (Reconstructor, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch kind {
	case model.KindDOCX:
		return &DOCXReconstructor{}, nil
	case model.KindPDF:
		return &PDFReconstructor{DPI: dpi}, nil
	default:
		return nil, fmt.Errorf("no reconstructor for container kind %q: %w", kind, model.ErrInvalidFormat)
	}
}

// decodeRaster decodes an embedded image stream into a raster.
func decodeRaster(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}
	return img, nil
}

// encodePNG serializes a raster as PNG, the lossless interchange format
// for every carrier path in the pipeline.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
