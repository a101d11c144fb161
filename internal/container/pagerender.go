package container

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/docseal/docseal/internal/model"
)

// PageRenderExtractor rasterizes whole PDF pages instead of pulling the
// embedded image objects. Useful for scanned documents whose "images"
// are really full-page content, and for PDFs whose graphics are vector
// drawings with no extractable image streams.
type PageRenderExtractor struct {
	// DPI is the rasterization density.
	DPI int
}

// Kind implements Extractor.
func (e *PageRenderExtractor) Kind() model.ContainerKind { return model.KindPDF }

// Extract implements Extractor. Every page yields exactly one cover, so
// a valid PDF never reports ErrNoImagesFound in this mode.
func (e *PageRenderExtractor) Extract(ctx context.Context, data []byte) ([]model.CoverImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("pdf open: %v: %w", err, model.ErrInvalidFormat)
	}
	defer doc.Close()

	dpi := e.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	n := doc.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages: %w", model.ErrNoImagesFound)
	}

	covers := make([]model.CoverImage, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		covers = append(covers, model.CoverImage{
			Index:    i,
			SourceID: fmt.Sprintf("page%d", i+1),
			Image:    img,
		})
	}
	return covers, nil
}
