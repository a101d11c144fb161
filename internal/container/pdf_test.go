package container

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/docseal/docseal/internal/model"
)

// coverFixture returns n uniform covers sized for a letter-ish page.
func coverFixture(n int) []model.CoverImage {
	covers := make([]model.CoverImage, n)
	for i := range covers {
		img := image.NewRGBA(image.Rect(0, 0, 200, 260))
		c := color.RGBA{R: uint8(40 * (i + 1)), G: 90, B: 160, A: 255}
		for y := 0; y < 260; y++ {
			for x := 0; x < 200; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		covers[i] = model.CoverImage{Index: i, SourceID: "", Image: img}
	}
	return covers
}

// TestPDFAssembleAndReextract tests the PDF round trip: covers assembled
// into a fresh document, one page per cover, whose real-image extraction
// returns the same number of rasters at the same dimensions.
func TestPDFAssembleAndReextract(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	covers := coverFixture(3)

	data, err := (&PDFReconstructor{DPI: 72}).Reconstruct(ctx, nil, covers)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}

	n, err := PDFPageCount(data)
	if err != nil {
		t.Fatalf("page count: %v", err)
	}
	if n != len(covers) {
		t.Fatalf("assembled %d pages, expected %d", n, len(covers))
	}

	reextracted, err := (&PDFExtractor{}).Extract(ctx, data)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}
	if len(reextracted) != len(covers) {
		t.Fatalf("re-extracted %d images, expected %d", len(reextracted), len(covers))
	}
	for i, cover := range reextracted {
		if cover.Width() != 200 || cover.Height() != 260 {
			t.Errorf("image %d = %dx%d, expected 200x260", i, cover.Width(), cover.Height())
		}
	}
}

// TestPDFExtractInvalidBytes tests format rejection for non-PDF input.
func TestPDFExtractInvalidBytes(t *testing.T) {
	t.Parallel()

	_, err := (&PDFExtractor{}).Extract(context.Background(), []byte("PK\x03\x04 not a pdf"))
	if !errors.Is(err, model.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

// TestPDFReconstructNoCovers tests the empty-input verdict.
func TestPDFReconstructNoCovers(t *testing.T) {
	t.Parallel()

	_, err := (&PDFReconstructor{}).Reconstruct(context.Background(), nil, nil)
	if !errors.Is(err, model.ErrReconstruction) {
		t.Errorf("expected ErrReconstruction, got %v", err)
	}
}
