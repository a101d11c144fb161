package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/docseal/docseal/internal/model"
)

// pdfConfiguration returns the pdfcpu configuration used by both
// extraction and assembly. Relaxed validation accepts the slightly
// off-spec PDFs that office exporters produce.
func pdfConfiguration() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}

// PDFExtractor extracts the actual image streams from a PDF's image
// object tables (real-image mode). Each distinct image object is
// extracted once, keyed by its xref object number, so an image reused
// across pages yields a single cover. Order is (page, object number).
type PDFExtractor struct{}

// Kind implements Extractor.
func (e *PDFExtractor) Kind() model.ContainerKind { return model.KindPDF }

// Extract implements Extractor.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) ([]model.CoverImage, error) {
	pages, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, pdfConfiguration())
	if err != nil {
		return nil, fmt.Errorf("pdf image extraction: %v: %w", err, model.ErrInvalidFormat)
	}

	var covers []model.CoverImage
	seen := map[int]bool{}
	for _, pageImages := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Map iteration order is random; object number order is the
		// stable in-page order.
		objNrs := make([]int, 0, len(pageImages))
		for objNr := range pageImages {
			objNrs = append(objNrs, objNr)
		}
		sort.Ints(objNrs)

		for _, objNr := range objNrs {
			if seen[objNr] {
				continue
			}
			seen[objNr] = true

			stream := pageImages[objNr]
			raw, err := io.ReadAll(stream)
			if err != nil {
				return nil, fmt.Errorf("failed to read image object %d: %w", objNr, err)
			}
			img, err := decodeRaster(raw)
			if err != nil {
				return nil, fmt.Errorf("image object %d: %w", objNr, err)
			}
			covers = append(covers, model.CoverImage{
				Index:    len(covers),
				SourceID: fmt.Sprintf("page%d/obj%d", stream.PageNr, objNr),
				Image:    img,
				Raw:      raw,
			})
		}
	}

	if len(covers) == 0 {
		return nil, fmt.Errorf("pdf: %w", model.ErrNoImagesFound)
	}
	return covers, nil
}

// PDFReconstructor composes a new PDF whose pages are exactly the
// watermarked images, one full-bleed image per page in extraction order.
// This is deliberately not a byte-level patch of the original image
// streams: the output is a structurally fresh PDF whose image content is
// the watermarked set.
type PDFReconstructor struct {
	// DPI is the nominal resolution of the imported images.
	DPI int
}

// Kind implements Reconstructor.
func (r *PDFReconstructor) Kind() model.ContainerKind { return model.KindPDF }

// Reconstruct implements Reconstructor. The original bytes are not
// consulted; page geometry derives from the image dimensions and DPI.
func (r *PDFReconstructor) Reconstruct(ctx context.Context, _ []byte, covers []model.CoverImage) ([]byte, error) {
	if len(covers) == 0 {
		return nil, fmt.Errorf("pdf: no watermarked images: %w", model.ErrReconstruction)
	}

	readers := make([]io.Reader, 0, len(covers))
	for i := range covers {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		b, err := encodePNG(covers[i].Image)
		if err != nil {
			return nil, fmt.Errorf("cover %s: %w", covers[i].SourceID, model.ErrReconstruction)
		}
		readers = append(readers, bytes.NewReader(b))
	}

	imp, err := importDetails(r.DPI)
	if err != nil {
		return nil, fmt.Errorf("import parameters: %w", model.ErrReconstruction)
	}

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, pdfConfiguration()); err != nil {
		return nil, fmt.Errorf("pdf assembly: %v: %w", err, model.ErrReconstruction)
	}
	return out.Bytes(), nil
}

// importDetails builds the pdfcpu import description: one image per page,
// filling the page, at the extraction DPI.
func importDetails(dpi int) (*pdfcpu.Import, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return api.Import(fmt.Sprintf("dpi:%d, pos:full", dpi), types.POINTS)
}

// PDFPageCount reports the number of pages in a PDF. Used by reports and
// tests to sanity-check assembled output.
func PDFPageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), pdfConfiguration())
	if err != nil {
		return 0, fmt.Errorf("pdf page count: %v: %w", err, model.ErrInvalidFormat)
	}
	return n, nil
}
