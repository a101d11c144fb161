package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/docseal/docseal/internal/database"
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/qr"
)

// discardLogger silences pipeline logging in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// whitePNG encodes a uniform white raster.
func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

// buildDOCX assembles a minimal word-processing package with the given
// media parts, all referenced from the document body in path order.
func buildDOCX(t *testing.T, media map[string][]byte) []byte {
	t.Helper()

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/></Types>`

	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/><Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image2.png"/></Relationships>`

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p><w:r><w:drawing><a:blip r:embed="rId4"/></w:drawing></w:r></w:p><w:p><w:r><w:drawing><a:blip r:embed="rId5"/></w:drawing></w:r></w:p></w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("[Content_Types].xml", []byte(contentTypes))
	write("word/document.xml", []byte(document))
	write("word/_rels/document.xml.rels", []byte(rels))
	for name, data := range media {
		write(name, data)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close package: %v", err)
	}
	return buf.Bytes()
}

// TestEmbedExtractRoundTrip tests the full journey: payload embedded into
// a DOCX and recovered from the reconstructed container with a valid
// checksum.
func TestEmbedExtractRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 600, 600),
		"word/media/image2.png": whitePNG(t, 500, 700),
	})

	p := New(WithLogger(discardLogger()), WithConcurrency(2))

	embedded, err := p.Embed(ctx, docx, "customer-7731")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if embedded.ImagesProcessed != 2 {
		t.Fatalf("processed %d images, expected 2", embedded.ImagesProcessed)
	}
	if embedded.KindName != "docx" {
		t.Errorf("kind = %q", embedded.KindName)
	}
	for _, img := range embedded.Images {
		if !img.Succeeded() {
			t.Errorf("image %s failed: %s", img.SourceID, img.ErrorDetail)
		}
		if img.Fidelity == nil || img.Fidelity.PSNR <= 40 {
			t.Errorf("image %s fidelity = %+v, expected very-good band", img.SourceID, img.Fidelity)
		}
	}
	if embedded.MeanPSNR() <= 40 {
		t.Errorf("mean psnr = %v", embedded.MeanPSNR())
	}

	extracted, err := p.Extract(ctx, embedded.Container)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(extracted.Marks) != 2 {
		t.Fatalf("recovered %d marks, expected 2", len(extracted.Marks))
	}
	for _, mark := range extracted.Marks {
		if len(mark.Texts) == 0 {
			t.Fatalf("mark %s has no texts", mark.SourceID)
		}
		if mark.Integrity == nil {
			t.Fatalf("mark %s has no integrity record", mark.SourceID)
		}
		if mark.Integrity.Format != model.FormatEnvelope {
			t.Errorf("mark %s format = %v, expected envelope", mark.SourceID, mark.Integrity.Format)
		}
		if !mark.Integrity.DataValid {
			t.Errorf("mark %s checksum invalid", mark.SourceID)
		}
		if mark.Integrity.Data != "customer-7731" {
			t.Errorf("mark %s data = %q", mark.SourceID, mark.Integrity.Data)
		}
		if len(mark.RasterPNG) == 0 {
			t.Errorf("mark %s missing recovered raster", mark.SourceID)
		}
	}
}

// TestEmbedLegacyPayload tests the integrity-disabled path: the payload is
// embedded verbatim and recovered as legacy.
func TestEmbedLegacyPayload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 600, 600),
		"word/media/image2.png": whitePNG(t, 600, 600),
	})

	p := New(WithLogger(discardLogger()), WithIntegrity(false))

	embedded, err := p.Embed(ctx, docx, "plain mark")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	extracted, err := p.Extract(ctx, embedded.Container)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(extracted.Marks) == 0 {
		t.Fatal("no marks recovered")
	}
	mark := extracted.Marks[0]
	if mark.Integrity.Format != model.FormatLegacy {
		t.Errorf("format = %v, expected legacy", mark.Integrity.Format)
	}
	if mark.Integrity.Data != "plain mark" {
		t.Errorf("data = %q", mark.Integrity.Data)
	}
}

// TestEmbedAllCoversFail tests that a run with zero successful images
// fails instead of emitting an unwatermarked container.
func TestEmbedAllCoversFail(t *testing.T) {
	t.Parallel()

	// 10x10 covers hold 100 bits; any QR raster needs thousands.
	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 10, 10),
		"word/media/image2.png": whitePNG(t, 10, 10),
	})

	p := New(WithLogger(discardLogger()))
	_, err := p.Embed(context.Background(), docx, "too big for these covers")
	if !errors.Is(err, ErrNoImagesProcessed) {
		t.Errorf("expected ErrNoImagesProcessed, got %v", err)
	}
}

// TestEmbedPartialFailure tests that one undersized cover does not stop
// the others from being watermarked.
func TestEmbedPartialFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 600, 600),
		"word/media/image2.png": whitePNG(t, 10, 10),
	})

	p := New(WithLogger(discardLogger()))
	embedded, err := p.Embed(ctx, docx, "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if embedded.ImagesProcessed != 1 {
		t.Fatalf("processed %d images, expected 1", embedded.ImagesProcessed)
	}

	var failed *model.ImageOutcome
	for i := range embedded.Images {
		if !embedded.Images[i].Succeeded() {
			failed = &embedded.Images[i]
		}
	}
	if failed == nil {
		t.Fatal("expected one failed image outcome")
	}
	if failed.ErrorTag != model.TagCapacity {
		t.Errorf("failed tag = %q, expected %q", failed.ErrorTag, model.TagCapacity)
	}

	// The failed cover keeps its original bytes; extraction still finds
	// the mark in the other cover.
	extracted, err := p.Extract(ctx, embedded.Container)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(extracted.Marks) != 1 {
		t.Fatalf("recovered %d marks, expected 1", len(extracted.Marks))
	}
}

// TestExtractUnwatermarked tests extraction from a container that was
// never embedded: every image reports the decoding tag, none yields a mark.
func TestExtractUnwatermarked(t *testing.T) {
	t.Parallel()

	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 300, 300),
		"word/media/image2.png": whitePNG(t, 300, 300),
	})

	p := New(WithLogger(discardLogger()))
	extracted, err := p.Extract(context.Background(), docx)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(extracted.Marks) != 0 {
		t.Errorf("recovered %d marks from unwatermarked container", len(extracted.Marks))
	}
	for _, img := range extracted.Images {
		if img.ErrorTag != model.TagDecoding {
			t.Errorf("image %s tag = %q, expected %q", img.SourceID, img.ErrorTag, model.TagDecoding)
		}
	}
}

// TestEmbedInvalidContainer tests format rejection up front.
func TestEmbedInvalidContainer(t *testing.T) {
	t.Parallel()

	p := New(WithLogger(discardLogger()))
	_, err := p.Embed(context.Background(), []byte("neither zip nor pdf"), "hello")
	if !errors.Is(err, model.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

// TestGenerateWatermark tests standalone mark generation: the PNG decodes
// back to the enveloped payload.
func TestGenerateWatermark(t *testing.T) {
	t.Parallel()

	p := New(WithLogger(discardLogger()))
	raster, err := p.GenerateWatermark("hello")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(raster))
	if err != nil {
		t.Fatalf("decode raster: %v", err)
	}
	texts, err := qr.Decode(img)
	if err != nil {
		t.Fatalf("decode symbol: %v", err)
	}
	if len(texts) != 1 {
		t.Fatalf("decoded %d texts, expected 1", len(texts))
	}

	rec := p.VerifyIntegrity(texts[0])
	if rec.Format != model.FormatEnvelope || !rec.DataValid || rec.Data != "hello" {
		t.Errorf("integrity record = %+v", rec)
	}
}

// TestFingerprint tests digest determinism and sensitivity.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := Fingerprint([]byte("document"))
	b := Fingerprint([]byte("document"))
	c := Fingerprint([]byte("document!"))

	if a != b {
		t.Error("fingerprint not deterministic")
	}
	if a == c {
		t.Error("distinct inputs share a fingerprint")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, expected 64 hex chars", len(a))
	}
}

// TestEmbedRecordsHistory tests the run-history hookup.
func TestEmbedRecordsHistory(t *testing.T) {
	t.Parallel()

	hdb, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer hdb.Close()

	docx := buildDOCX(t, map[string][]byte{
		"word/media/image1.png": whitePNG(t, 600, 600),
		"word/media/image2.png": whitePNG(t, 600, 600),
	})

	p := New(WithLogger(discardLogger()), WithHistory(hdb))
	result, err := p.Embed(context.Background(), docx, "hello")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	ctx := context.Background()
	rec, err := hdb.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if rec == nil {
		t.Fatal("run not recorded")
	}
	if rec.Operation != "embed" || rec.Kind != "docx" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Fingerprint != Fingerprint(docx) {
		t.Errorf("fingerprint mismatch")
	}
	if rec.ImagesTotal != 2 || rec.ImagesSucceeded != 2 {
		t.Errorf("counts = %d/%d", rec.ImagesSucceeded, rec.ImagesTotal)
	}

	images, err := hdb.GetRunImages(ctx, result.RunID)
	if err != nil {
		t.Fatalf("get run images: %v", err)
	}
	if len(images) != 2 {
		t.Errorf("recorded %d image outcomes, expected 2", len(images))
	}
}
