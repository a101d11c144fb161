package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/docseal/docseal/internal/model"
)

// embedFixture returns an embed result with one success and one failure.
func embedFixture() *model.EmbedResult {
	return &model.EmbedResult{
		RunID:    "run-embed-1",
		Kind:     model.KindDOCX,
		KindName: "docx",
		Images: []model.ImageOutcome{
			{
				Index:    0,
				SourceID: "word/media/image1.png",
				Width:    640,
				Height:   480,
				Fidelity: &model.FidelityScore{MSE: 0.11, PSNR: 57.7, Quality: model.QualityVeryGood},
			},
			{
				Index:       1,
				SourceID:    "word/media/image2.png",
				Width:       8,
				Height:      8,
				ErrorTag:    model.TagCapacity,
				ErrorDetail: "mark of 441 bits exceeds cover capacity of 64 bits",
			},
		},
		ImagesProcessed: 1,
		Elapsed:         125 * time.Millisecond,
	}
}

// extractFixture returns an extract result with one valid enveloped mark.
func extractFixture() *model.ExtractResult {
	ts := int64(1700000000)
	return &model.ExtractResult{
		RunID:    "run-extract-1",
		Kind:     model.KindPDF,
		KindName: "pdf",
		Marks: []model.RecoveredMark{
			{
				Index:    0,
				SourceID: "page1/obj7",
				Texts:    []string{`{"data":"customer-7731","crc32":123}`},
				Integrity: &model.IntegrityRecord{
					Format:    model.FormatEnvelope,
					Data:      "customer-7731",
					DataValid: true,
					Timestamp: &ts,
				},
			},
		},
		Images: []model.ImageOutcome{
			{Index: 0, SourceID: "page1/obj7", Width: 800, Height: 600},
			{
				Index: 1, SourceID: "page2/obj9", Width: 800, Height: 600,
				ErrorTag:    model.TagDecoding,
				ErrorDetail: "no watermark decoded from image",
			},
		},
		Elapsed: 80 * time.Millisecond,
	}
}

// TestSimpleWriterEmbed tests the terminal embed report.
func TestSimpleWriterEmbed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf, WithVerbose(true))

	n, err := w.WriteEmbed(embedFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"EMBED REPORT",
		"run-embed-1",
		"docx",
		"word/media/image1.png",
		"57.70 dB",
		"Very Good",
		model.TagCapacity,
		"mark of 441 bits",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestSimpleWriterExtract tests the terminal extract report.
func TestSimpleWriterExtract(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewSimpleWriter(&buf)

	if _, err := w.WriteExtract(extractFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"EXTRACT REPORT",
		"run-extract-1",
		"page1/obj7",
		"customer-7731",
		"envelope",
		"valid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestSimpleWriterExtractEmpty tests the no-marks rendering.
func TestSimpleWriterExtractEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	result := extractFixture()
	result.Marks = nil

	if _, err := NewSimpleWriter(&buf).WriteExtract(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No watermark recovered") {
		t.Errorf("missing empty-marks message:\n%s", buf.String())
	}
}

// TestMarkdownWriterEmbed tests the Markdown embed report.
func TestMarkdownWriterEmbed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).WriteEmbed(embedFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Watermark Embed Report",
		"## Image Fidelity",
		"`run-embed-1`",
		"```mermaid",
		"57.70 dB",
		"could not be watermarked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestMarkdownWriterExtractInvalidChecksum tests the tamper alert.
func TestMarkdownWriterExtractInvalidChecksum(t *testing.T) {
	t.Parallel()

	result := extractFixture()
	result.Marks[0].Integrity.DataValid = false

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).WriteExtract(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "failed their checksum") {
		t.Errorf("missing tamper alert:\n%s", out)
	}
	if !strings.Contains(out, "INVALID") {
		t.Errorf("missing checksum verdict:\n%s", out)
	}
}

// TestJSONWriterEmbed tests JSON envelope shape and round trip.
func TestJSONWriterEmbed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithVersion("1.2.3"))

	if _, err := w.WriteEmbed(embedFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env JSONEnvelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if env.Version != "1.2.3" || env.Operation != "embed" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Embed == nil || env.Embed.RunID != "run-embed-1" {
		t.Errorf("embed payload = %+v", env.Embed)
	}
	if env.Extract != nil {
		t.Error("extract payload set on embed envelope")
	}
	if len(env.Embed.Images) != 2 {
		t.Errorf("images = %d, expected 2", len(env.Embed.Images))
	}
}

// TestJSONWriterPrettyPrint tests indented output.
func TestJSONWriterPrettyPrint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint())

	if _, err := w.WriteExtract(extractFixture()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"operation\": \"extract\"") {
		t.Errorf("output not indented:\n%s", buf.String())
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := mw.WriteEmbed(embedFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("total = %d, expected %d", n, text.Len()+js.Len())
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("one of the writers received no output")
	}
}

// TestFormatPSNR tests the identical sentinel rendering.
func TestFormatPSNR(t *testing.T) {
	t.Parallel()

	if got := formatPSNR(model.PSNRIdentical); got != "identical" {
		t.Errorf("formatPSNR(sentinel) = %q", got)
	}
	if got := formatPSNR(43.215); got != "43.22 dB" {
		t.Errorf("formatPSNR(43.215) = %q", got)
	}
}
