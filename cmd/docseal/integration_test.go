package main

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docseal/docseal/internal/config"
	"github.com/docseal/docseal/internal/database"
	"github.com/docseal/docseal/internal/model"
)

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

// buildDOCX assembles a minimal word-processing package with one image.
func buildDOCX(t *testing.T, media []byte) []byte {
	t.Helper()

	contentTypes := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/></Types>`

	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/></Relationships>`

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p><w:r><w:drawing><a:blip r:embed="rId4"/></w:drawing></w:r></w:p></w:body></w:document>`

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
	write("word/media/image1.png", media)
	if err := zw.Close(); err != nil {
		t.Fatalf("close package: %v", err)
	}
	return buf.Bytes()
}

// TestEmbedExtractEndToEnd drives the embed and extract run functions the
// way the commands do, through a real DOCX on disk, and verifies the
// payload and the recorded history.
func TestEmbedExtractEndToEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tmpDir := t.TempDir()
	logger := setupLogger(false)

	inputPath := filepath.Join(tmpDir, "report.docx")
	if err := os.WriteFile(inputPath, buildDOCX(t, whitePNG(t, 600, 600)), 0o600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	// Embed
	embedCfg := config.NewConfig()
	embedCfg.Input = inputPath
	embedCfg.Output = filepath.Join(tmpDir, "report.marked.docx")
	embedCfg.Payload = "customer-7731"
	embedCfg.JSONReport = true
	embedCfg.ReportFile = filepath.Join(tmpDir, "embed-report.json")
	embedCfg.SaveToDB = true
	embedCfg.DBDir = tmpDir

	if err := runEmbed(ctx, embedCfg, logger); err != nil {
		t.Fatalf("runEmbed: %v", err)
	}

	if _, err := os.Stat(embedCfg.Output); err != nil {
		t.Fatalf("watermarked document not written: %v", err)
	}

	embedReport, err := os.ReadFile(embedCfg.ReportFile)
	if err != nil {
		t.Fatalf("embed report not written: %v", err)
	}
	if !strings.Contains(string(embedReport), `"operation": "embed"`) {
		t.Errorf("embed report missing operation:\n%s", embedReport)
	}

	// Extract
	markDir := filepath.Join(tmpDir, "marks")
	extractCfg := config.NewConfig()
	extractCfg.Input = embedCfg.Output
	extractCfg.JSONReport = true
	extractCfg.ReportFile = filepath.Join(tmpDir, "extract-report.json")
	extractCfg.SaveToDB = true
	extractCfg.DBDir = tmpDir

	if err := runExtract(ctx, extractCfg, markDir, logger); err != nil {
		t.Fatalf("runExtract: %v", err)
	}

	extractReport, err := os.ReadFile(extractCfg.ReportFile)
	if err != nil {
		t.Fatalf("extract report not written: %v", err)
	}
	if !strings.Contains(string(extractReport), "customer-7731") {
		t.Errorf("extract report missing payload:\n%s", extractReport)
	}
	if !strings.Contains(string(extractReport), `"data_valid": true`) {
		t.Errorf("extract report missing checksum verdict:\n%s", extractReport)
	}

	// Recovered raster saved
	if _, err := os.Stat(filepath.Join(markDir, "mark_000.png")); err != nil {
		t.Errorf("recovered raster not written: %v", err)
	}

	// Both runs recorded in history
	db, err := database.Open(tmpDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open history database: %v", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("recorded %d runs, expected 2", len(runs))
	}

	ops := map[string]bool{}
	for i := range runs {
		ops[runs[i].Operation] = true
		if runs[i].Kind != model.KindDOCX.String() {
			t.Errorf("run %s kind = %q", runs[i].RunID, runs[i].Kind)
		}
	}
	if !ops["embed"] || !ops["extract"] {
		t.Errorf("expected embed and extract runs, got %v", ops)
	}
}

// TestRunEmbedMissingInput tests that a nonexistent document fails cleanly.
func TestRunEmbedMissingInput(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Input = filepath.Join(t.TempDir(), "missing.docx")
	cfg.Payload = "x"

	err := runEmbed(context.Background(), cfg, setupLogger(false))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if !strings.Contains(err.Error(), "failed to read input document") {
		t.Errorf("unexpected error: %v", err)
	}
}
