package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/docseal/docseal/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteEmbed outputs the embed run in human-readable format.
func (w *SimpleWriter) WriteEmbed(result *model.EmbedResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "EMBED REPORT", result.RunID, result.KindName)

	sb.WriteString(fmt.Sprintf("Images:    %d processed of %d found\n", result.ImagesProcessed, len(result.Images)))
	sb.WriteString(fmt.Sprintf("Mean PSNR: %s\n", formatPSNR(result.MeanPSNR())))
	sb.WriteString(fmt.Sprintf("Elapsed:   %s\n", result.Elapsed))
	sb.WriteString("\n")

	w.writeRule(&sb)
	sb.WriteString("IMAGE FIDELITY\n")
	w.writeRule(&sb)
	sb.WriteString("\n")

	for i := range result.Images {
		img := &result.Images[i]
		if img.Succeeded() {
			sb.WriteString(fmt.Sprintf("  [+] %s (%dx%d)\n", img.SourceID, img.Width, img.Height))
			sb.WriteString(fmt.Sprintf("      PSNR: %s  Quality: %s\n", formatPSNR(img.Fidelity.PSNR), qualityTitle(img.Fidelity.Quality)))
		} else {
			sb.WriteString(fmt.Sprintf("  [-] %s (%dx%d)\n", img.SourceID, img.Width, img.Height))
			sb.WriteString(fmt.Sprintf("      Error: %s\n", img.ErrorTag))
			if w.verbose && img.ErrorDetail != "" {
				sb.WriteString(fmt.Sprintf("      Detail: %s\n", img.ErrorDetail))
			}
		}
	}
	sb.WriteString("\n")

	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// WriteExtract outputs the extract run in human-readable format.
func (w *SimpleWriter) WriteExtract(result *model.ExtractResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, "EXTRACT REPORT", result.RunID, result.KindName)

	sb.WriteString(fmt.Sprintf("Images:    %d examined\n", len(result.Images)))
	sb.WriteString(fmt.Sprintf("Marks:     %d recovered\n", len(result.Marks)))
	sb.WriteString(fmt.Sprintf("Elapsed:   %s\n", result.Elapsed))
	sb.WriteString("\n")

	w.writeRule(&sb)
	sb.WriteString("RECOVERED MARKS\n")
	w.writeRule(&sb)
	sb.WriteString("\n")

	if len(result.Marks) == 0 {
		sb.WriteString("  No watermark recovered from any image\n")
	}
	for i := range result.Marks {
		mark := &result.Marks[i]
		sb.WriteString(fmt.Sprintf("  [+] %s\n", mark.SourceID))
		for _, text := range mark.Texts {
			sb.WriteString(fmt.Sprintf("      Text: %s\n", text))
		}
		if mark.Integrity != nil {
			sb.WriteString(fmt.Sprintf("      Format: %s  Checksum: %s\n",
				mark.Integrity.Format, integrityVerdict(mark.Integrity)))
		}
	}
	sb.WriteString("\n")

	if w.verbose {
		for i := range result.Images {
			img := &result.Images[i]
			if !img.Succeeded() {
				sb.WriteString(fmt.Sprintf("  [-] %s: %s\n", img.SourceID, img.ErrorTag))
			}
		}
		sb.WriteString("\n")
	}

	w.writeFooter(&sb)
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report banner and run identity.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, title, runID, kind string) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s%s\n", strings.Repeat(" ", (70-len(title))/2), title))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", runID))
	sb.WriteString(fmt.Sprintf("Container: %s\n", kind))
}

// writeRule writes a section separator.
func (w *SimpleWriter) writeRule(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by docseal\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// formatPSNR renders a PSNR value, naming the identical sentinel.
func formatPSNR(psnr float64) string {
	if psnr >= model.PSNRIdentical {
		return "identical"
	}
	return fmt.Sprintf("%.2f dB", psnr)
}

// integrityVerdict renders the checksum verdict for terminal output.
func integrityVerdict(rec *model.IntegrityRecord) string {
	if rec.Format == model.FormatLegacy {
		return "n/a (legacy payload)"
	}
	if rec.DataValid {
		return "valid"
	}
	return "INVALID"
}
