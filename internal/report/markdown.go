package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/docseal/docseal/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteEmbed outputs the embed run in Markdown format.
func (w *MarkdownWriter) WriteEmbed(result *model.EmbedResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Watermark Embed Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + result.RunID + "`"},
			{"Container", result.KindName},
			{"Images Found", strconv.Itoa(len(result.Images))},
			{"Images Processed", strconv.Itoa(result.ImagesProcessed)},
			{"Mean PSNR", formatPSNR(result.MeanPSNR())},
			{"Elapsed", result.Elapsed.String()},
		},
	})
	md.PlainText("")

	w.writeQualityChart(md, result.Images)
	w.writeEmbedAlert(md, result)

	md.H2("Image Fidelity")
	md.PlainText("")
	w.writeImagesTable(md, result.Images, true)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteExtract outputs the extract run in Markdown format.
func (w *MarkdownWriter) WriteExtract(result *model.ExtractResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Watermark Extract Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + result.RunID + "`"},
			{"Container", result.KindName},
			{"Images Examined", strconv.Itoa(len(result.Images))},
			{"Marks Recovered", strconv.Itoa(len(result.Marks))},
			{"Elapsed", result.Elapsed.String()},
		},
	})
	md.PlainText("")

	w.writeExtractAlert(md, result)

	md.H2("Recovered Marks")
	md.PlainText("")
	if len(result.Marks) == 0 {
		md.PlainText("No watermark recovered from any image.")
		md.PlainText("")
	} else {
		w.writeMarksTable(md, result.Marks)
	}

	md.H2("Images")
	md.PlainText("")
	w.writeImagesTable(md, result.Images, false)

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeQualityChart writes a mermaid pie chart of the quality distribution.
func (w *MarkdownWriter) writeQualityChart(md *markdown.Markdown, images []model.ImageOutcome) {
	counts := qualityCounts(images)
	if len(images) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Fidelity Distribution"),
		piechart.WithShowData(true),
	)

	for _, quality := range []string{
		model.QualityIdentical,
		model.QualityVeryGood,
		model.QualityGood,
		model.QualityFair,
		model.QualityPoor,
	} {
		if n := counts[quality]; n > 0 {
			chart.LabelAndIntValue(qualityTitle(quality), uint64(n))
		}
	}
	if n := counts[""]; n > 0 {
		chart.LabelAndIntValue("Failed", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeEmbedAlert writes an appropriate alert based on run outcomes.
func (w *MarkdownWriter) writeEmbedAlert(md *markdown.Markdown, result *model.EmbedResult) {
	failed := len(result.Images) - result.ImagesProcessed
	switch {
	case failed > 0:
		md.Warningf(
			"%d image(s) could not be watermarked and keep their original pixels.",
			failed,
		)
	case result.MeanPSNR() >= model.PSNRIdentical:
		md.Note("Watermarked images are bit-identical to the originals outside the embedded plane.")
	default:
		md.Tipf("All %d image(s) watermarked. Mean fidelity %s.",
			result.ImagesProcessed, formatPSNR(result.MeanPSNR()))
	}
	md.PlainText("")
}

// writeExtractAlert writes an appropriate alert based on recovery outcomes.
func (w *MarkdownWriter) writeExtractAlert(md *markdown.Markdown, result *model.ExtractResult) {
	invalid := 0
	for i := range result.Marks {
		rec := result.Marks[i].Integrity
		if rec != nil && rec.Format == model.FormatEnvelope && !rec.DataValid {
			invalid++
		}
	}

	switch {
	case invalid > 0:
		md.Cautionf(
			"%d recovered payload(s) failed their checksum. The document or its watermark was modified after embedding.",
			invalid,
		)
	case len(result.Marks) == 0:
		md.Warning("No watermark was recovered. The document may be unwatermarked, or the carrier images were re-encoded lossily.")
	default:
		md.Tipf("%d mark(s) recovered.", len(result.Marks))
	}
	md.PlainText("")
}

// writeImagesTable writes per-image outcomes. Fidelity columns are only
// meaningful for embed runs.
func (w *MarkdownWriter) writeImagesTable(md *markdown.Markdown, images []model.ImageOutcome, withFidelity bool) {
	headers := []string{"Source", "Dimensions", "Status"}
	if withFidelity {
		headers = append(headers, "PSNR", "Quality")
	}

	rows := make([][]string, len(images))
	for i := range images {
		img := &images[i]
		status := "ok"
		if !img.Succeeded() {
			status = img.ErrorTag
		}
		row := []string{
			"`" + img.SourceID + "`",
			fmt.Sprintf("%dx%d", img.Width, img.Height),
			status,
		}
		if withFidelity {
			psnr, quality := "-", "-"
			if img.Fidelity != nil {
				psnr = formatPSNR(img.Fidelity.PSNR)
				quality = qualityTitle(img.Fidelity.Quality)
			}
			row = append(row, psnr, quality)
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: headers,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMarksTable writes the recovered payloads with their verdicts.
func (w *MarkdownWriter) writeMarksTable(md *markdown.Markdown, marks []model.RecoveredMark) {
	rows := make([][]string, len(marks))
	for i := range marks {
		mark := &marks[i]
		text := "-"
		if len(mark.Texts) > 0 {
			text = truncateString(mark.Texts[0], 60)
		}
		format, verdict := "-", "-"
		if mark.Integrity != nil {
			format = mark.Integrity.Format.String()
			verdict = integrityVerdict(mark.Integrity)
		}
		rows[i] = []string{
			"`" + mark.SourceID + "`",
			text,
			format,
			verdict,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Payload", "Format", "Checksum"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by docseal*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
