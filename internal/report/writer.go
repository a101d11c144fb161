package report

import (
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docseal/docseal/internal/model"
)

// Writer defines the interface for report output.
// Implementations write run results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// WriteEmbed outputs an embed run report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	WriteEmbed(result *model.EmbedResult) (int, error)

	// WriteExtract outputs an extract run report.
	WriteExtract(result *model.ExtractResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write structured results, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteEmbed outputs the embed report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteEmbed(result *model.EmbedResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteEmbed(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteExtract outputs the extract report to all configured Writers.
func (m *MultiWriter) WriteExtract(result *model.ExtractResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteExtract(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// qualityTitle renders a quality label in title case for display
// ("very good" -> "Very Good"). A fresh Caser per call: Casers are
// stateful and not safe for concurrent use.
func qualityTitle(q string) string {
	return cases.Title(language.English).String(q)
}

// qualityCounts tallies embed outcomes by quality label, failures under "".
func qualityCounts(images []model.ImageOutcome) map[string]int {
	counts := make(map[string]int)
	for i := range images {
		if images[i].Fidelity != nil {
			counts[images[i].Fidelity.Quality]++
		} else {
			counts[""]++
		}
	}
	return counts
}
