package report

import (
	"encoding/json"
	"io"

	"github.com/docseal/docseal/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is stamped on every report for tool integration.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// WithVersion stamps the tool version on report envelopes.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONEnvelope wraps a run result with output metadata.
//
// Design decision: We wrap the result rather than modifying the result
// types because this allows us to add output-specific fields without
// polluting the core data structures.
type JSONEnvelope struct {
	// Version is the docseal version that generated this report.
	Version string `json:"version,omitempty"`

	// Operation is "embed" or "extract".
	Operation string `json:"operation"`

	// Embed is set for embed runs.
	Embed *model.EmbedResult `json:"embed,omitempty"`

	// Extract is set for extract runs.
	Extract *model.ExtractResult `json:"extract,omitempty"`
}

// WriteEmbed outputs the embed run in JSON format.
func (w *JSONWriter) WriteEmbed(result *model.EmbedResult) (int, error) {
	return w.writeJSON(&JSONEnvelope{
		Version:   w.version,
		Operation: "embed",
		Embed:     result,
	})
}

// WriteExtract outputs the extract run in JSON format.
func (w *JSONWriter) WriteExtract(result *model.ExtractResult) (int, error) {
	return w.writeJSON(&JSONEnvelope{
		Version:   w.version,
		Operation: "extract",
		Extract:   result,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v interface{}) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
