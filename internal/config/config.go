package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/docseal/docseal/internal/model"
)

// Default configuration values.
const (
	// DefaultModuleSize is the QR module edge length in pixels. Ten pixels
	// per module keeps the rendered mark decodable after nearest-neighbor
	// resizing to covers of typical document-image dimensions.
	DefaultModuleSize = 10

	// DefaultDPI is the rasterization density for PDF page-render
	// extraction and the nominal resolution of reconstructed PDF pages.
	// 300 DPI matches print resolution, so page renders keep enough
	// pixels to carry a mark without visible degradation.
	DefaultDPI = 300

	// DefaultConcurrency is the number of cover images watermarked in
	// parallel. Four workers saturate typical document image counts
	// without excessive memory pressure from decoded rasters.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "docseal"
)

// Config holds all configuration options for docseal.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., EmbedConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Input is the path of the document to process.
	Input string

	// Output is the path the watermarked document is written to.
	// If empty, embed derives it from Input ("report.docx" -> "report.marked.docx").
	Output string

	// Payload is the text to embed. Required for embed operations.
	Payload string

	// AddIntegrity wraps the payload in a CRC32 envelope before encoding.
	// Extraction verifies the checksum and reports tampering.
	AddIntegrity bool

	// ModuleSize is the QR module edge length in pixels.
	ModuleSize int

	// DPI is the rasterization density for page-render mode and PDF
	// reconstruction.
	DPI int

	// Mode selects the PDF extraction strategy. Ignored for DOCX.
	Mode model.ExtractionMode

	// Concurrency is the number of cover images processed in parallel.
	Concurrency int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .docseal in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Profiles holds named watermarking profiles loaded from the config
	// file. This is populated by LoadConfigFile.
	Profiles *File

	// Profile is the name of the profile to apply, if any.
	Profile string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite run history.
	// When set, runs are recorded for later inspection via the history
	// command. When empty, runs are not persisted.
	// Defaults to XDG data directory (~/.local/share/docseal on Linux).
	DBDir string

	// SaveToDB indicates whether to record runs in the history database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., module size, DPI).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		ModuleSize:   DefaultModuleSize,
		DPI:          DefaultDPI,
		Concurrency:  DefaultConcurrency,
		Mode:         model.ModeRealImages,
		AddIntegrity: true,
	}
}

// XDGDataDir returns the XDG data directory for docseal.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/docseal
// On macOS: ~/Library/Application Support/docseal
// On Windows: %LOCALAPPDATA%\docseal
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docseal.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/docseal
// On macOS: ~/Library/Application Support/docseal
// On Windows: %APPDATA%\docseal
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for docseal.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.cache/docseal
// On macOS: ~/Library/Caches/docseal
// On Windows: %LOCALAPPDATA%\docseal\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any processing begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Input == "" {
		return ErrNoInput
	}

	if c.ModuleSize <= 0 {
		return ErrInvalidModuleSize
	}

	if c.DPI <= 0 {
		return ErrInvalidDPI
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// ApplyProfile overlays the named profile (or the file defaults when no
// name is set) onto the config. Flags already parsed into c win over
// profile values only where the profile leaves them unset.
func (c *Config) ApplyProfile() {
	if c.Profiles == nil {
		return
	}
	p := c.Profiles.GetProfile(c.Profile)
	if p.ModuleSize != 0 {
		c.ModuleSize = p.ModuleSize
	}
	if p.DPI != 0 {
		c.DPI = p.DPI
	}
	if p.Mode != "" {
		if m, err := ParseMode(p.Mode); err == nil {
			c.Mode = m
		}
	}
	if p.Concurrency != 0 {
		c.Concurrency = p.Concurrency
	}
	if p.AddIntegrity != nil {
		c.AddIntegrity = *p.AddIntegrity
	}
}

// ParseMode converts a mode flag value to an ExtractionMode.
func ParseMode(s string) (model.ExtractionMode, error) {
	switch s {
	case "", "real-images":
		return model.ModeRealImages, nil
	case "page-render":
		return model.ModePageRender, nil
	default:
		return model.ModeRealImages, ErrInvalidMode
	}
}
