package pipeline

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"

	"golang.org/x/crypto/sha3"

	"github.com/docseal/docseal/internal/database"
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/qr"
	"github.com/docseal/docseal/internal/verify"
)

// ErrNoImagesProcessed is returned when every cover image in a container
// failed its embedding stage. A run that watermarks nothing must not emit
// an output container that looks watermarked.
var ErrNoImagesProcessed = errors.New("no cover image could be watermarked")

// Pipeline drives the watermarking operations over one configuration.
// It is safe for concurrent use; all fields are set at construction and
// never mutated.
type Pipeline struct {
	// moduleSize is the QR module edge length in pixels.
	moduleSize int

	// dpi is the rasterization density for page-render extraction and PDF
	// reconstruction.
	dpi int

	// mode selects the PDF extraction strategy.
	mode model.ExtractionMode

	// concurrency is the number of cover images processed in parallel.
	concurrency int

	// addIntegrity wraps payloads in a CRC32 envelope before encoding.
	addIntegrity bool

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// history records completed runs when non-nil.
	history *database.HistoryDB
}

// Option is a function that configures a Pipeline.
// This follows the functional options pattern for clean API design.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithModuleSize sets the QR module edge length in pixels.
func WithModuleSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.moduleSize = size
		}
	}
}

// WithDPI sets the rasterization density.
func WithDPI(dpi int) Option {
	return func(p *Pipeline) {
		if dpi > 0 {
			p.dpi = dpi
		}
	}
}

// WithMode sets the PDF extraction strategy.
func WithMode(mode model.ExtractionMode) Option {
	return func(p *Pipeline) {
		p.mode = mode
	}
}

// WithConcurrency sets the maximum number of covers processed in parallel.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithIntegrity controls whether payloads are wrapped in a CRC32 envelope.
// Enabled by default.
func WithIntegrity(enabled bool) Option {
	return func(p *Pipeline) {
		p.addIntegrity = enabled
	}
}

// WithHistory sets the run-history database. When nil (the default), runs
// are not persisted.
func WithHistory(db *database.HistoryDB) Option {
	return func(p *Pipeline) {
		p.history = db
	}
}

// New creates a Pipeline with the given options applied over defaults.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		moduleSize:   qr.DefaultModuleSize,
		dpi:          300,
		mode:         model.ModeRealImages,
		concurrency:  4,
		addIntegrity: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// GenerateWatermark renders the payload as a standalone QR raster encoded
// as PNG. This is the embed operation's mark, exposed so users can inspect
// or archive the mark independently of any container.
func (p *Pipeline) GenerateWatermark(payload string) ([]byte, error) {
	wrapped, err := qr.Wrap(payload, p.addIntegrity)
	if err != nil {
		return nil, err
	}
	return qr.RenderPNG(wrapped, p.moduleSize)
}

// VerifyIntegrity checks a recovered payload text against its embedded
// CRC32 envelope. Non-JSON payloads are reported as legacy, not invalid.
func (p *Pipeline) VerifyIntegrity(text string) model.IntegrityRecord {
	return verify.Payload(text)
}

// Fingerprint returns the SHA3-256 hex digest of container bytes. Runs
// are keyed by this digest in the history database.
func Fingerprint(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// recordRun persists a completed run when a history database is attached.
// Persistence failures are logged, never fatal: the run itself succeeded.
func (p *Pipeline) recordRun(rec *model.RunRecord, images []model.ImageOutcome) {
	if p.history == nil {
		return
	}
	// Context deliberately detached from the run's: a cancelled run that
	// still produced a result is worth recording.
	if err := p.history.InsertRun(context.Background(), rec, images); err != nil {
		p.logger.Warn("failed to record run",
			"run_id", rec.RunID,
			"error", err,
		)
	}
}
