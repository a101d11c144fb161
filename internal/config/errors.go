package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoInput is returned when no input document is specified.
	ErrNoInput = errors.New("no input specified: provide a document path")

	// ErrNoPayload is returned when an embed operation has no payload text.
	// An empty payload would produce a watermark that carries nothing.
	ErrNoPayload = errors.New("no payload specified: provide the text to embed")

	// ErrInvalidModuleSize is returned when the QR module size is not positive.
	// A module size of zero would render an empty raster.
	ErrInvalidModuleSize = errors.New("invalid module size: must be positive")

	// ErrInvalidDPI is returned when the rasterization density is not positive.
	ErrInvalidDPI = errors.New("invalid dpi: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	// Zero workers would mean no images are ever processed.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMode is returned when the extraction mode name is not
	// "real-images" or "page-render".
	ErrInvalidMode = errors.New(`invalid extraction mode: must be "real-images" or "page-render"`)

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
