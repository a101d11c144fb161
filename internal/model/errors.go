package model

import (
	"errors"
	"fmt"
)

// Error tags identify each failure class across process boundaries.
// Every error surfaced by the core carries one of these tags so that
// front ends can translate failures without parsing message text.
const (
	TagNoImagesFound     = "no_images_found"
	TagCapacity          = "capacity_exceeded"
	TagDimensionMismatch = "dimension_mismatch"
	TagDecoding          = "no_watermark_decoded"
	TagReconstruction    = "reconstruction_failed"
	TagFormat            = "invalid_container_format"
)

// Run-level and per-image sentinel errors.
//
// Design decision: We use package-level sentinel errors for the failure
// classes that carry no parameters, so callers can use errors.Is() for
// programmatic handling while still getting human-readable messages.
// Parameterized failures (capacity, dimensions) get dedicated error types
// below for the same reason.
var (
	// ErrNoImagesFound is returned when a container holds zero eligible
	// cover images. This aborts the whole run: there is nothing to
	// watermark and nothing to extract from.
	ErrNoImagesFound = errors.New("container has no embedded images")

	// ErrNoWatermark is recorded per image when no QR symbol could be
	// decoded from the extracted bit plane. It is not fatal to the run;
	// other images may still yield a watermark.
	ErrNoWatermark = errors.New("no watermark decoded from image")

	// ErrReconstruction is returned when the output container cannot be
	// assembled. This aborts the run; partial containers are never emitted.
	ErrReconstruction = errors.New("cannot assemble output container")

	// ErrInvalidFormat is returned when the container bytes are not a
	// valid DOCX or PDF file.
	ErrInvalidFormat = errors.New("container bytes are not a valid DOCX or PDF")
)

// CapacityError reports a mark whose bit count exceeds the cover's
// embedding capacity (one bit per pixel). It is fatal for the affected
// image only; other images in the run may still succeed.
type CapacityError struct {
	// MarkBits is the number of bits the mark requires.
	MarkBits int

	// Capacity is width*height of the cover image.
	Capacity int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("mark of %d bits exceeds cover capacity of %d bits", e.MarkBits, e.Capacity)
}

// DimensionMismatchError reports a fidelity comparison between images of
// different dimensions. It is recorded on the image outcome and does not
// abort the run.
type DimensionMismatchError struct {
	AWidth, AHeight int
	BWidth, BHeight int
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("image dimensions differ: %dx%d vs %dx%d",
		e.AWidth, e.AHeight, e.BWidth, e.BHeight)
}

// ErrorTag maps an error to its taxonomy tag. Unknown errors map to the
// empty string; callers treat those as internal failures.
func ErrorTag(err error) string {
	var capErr *CapacityError
	var dimErr *DimensionMismatchError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoImagesFound):
		return TagNoImagesFound
	case errors.As(err, &capErr):
		return TagCapacity
	case errors.As(err, &dimErr):
		return TagDimensionMismatch
	case errors.Is(err, ErrNoWatermark):
		return TagDecoding
	case errors.Is(err, ErrReconstruction):
		return TagReconstruction
	case errors.Is(err, ErrInvalidFormat):
		return TagFormat
	}
	return ""
}
