package model

import "time"

// PSNRIdentical is the finite sentinel reported when two images are
// bit-identical (mse == 0). PSNR is undefined there; we use a large finite
// value so the score stays representable in JSON and SQL.
const PSNRIdentical = 999.99

// Quality labels derived from PSNR.
const (
	QualityIdentical = "identical"
	QualityVeryGood  = "very good"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityPoor      = "poor"
)

// FidelityScore quantifies the visual difference between an original and a
// watermarked cover image.
type FidelityScore struct {
	// MSE is the mean squared error over all channels.
	MSE float64 `json:"mse"`

	// PSNR is the peak signal-to-noise ratio in dB, or PSNRIdentical when
	// MSE is zero.
	PSNR float64 `json:"psnr"`

	// Quality is the human-readable label derived from PSNR.
	Quality string `json:"quality"`
}

// QualityLabel maps a computed MSE/PSNR pair to its label.
// Thresholds follow the usual PSNR interpretation for watermarking:
// above 40 dB the change is imperceptible, below 20 dB it is obvious.
func QualityLabel(mse, psnr float64) string {
	switch {
	case mse == 0:
		return QualityIdentical
	case psnr > 40:
		return QualityVeryGood
	case psnr > 30:
		return QualityGood
	case psnr > 20:
		return QualityFair
	default:
		return QualityPoor
	}
}

// WatermarkedArtifact is a completed per-image embed result.
// Immutable after creation; produced by the watermark engine plus the
// fidelity verifier and consumed by the container reconstructor.
type WatermarkedArtifact struct {
	// Original is the cover image as extracted from the container.
	Original *CoverImage

	// Watermarked is the cover with the mark embedded in its blue LSBs.
	Watermarked *CoverImage

	// Fidelity scores the Original/Watermarked pair.
	Fidelity FidelityScore
}

// ImageOutcome records what happened to one cover image during a run.
// Failure of a single image does not abort a multi-image run; the error
// is carried here with its taxonomy tag.
type ImageOutcome struct {
	// Index and SourceID identify the cover within the container.
	Index    int    `json:"index"`
	SourceID string `json:"source_id"`

	// Width and Height are the cover dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Fidelity is set for successfully embedded images.
	Fidelity *FidelityScore `json:"fidelity,omitempty"`

	// ErrorTag is the taxonomy tag of the per-image failure, empty on
	// success.
	ErrorTag string `json:"error_tag,omitempty"`

	// ErrorDetail is the failure message, empty on success.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// Succeeded reports whether this image completed its stage without error.
func (o *ImageOutcome) Succeeded() bool { return o.ErrorTag == "" && o.ErrorDetail == "" }

// EmbedResult is the structured outcome of one embed run.
type EmbedResult struct {
	// RunID is the caller-supplied unique identifier of this run.
	RunID string `json:"run_id"`

	// Kind is the container format that was processed.
	Kind ContainerKind `json:"-"`

	// KindName is Kind rendered for JSON output.
	KindName string `json:"container_kind"`

	// Container holds the reconstructed container bytes.
	Container []byte `json:"-"`

	// Images holds one outcome per extracted cover, in extraction order.
	Images []ImageOutcome `json:"images"`

	// ImagesProcessed counts the covers that were embedded successfully.
	ImagesProcessed int `json:"images_processed"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// MeanPSNR returns the average PSNR across successful images, or zero when
// none succeeded.
func (r *EmbedResult) MeanPSNR() float64 {
	var sum float64
	var n int
	for i := range r.Images {
		if r.Images[i].Fidelity != nil {
			sum += r.Images[i].Fidelity.PSNR
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RecoveredMark is one watermark recovered from a single cover image.
type RecoveredMark struct {
	// Index and SourceID identify the cover the mark came from.
	Index    int    `json:"index"`
	SourceID string `json:"source_id"`

	// RasterPNG is the recovered bit plane encoded as PNG.
	RasterPNG []byte `json:"-"`

	// Texts holds the decoded QR payloads found in the bit plane.
	Texts []string `json:"texts"`

	// Integrity verifies the first decoded text, when any was found.
	Integrity *IntegrityRecord `json:"integrity,omitempty"`
}

// ExtractResult is the structured outcome of one extract run.
type ExtractResult struct {
	// RunID is the caller-supplied unique identifier of this run.
	RunID string `json:"run_id"`

	// Kind is the container format that was processed.
	Kind ContainerKind `json:"-"`

	// KindName is Kind rendered for JSON output.
	KindName string `json:"container_kind"`

	// Marks holds one entry per cover image that yielded a decodable
	// symbol, in extraction order.
	Marks []RecoveredMark `json:"marks"`

	// Images holds one outcome per extracted cover, including the ones
	// with no recoverable watermark.
	Images []ImageOutcome `json:"images"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ns"`
}

// RunRecord is a persisted history row describing one completed run.
type RunRecord struct {
	// RunID is the run's unique identifier.
	RunID string `json:"run_id"`

	// Operation is "embed" or "extract".
	Operation string `json:"operation"`

	// Kind is the container format name.
	Kind string `json:"container_kind"`

	// Fingerprint is the SHA3-256 hex digest of the input container.
	Fingerprint string `json:"fingerprint"`

	// ImagesTotal and ImagesSucceeded count the covers seen and the
	// covers that completed their stage.
	ImagesTotal     int `json:"images_total"`
	ImagesSucceeded int `json:"images_succeeded"`

	// MeanPSNR is the average fidelity for embed runs, zero otherwise.
	MeanPSNR float64 `json:"mean_psnr"`

	// CreatedAt is when the run finished.
	CreatedAt time.Time `json:"created_at"`
}
