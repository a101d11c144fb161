package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docseal/docseal/internal/container"
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/qr"
	"github.com/docseal/docseal/internal/stego"
	"github.com/docseal/docseal/internal/verify"
)

// Extract recovers the watermark bit planes from every cover image in
// the container and decodes the QR payloads they carry.
//
// Covers without a decodable symbol are recorded with the decoding error
// tag but do not abort the run; a partially watermarked document still
// yields its marks.
func (p *Pipeline) Extract(ctx context.Context, data []byte) (*model.ExtractResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	kind, err := model.DetectKind(data)
	if err != nil {
		return nil, err
	}

	p.logger.Info("starting extract run",
		"run_id", runID,
		"kind", kind.String(),
		"size", len(data),
	)

	extractor, err := container.NewExtractor(kind, p.mode, p.dpi)
	if err != nil {
		return nil, err
	}
	covers, err := extractor.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	outcomes := make([]model.ImageOutcome, len(covers))
	marks := make([]*model.RecoveredMark, len(covers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range covers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			outcomes[i], marks[i] = p.extractOne(&covers[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &model.ExtractResult{
		RunID:    runID,
		Kind:     kind,
		KindName: kind.String(),
		Images:   outcomes,
		Elapsed:  time.Since(start),
	}
	recovered := 0
	for _, m := range marks {
		if m != nil {
			result.Marks = append(result.Marks, *m)
			recovered++
		}
	}

	p.logger.Info("extract run complete",
		"run_id", runID,
		"images", len(covers),
		"recovered", recovered,
		"elapsed", result.Elapsed,
	)

	p.recordRun(&model.RunRecord{
		RunID:           runID,
		Operation:       "extract",
		Kind:            kind.String(),
		Fingerprint:     Fingerprint(data),
		ImagesTotal:     len(covers),
		ImagesSucceeded: recovered,
	}, outcomes)

	return result, nil
}

// extractOne recovers the bit plane of a single cover and decodes it.
// A cover with no decodable symbol yields an outcome tagged with the
// decoding error and a nil mark.
func (p *Pipeline) extractOne(cover *model.CoverImage) (model.ImageOutcome, *model.RecoveredMark) {
	outcome := model.ImageOutcome{
		Index:    cover.Index,
		SourceID: cover.SourceID,
		Width:    cover.Width(),
		Height:   cover.Height(),
	}

	plane := stego.Extract(cover.Image)

	texts, err := qr.Decode(plane)
	if err != nil {
		outcome.ErrorTag = model.ErrorTag(err)
		outcome.ErrorDetail = err.Error()
		return outcome, nil
	}
	if len(texts) == 0 {
		outcome.ErrorTag = model.ErrorTag(model.ErrNoWatermark)
		outcome.ErrorDetail = model.ErrNoWatermark.Error()
		p.logger.Debug("no symbol in cover", "source", cover.SourceID)
		return outcome, nil
	}

	mark := &model.RecoveredMark{
		Index:    cover.Index,
		SourceID: cover.SourceID,
		Texts:    texts,
	}

	if raster, err := encodePlanePNG(plane); err == nil {
		mark.RasterPNG = raster
	}

	integrity := verify.Payload(texts[0])
	mark.Integrity = &integrity

	p.logger.Debug("mark recovered",
		"source", cover.SourceID,
		"symbols", len(texts),
		"format", integrity.Format.String(),
		"valid", integrity.DataValid,
	)
	return outcome, mark
}

// encodePlanePNG serializes a recovered bit plane as PNG bytes.
func encodePlanePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
