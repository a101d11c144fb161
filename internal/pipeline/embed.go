package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docseal/docseal/internal/container"
	"github.com/docseal/docseal/internal/imagemeta"
	"github.com/docseal/docseal/internal/model"
	"github.com/docseal/docseal/internal/qr"
	"github.com/docseal/docseal/internal/stego"
	"github.com/docseal/docseal/internal/verify"
)

// Embed watermarks every cover image in the container with the payload
// and reassembles the container.
//
// Per-image failures (capacity, decode problems) are recorded on the
// result and do not abort the run; the affected images keep their
// original pixels. The run fails only when the container itself cannot be
// processed or when not a single image could be watermarked.
func (p *Pipeline) Embed(ctx context.Context, data []byte, payload string) (*model.EmbedResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	kind, err := model.DetectKind(data)
	if err != nil {
		return nil, err
	}

	p.logger.Info("starting embed run",
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

	wrapped, err := qr.Wrap(payload, p.addIntegrity)
	if err != nil {
		return nil, err
	}
	mark, err := qr.Render(wrapped, p.moduleSize)
	if err != nil {
		return nil, err
	}

	// Index-addressed result slots: covers finish out of order under the
	// concurrency limit, extraction order must survive.
	outcomes := make([]model.ImageOutcome, len(covers))
	watermarked := make([]image.Image, len(covers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range covers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			cover := &covers[i]
			outcomes[i] = p.embedOne(cover, mark)
			if outcomes[i].Succeeded() {
				watermarked[i] = cover.Image
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	processed := 0
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			processed++
		}
	}
	if processed == 0 {
		return nil, fmt.Errorf("%d covers, all failed: %w", len(covers), ErrNoImagesProcessed)
	}

	rebuilt, err := p.reconstruct(ctx, kind, data, covers, watermarked)
	if err != nil {
		return nil, err
	}

	result := &model.EmbedResult{
		RunID:           runID,
		Kind:            kind,
		KindName:        kind.String(),
		Container:       rebuilt,
		Images:          outcomes,
		ImagesProcessed: processed,
		Elapsed:         time.Since(start),
	}

	p.logger.Info("embed run complete",
		"run_id", runID,
		"images", len(covers),
		"processed", processed,
		"mean_psnr", result.MeanPSNR(),
		"elapsed", result.Elapsed,
	)

	p.recordRun(&model.RunRecord{
		RunID:           runID,
		Operation:       "embed",
		Kind:            kind.String(),
		Fingerprint:     Fingerprint(data),
		ImagesTotal:     len(covers),
		ImagesSucceeded: processed,
		MeanPSNR:        result.MeanPSNR(),
	}, outcomes)

	return result, nil
}

// embedOne watermarks a single cover in place and scores the result.
// The returned outcome carries the error taxonomy tag on failure.
func (p *Pipeline) embedOne(cover *model.CoverImage, mark image.Image) model.ImageOutcome {
	outcome := model.ImageOutcome{
		Index:    cover.Index,
		SourceID: cover.SourceID,
		Width:    cover.Width(),
		Height:   cover.Height(),
	}

	p.inspectMetadata(cover)

	embedded, err := stego.Embed(cover.Image, mark)
	if err != nil {
		outcome.ErrorTag = model.ErrorTag(err)
		outcome.ErrorDetail = err.Error()
		p.logger.Warn("cover failed embedding",
			"source", cover.SourceID,
			"error", err,
		)
		return outcome
	}

	score, err := verify.MSEPSNR(cover.Image, embedded)
	if err != nil {
		outcome.ErrorTag = model.ErrorTag(err)
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	cover.Image = embedded
	outcome.Fidelity = &score

	p.logger.Debug("cover watermarked",
		"source", cover.SourceID,
		"psnr", score.PSNR,
		"quality", score.Quality,
	)
	return outcome
}

// inspectMetadata surfaces identifying EXIF fields in the original cover
// stream. The PNG re-encode strips them on output; the warning tells the
// operator the source material carried them at all.
func (p *Pipeline) inspectMetadata(cover *model.CoverImage) {
	fields, err := imagemeta.Inspect(cover.Raw)
	if err != nil || len(fields) == 0 {
		return
	}
	sensitivity := imagemeta.HighestSensitivity(fields)
	if sensitivity < imagemeta.SensitivityMedium {
		return
	}
	p.logger.Warn("cover carries identifying metadata; re-encode will strip it",
		"source", cover.SourceID,
		"fields", len(fields),
		"sensitivity", sensitivity.String(),
	)
}

// reconstruct assembles the output container. DOCX replaces only the
// successfully watermarked media parts, so failed covers keep their
// original bytes verbatim. PDF assembly needs every page, so failed
// covers contribute their original pixels.
func (p *Pipeline) reconstruct(ctx context.Context, kind model.ContainerKind, original []byte, covers []model.CoverImage, watermarked []image.Image) ([]byte, error) {
	reconstructor, err := container.NewReconstructor(kind, p.dpi)
	if err != nil {
		return nil, err
	}

	var replacement []model.CoverImage
	if kind == model.KindDOCX {
		for i := range covers {
			if watermarked[i] != nil {
				replacement = append(replacement, covers[i])
			}
		}
	} else {
		replacement = covers
	}

	return reconstructor.Reconstruct(ctx, original, replacement)
}
