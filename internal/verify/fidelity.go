package verify

import (
	"image"
	"math"

	"github.com/docseal/docseal/internal/model"
)

// maxChannelValue is the peak signal for 8-bit channels.
const maxChannelValue = 255.0

// MSEPSNR computes the mean squared error and peak signal-to-noise ratio
// between two images of identical dimensions, over the R, G, and B
// channels in floating point.
//
// PSNR is 20*log10(255/sqrt(mse)) for mse > 0. For mse == 0 the images
// are bit-identical and PSNR is undefined; we report the finite sentinel
// model.PSNRIdentical so the score stays representable downstream.
// Returns a DimensionMismatchError when the images cannot be compared.
func MSEPSNR(a, b image.Image) (model.FidelityScore, error) {
	ab, bb := a.Bounds(), b.Bounds()
	aw, ah := ab.Dx(), ab.Dy()
	bw, bh := bb.Dx(), bb.Dy()

	if aw != bw || ah != bh {
		return model.FidelityScore{}, &model.DimensionMismatchError{
			AWidth: aw, AHeight: ah,
			BWidth: bw, BHeight: bh,
		}
	}

	var sum float64
	for y := 0; y < ah; y++ {
		for x := 0; x < aw; x++ {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()

			dr := float64(ar>>8) - float64(br>>8)
			dg := float64(ag>>8) - float64(bg>>8)
			db := float64(abl>>8) - float64(bbl>>8)
			sum += dr*dr + dg*dg + db*db
		}
	}

	mse := sum / float64(aw*ah*3)

	psnr := model.PSNRIdentical
	if mse > 0 {
		psnr = 20 * math.Log10(maxChannelValue/math.Sqrt(mse))
		// Clamp into a representable range; hugely different images can
		// drive the ratio negative.
		psnr = math.Max(0, math.Min(psnr, model.PSNRIdentical))
	}

	return model.FidelityScore{
		MSE:     mse,
		PSNR:    psnr,
		Quality: model.QualityLabel(mse, psnr),
	}, nil
}
