package stego

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/docseal/docseal/internal/model"
)

// binarizeThreshold splits mark pixels into black and white modules.
// 128 is the midpoint of the 8-bit range; QR rasters are 2-level anyway,
// so anything near either pole lands correctly.
const binarizeThreshold = 128

// Embed writes the mark into the cover's blue-channel LSBs and returns the
// watermarked copy. The cover is never mutated.
//
// Geometry convention: the mark is scaled to the cover's exact dimensions
// with nearest-neighbor interpolation (which preserves the 2-level raster),
// then one bit is written per cover pixel in row-major order. A black mark
// module embeds LSB 1. Embedding fails with a CapacityError when the mark
// carries more bits than the cover has pixels, because shrinking a mark
// loses modules and the symbol would not survive.
func Embed(cover image.Image, mark image.Image) (*image.RGBA, error) {
	cb := cover.Bounds()
	cw, ch := cb.Dx(), cb.Dy()

	mb := mark.Bounds()
	markBits := mb.Dx() * mb.Dy()
	if capacity := cw * ch; markBits > capacity {
		return nil, &model.CapacityError{MarkBits: markBits, Capacity: capacity}
	}

	fitted := mark
	if mb.Dx() != cw || mb.Dy() != ch {
		fitted = imaging.Resize(mark, cw, ch, imaging.NearestNeighbor)
	}

	// Normalize the cover into an RGBA buffer we own. draw.Src conversion
	// is lossless for the opaque rasters the extractor produces.
	out := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(out, out.Bounds(), cover, cb.Min, draw.Src)

	fb := fitted.Bounds()
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			i := out.PixOffset(x, y)
			if markBitAt(fitted, fb.Min.X+x, fb.Min.Y+y) == 1 {
				out.Pix[i+2] |= 1
			} else {
				out.Pix[i+2] &^= 1
			}
		}
	}

	return out, nil
}

// Extract reads the blue-channel LSB of every cover pixel in the same
// row-major order Embed uses, reconstructing a 2-level raster of the
// cover's dimensions: LSB 1 maps back to a black pixel. The recovered
// raster is handed to QR detection, which locates the symbol wherever it
// sits in the plane.
func Extract(cover image.Image) *image.Gray {
	cb := cover.Bounds()
	cw, ch := cb.Dx(), cb.Dy()

	out := image.NewGray(image.Rect(0, 0, cw, ch))
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			_, _, b, _ := cover.At(cb.Min.X+x, cb.Min.Y+y).RGBA()
			if uint8(b>>8)&1 == 1 {
				out.SetGray(x, y, color.Gray{Y: 0})
			} else {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// markBitAt binarizes one mark pixel: 1 for black modules, 0 for white.
// Uses integer luminance (ITU-R BT.601 weights over 16-bit channels).
func markBitAt(mark image.Image, x, y int) uint8 {
	r, g, b, _ := mark.At(x, y).RGBA()
	luma := (299*r + 587*g + 114*b) / 1000
	if uint8(luma>>8) < binarizeThreshold {
		return 1
	}
	return 0
}
