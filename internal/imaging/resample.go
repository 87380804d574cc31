package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ByteScale maps the grid linearly onto 0-255, sending its minimum to 0 and
// its maximum to 255. Values are offset by 0.4999 and truncated, so exact
// halves round down. A constant grid maps to all zeros.
func ByteScale(g Gray) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	if len(g.Pix) == 0 {
		return out
	}

	lo, hi := g.Pix[0], g.Pix[0]
	for _, v := range g.Pix[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		// Every value equals lo, so (v-lo)*scale is zero whatever the scale.
		span = 1
	}
	scale := 255 / span

	for i, v := range g.Pix {
		s := (v-lo)*scale + 0.4999
		if s < 0 {
			s = 0
		}
		if s > 255 {
			s = 255
		}
		out.Pix[i] = uint8(s)
	}
	return out
}

// Resample byte-scales the grid and resizes it to width×height with bilinear
// interpolation, returning the result as a Gray grid in the 0-255 range.
//
// Returns a zero-sized grid when either target dimension is not positive or
// the source is empty.
func Resample(g Gray, width, height int) Gray {
	if width <= 0 || height <= 0 || g.Width == 0 || g.Height == 0 {
		return NewGray(0, 0)
	}

	resized := imaging.Resize(ByteScale(g), width, height, imaging.Linear)

	out := NewGray(height, width)
	for y := 0; y < height; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < width; x++ {
			// NRGBA of a gray source: R == G == B.
			out.Set(y, x, float64(row[x*4]))
		}
	}
	return out
}
