package imaging

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// MaskLightnessThreshold is the HSL lightness above which a mask pixel counts
// as foreground.
const MaskLightnessThreshold = 0.5

// FromImage converts a decoded image into an Image grid.
//
// Each channel is reduced to its 8-bit value (0-255). The grid origin is the
// image's Bounds().Min, so sub-images are handled transparently.
func FromImage(img image.Image) Image {
	bounds := img.Bounds()
	out := NewImage(bounds.Dy(), bounds.Dx())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			out.Set(y, x, 0, float64(r>>8))
			out.Set(y, x, 1, float64(g>>8))
			out.Set(y, x, 2, float64(b>>8))
		}
	}
	return out
}

// MaskFromImage binarises a segmentation image.
//
// A pixel is foreground when it is not fully transparent and its HSL
// lightness exceeds MaskLightnessThreshold. This accepts the usual
// white-on-black PNG masks as well as anti-aliased or lightly tinted ones.
func MaskFromImage(img image.Image) Mask {
	bounds := img.Bounds()
	out := NewMask(bounds.Dy(), bounds.Dx())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				// Fully transparent.
				continue
			}
			_, _, l := c.Hsl()
			if l > MaskLightnessThreshold {
				out.Set(y, x, true)
			}
		}
	}
	return out
}
