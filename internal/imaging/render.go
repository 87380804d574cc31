package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultMarkerColor is used when a marker colour cannot be parsed.
const DefaultMarkerColor = "#ff0000"

// EncodedImage is a PNG rendering ready to be embedded in a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as base64 PNG, first enlarging it by scale when scale
// is above 1. Enlargement uses nearest-neighbour sampling so that individual
// cells of small patches stay visible.
func EncodePNG(img image.Image, scale int) (*EncodedImage, error) {
	if scale > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// MaskImage renders a mask as white foreground on black.
func MaskImage(m Mask) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, fg := range m.Bits {
		if fg {
			out.Pix[i] = 255
		}
	}
	return out
}

// OverlayMarkers draws a square marker of the given radius around each
// (row, col) location on top of the mask. The colour is a hex string such as
// "#00ff00"; an invalid string falls back to DefaultMarkerColor.
//
// Parameters:
//   - m: The mask drawn underneath, white on black.
//   - centres: Marker locations with X as column and Y as row.
//   - radius: Half the side of each square marker, in pixels.
//   - hex: Marker colour.
//
// Returns:
//   - *image.RGBA: A new image the size of the mask.
func OverlayMarkers(m Mask, centres []image.Point, radius int, hex string) *image.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(DefaultMarkerColor)
	}
	r, g, b := c.RGB255()
	marker := color.RGBA{r, g, b, 255}

	src := MaskImage(m)
	bounds := src.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, src, bounds.Min, draw.Src)

	for _, p := range centres {
		box := image.Rect(p.X-radius, p.Y-radius, p.X+radius+1, p.Y+radius+1).Intersect(bounds)
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				// Outline only, so the boundary stays visible underneath.
				if y == box.Min.Y || y == box.Max.Y-1 || x == box.Min.X || x == box.Max.X-1 {
					out.SetRGBA(x, y, marker)
				}
			}
		}
	}
	return out
}
