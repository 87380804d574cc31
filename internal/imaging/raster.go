package imaging

import (
	"fmt"
	"image"
)

// Channels is the number of intensity channels stored per Image cell.
const Channels = 3

// Image is a height×width grid of three-channel intensities stored row-major.
//
// Values keep the 0-255 range of the decoded 8-bit source; no gamma or
// luminance weighting is applied.
type Image struct {
	Height int
	Width  int
	Pix    []float64
}

// NewImage allocates a zero-valued image of the given size.
func NewImage(height, width int) Image {
	return Image{Height: height, Width: width, Pix: make([]float64, height*width*Channels)}
}

// At returns channel ch of the cell at (row, col).
func (im Image) At(row, col, ch int) float64 {
	return im.Pix[(row*im.Width+col)*Channels+ch]
}

// Set assigns channel ch of the cell at (row, col).
func (im Image) Set(row, col, ch int, v float64) {
	im.Pix[(row*im.Width+col)*Channels+ch] = v
}

// Bounds returns the grid rectangle, with X as column and Y as row.
func (im Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, im.Width, im.Height)
}

// Mean collapses the image to one channel by averaging its three channels.
func (im Image) Mean() Gray {
	g := NewGray(im.Height, im.Width)
	for i := range g.Pix {
		base := i * Channels
		g.Pix[i] = (im.Pix[base] + im.Pix[base+1] + im.Pix[base+2]) / Channels
	}
	return g
}

// Gray is a height×width single-channel grid stored row-major.
type Gray struct {
	Height int
	Width  int
	Pix    []float64
}

// NewGray allocates a zero-valued single-channel grid.
func NewGray(height, width int) Gray {
	return Gray{Height: height, Width: width, Pix: make([]float64, height*width)}
}

// At returns the value at (row, col).
func (g Gray) At(row, col int) float64 {
	return g.Pix[row*g.Width+col]
}

// Set assigns the value at (row, col).
func (g Gray) Set(row, col int, v float64) {
	g.Pix[row*g.Width+col] = v
}

// Bounds returns the grid rectangle, with X as column and Y as row.
func (g Gray) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Sub copies the cells inside r, clamped to the grid bounds.
// An empty intersection yields a 0×0 grid.
func (g Gray) Sub(r image.Rectangle) Gray {
	r = r.Intersect(g.Bounds())
	out := NewGray(r.Dy(), r.Dx())
	for row := 0; row < out.Height; row++ {
		copy(out.Pix[row*out.Width:(row+1)*out.Width],
			g.Pix[(row+r.Min.Y)*g.Width+r.Min.X:(row+r.Min.Y)*g.Width+r.Max.X])
	}
	return out
}

// AnyNonZero reports whether at least one cell differs from zero.
func (g Gray) AnyNonZero() bool {
	for _, v := range g.Pix {
		if v != 0 {
			return true
		}
	}
	return false
}

// Mask is a height×width foreground/background segmentation; true marks
// foreground.
type Mask struct {
	Height int
	Width  int
	Bits   []bool
}

// NewMask allocates an all-background mask.
func NewMask(height, width int) Mask {
	return Mask{Height: height, Width: width, Bits: make([]bool, height*width)}
}

// At reports whether (row, col) is foreground.
func (m Mask) At(row, col int) bool {
	return m.Bits[row*m.Width+col]
}

// Set marks (row, col) as foreground or background.
func (m Mask) Set(row, col int, fg bool) {
	m.Bits[row*m.Width+col] = fg
}

// Fill sets every cell inside r (clamped to the mask) to fg.
func (m Mask) Fill(r image.Rectangle, fg bool) {
	r = r.Intersect(m.Bounds())
	for row := r.Min.Y; row < r.Max.Y; row++ {
		for col := r.Min.X; col < r.Max.X; col++ {
			m.Bits[row*m.Width+col] = fg
		}
	}
}

// Bounds returns the grid rectangle, with X as column and Y as row.
func (m Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// Sub copies the cells inside r, clamped to the mask bounds.
func (m Mask) Sub(r image.Rectangle) Mask {
	r = r.Intersect(m.Bounds())
	out := NewMask(r.Dy(), r.Dx())
	for row := 0; row < out.Height; row++ {
		copy(out.Bits[row*out.Width:(row+1)*out.Width],
			m.Bits[(row+r.Min.Y)*m.Width+r.Min.X:(row+r.Min.Y)*m.Width+r.Max.X])
	}
	return out
}

// Count returns the number of foreground cells inside r, clamped to the mask.
func (m Mask) Count(r image.Rectangle) int {
	r = r.Intersect(m.Bounds())
	n := 0
	for row := r.Min.Y; row < r.Max.Y; row++ {
		for col := r.Min.X; col < r.Max.X; col++ {
			if m.Bits[row*m.Width+col] {
				n++
			}
		}
	}
	return n
}

// CheckSameSize returns an error when the image and mask grids differ in shape.
func CheckSameSize(im Image, m Mask) error {
	if im.Height != m.Height || im.Width != m.Width {
		return fmt.Errorf("image is %dx%d but mask is %dx%d", im.Height, im.Width, m.Height, m.Width)
	}
	return nil
}
