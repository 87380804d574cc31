package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// ScaleDivisor converts a foreground extent into a scale unit.
const ScaleDivisor = 20

var (
	// ErrNoForeground is returned when a mask has no foreground cell.
	ErrNoForeground = errors.New("mask has no foreground")
	// ErrNoBackground is returned when a mask has no background cell.
	ErrNoBackground = errors.New("mask has no background")
)

// ForegroundBounds returns the bounding box of the foreground cells, with X as
// column and Y as row. The box is half-open: Max is one past the last
// foreground row and column. ok is false for a mask without foreground.
func ForegroundBounds(mask imaging.Mask) (bounds image.Rectangle, ok bool) {
	minRow, minCol := mask.Height, mask.Width
	maxRow, maxCol := -1, -1
	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			if !mask.At(row, col) {
				continue
			}
			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
			if col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
		}
	}
	if maxRow < 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(minCol, minRow, maxCol+1, maxRow+1), true
}

// ForegroundExtent returns the smaller side of the foreground bounding box.
//
// Parameters:
//   - mask: A mask with at least one foreground and one background cell.
//
// Returns:
//   - int: min(height, width) of the bounding box, counted inclusively.
//   - error: ErrNoForeground or ErrNoBackground when the precondition fails.
func ForegroundExtent(mask imaging.Mask) (int, error) {
	bounds, ok := ForegroundBounds(mask)
	if !ok {
		return 0, fmt.Errorf("foreground extent of %dx%d mask: %w", mask.Height, mask.Width, ErrNoForeground)
	}
	if mask.Count(mask.Bounds()) == len(mask.Bits) {
		return 0, fmt.Errorf("foreground extent of %dx%d mask: %w", mask.Height, mask.Width, ErrNoBackground)
	}
	return min(bounds.Dx(), bounds.Dy()), nil
}

// ScaleUnit returns the foreground extent divided by ScaleDivisor. Patch
// half-widths are expressed in multiples of this unit so that patches cover
// comparable parts of objects imaged at different sizes.
func ScaleUnit(mask imaging.Mask) (float64, error) {
	extent, err := ForegroundExtent(mask)
	if err != nil {
		return 0, err
	}
	return float64(extent) / ScaleDivisor, nil
}
