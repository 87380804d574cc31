package descriptor

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// DefaultScales are the patch half-widths, in scale units, extracted around
// every interest point.
var DefaultScales = []int{1, 4, 16}

var (
	// ErrNoScales is returned when patch extraction is given no scales.
	ErrNoScales = errors.New("no patch scales")
	// ErrNoPoints is returned when patch extraction is given no interest points.
	ErrNoPoints = errors.New("no interest points")
	// ErrInvalidScale is returned for a scale that is zero or negative.
	ErrInvalidScale = errors.New("patch scale must be positive")
)

// PatchPair is an image patch and the mask patch covering the same cells.
type PatchPair struct {
	// Point is the interest point the patches are centred on.
	Point detection.Point

	// Scale is the scale multiplier the patches were extracted at.
	Scale int

	// Window is the clamped region of the source grids, X as column.
	Window image.Rectangle

	// Image is the single-channel image patch.
	Image imaging.Gray

	// Mask is the mask patch.
	Mask imaging.Mask
}

// Patches is a one-shot sequence of valid patch pairs.
//
// Pairs are produced on demand, scale by scale, each scale visiting every
// point in order. A pair is produced only when the image patch contains a
// nonzero value, the two patches have the same shape, and neither patch has a
// side of length 1 or less. Once Next has returned false the sequence stays
// exhausted; use Collect to keep the pairs for more than one pass.
//
//	patches, err := descriptor.ExtractPatches(img, mask, points, descriptor.DefaultScales)
//	if err != nil {
//	    return err
//	}
//	for patches.Next() {
//	    pair := patches.Pair()
//	    // ...
//	}
type Patches struct {
	gray   imaging.Gray
	mask   imaging.Mask
	points []detection.Point
	scales []int
	unit   float64

	scale int // index into scales
	point int // index into points
	cur   PatchPair
	done  bool
}

// ExtractPatches prepares the patch sequence for the given interest points.
//
// The image is reduced to one channel by averaging its channels and the scale
// unit is derived from the mask. Windows are [centre-hw, centre+hw) on both
// axes with hw = int(scale × unit), clamped to the grid; a window that loses
// rows or columns at the border yields a smaller patch.
//
// Parameters:
//   - img: Source image, the same size as mask.
//   - mask: Segmentation mask with both foreground and background cells.
//   - points: Interest points to centre patches on.
//   - scales: Positive half-widths in scale units, visited in order.
//
// Returns:
//   - *Patches: A one-shot sequence of valid pairs.
//   - error: ErrNoScales or ErrNoPoints when either list is empty,
//     ErrInvalidScale when a scale is zero or negative, a size mismatch, or
//     detection.ErrNoForeground / detection.ErrNoBackground from the mask.
func ExtractPatches(img imaging.Image, mask imaging.Mask, points []detection.Point, scales []int) (*Patches, error) {
	if len(scales) == 0 {
		return nil, ErrNoScales
	}
	for _, s := range scales {
		if s <= 0 {
			return nil, fmt.Errorf("scale %d: %w", s, ErrInvalidScale)
		}
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	if err := imaging.CheckSameSize(img, mask); err != nil {
		return nil, err
	}
	unit, err := detection.ScaleUnit(mask)
	if err != nil {
		return nil, fmt.Errorf("patch extraction: %w", err)
	}

	return &Patches{
		gray:   img.Mean(),
		mask:   mask,
		points: points,
		scales: scales,
		unit:   unit,
	}, nil
}

// Unit returns the scale unit the patches are sized with.
func (p *Patches) Unit() float64 { return p.unit }

// Next advances to the next valid pair and reports whether there is one.
func (p *Patches) Next() bool {
	if p.done {
		return false
	}
	for p.scale < len(p.scales) {
		scale := p.scales[p.scale]
		pt := p.points[p.point]

		p.point++
		if p.point == len(p.points) {
			p.point = 0
			p.scale++
		}

		half := int(float64(scale) * p.unit)
		window := PatchWindow(pt, half).Intersect(p.gray.Bounds())
		patch := p.gray.Sub(window)
		maskPatch := p.mask.Sub(window)
		if !validPair(patch, maskPatch) {
			continue
		}

		p.cur = PatchPair{Point: pt, Scale: scale, Window: window, Image: patch, Mask: maskPatch}
		return true
	}
	p.done = true
	p.cur = PatchPair{}
	return false
}

// Pair returns the pair produced by the last successful call to Next.
func (p *Patches) Pair() PatchPair { return p.cur }

// Collect drains the remaining pairs into a slice.
func (p *Patches) Collect() []PatchPair {
	var out []PatchPair
	for p.Next() {
		out = append(out, p.cur)
	}
	return out
}

// PatchWindow returns the unclamped square window [centre-half, centre+half)
// around pt, with X as column and Y as row.
func PatchWindow(pt detection.Point, half int) image.Rectangle {
	return image.Rect(pt.Col-half, pt.Row-half, pt.Col+half, pt.Row+half)
}

func validPair(patch imaging.Gray, maskPatch imaging.Mask) bool {
	if !patch.AnyNonZero() {
		return false
	}
	if patch.Height != maskPatch.Height || patch.Width != maskPatch.Width {
		return false
	}
	return min(patch.Height, patch.Width) > 1 && min(maskPatch.Height, maskPatch.Width) > 1
}
