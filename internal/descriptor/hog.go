package descriptor

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// blockEpsilon keeps block normalisation finite for flat blocks.
const blockEpsilon = 1e-5

// HOGParams configures the histogram of oriented gradients.
type HOGParams struct {
	// Orientations is the number of unsigned orientation bins over 0-180°.
	Orientations int

	// CellSize is the side, in pixels, of a square cell.
	CellSize int

	// BlockSize is the side, in cells, of a square normalisation block.
	BlockSize int
}

// DefaultHOG matches the classic Dalal-Triggs layout used on 32×32 patches:
// 9 bins, 8×8-pixel cells and 3×3-cell blocks, giving 2×2 blocks of 81 values.
var DefaultHOG = HOGParams{Orientations: 9, CellSize: 8, BlockSize: 3}

// Len returns the length of the HOG vector for a height×width grid.
func (p HOGParams) Len(height, width int) int {
	bx, by := p.blocks(height, width)
	return bx * by * p.BlockSize * p.BlockSize * p.Orientations
}

func (p HOGParams) blocks(height, width int) (bx, by int) {
	cx, cy := width/p.CellSize, height/p.CellSize
	bx, by = cx-p.BlockSize+1, cy-p.BlockSize+1
	if bx < 0 {
		bx = 0
	}
	if by < 0 {
		by = 0
	}
	return bx, by
}

// HOG computes the histogram of oriented gradients of g.
//
// # Algorithm
//
//  1. Gradients are forward differences along each axis; the last column
//     (for x) and last row (for y) have zero gradient.
//  2. Each pixel votes its gradient magnitude into the unsigned orientation
//     bin of atan2(gy, gx) folded onto [0°, 180°).
//  3. A cell histogram is the mean vote over the cell's pixels. Pixels beyond
//     the last whole cell are ignored.
//  4. Overlapping blocks of BlockSize×BlockSize cells, stepped one cell at a
//     time, are each divided by sqrt(‖block‖² + 1e-5) and concatenated in
//     block row, block column, cell row, cell column, bin order.
func HOG(g imaging.Gray, p HOGParams) []float64 {
	cellsX, cellsY := g.Width/p.CellSize, g.Height/p.CellSize
	blocksX, blocksY := p.blocks(g.Height, g.Width)
	if blocksX == 0 || blocksY == 0 {
		return nil
	}

	binWidth := 180.0 / float64(p.Orientations)
	cellArea := float64(p.CellSize * p.CellSize)

	// hist[(cy*cellsX+cx)*Orientations + bin]
	hist := make([]float64, cellsX*cellsY*p.Orientations)
	for y := 0; y < cellsY*p.CellSize; y++ {
		for x := 0; x < cellsX*p.CellSize; x++ {
			var gx, gy float64
			if x+1 < g.Width {
				gx = g.At(y, x+1) - g.At(y, x)
			}
			if y+1 < g.Height {
				gy = g.At(y+1, x) - g.At(y, x)
			}
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}

			angle := math.Atan2(gy, gx) * 180 / math.Pi
			angle = math.Mod(angle+180, 180)
			bin := int(angle / binWidth)
			if bin >= p.Orientations {
				bin = p.Orientations - 1
			}

			cell := (y/p.CellSize)*cellsX + x/p.CellSize
			hist[cell*p.Orientations+bin] += mag / cellArea
		}
	}

	blockLen := p.BlockSize * p.BlockSize * p.Orientations
	out := make([]float64, 0, blocksX*blocksY*blockLen)
	block := make([]float64, 0, blockLen)
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			block = block[:0]
			for cy := by; cy < by+p.BlockSize; cy++ {
				for cx := bx; cx < bx+p.BlockSize; cx++ {
					cell := cy*cellsX + cx
					block = append(block, hist[cell*p.Orientations:(cell+1)*p.Orientations]...)
				}
			}
			norm := math.Sqrt(floats.Dot(block, block) + blockEpsilon)
			floats.Scale(1/norm, block)
			out = append(out, block...)
		}
	}
	return out
}
