package descriptor

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// OccupancyLen is the length of the occupancy signature.
const OccupancyLen = 4

// Occupancy returns the foreground fraction of each quadrant of m, in the order
// top-left, top-right, bottom-left, bottom-right.
//
// The split is at height/2 and width/2 (integer division), so for odd sides
// the bottom and right quadrants are one cell larger. Each fraction is the
// foreground count over the quadrant's own area; an empty quadrant counts as 0.
//
// Reference: Arandjelović, Zisserman, "Smooth Object Retrieval using a Bag of
// Boundaries".
func Occupancy(m imaging.Mask) [OccupancyLen]float64 {
	midY, midX := m.Height/2, m.Width/2
	quadrants := [OccupancyLen]image.Rectangle{
		image.Rect(0, 0, midX, midY),
		image.Rect(midX, 0, m.Width, midY),
		image.Rect(0, midY, midX, m.Height),
		image.Rect(midX, midY, m.Width, m.Height),
	}

	var out [OccupancyLen]float64
	for i, q := range quadrants {
		area := q.Dx() * q.Dy()
		if area == 0 {
			continue
		}
		out[i] = float64(m.Count(q)) / float64(area)
	}
	return out
}

// Hellinger L1-normalises v and takes the element-wise square root, so that
// Euclidean distance between results compares the distributions with the
// Hellinger kernel. A vector summing to zero is returned as all zeros.
func Hellinger(v []float64) []float64 {
	out := make([]float64, len(v))
	sum := floats.Norm(v, 1)
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = math.Sqrt(x / sum)
	}
	return out
}
