package detection

import (
	"math"

	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// DefaultMinDist is the default minimum spacing, in cells, between two
// interest points.
const DefaultMinDist = 40.0

// Point is an interest point location in (row, col) grid coordinates.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(float64(p.Row-q.Row), float64(p.Col-q.Col))
}

// BoundaryIndicator marks the cells where the mask changes locally.
//
// The result has one row and one column fewer than the mask. Cell (i, j) is
// set when the mask differs between (i, j) and (i+1, j) or between (i, j)
// and (i, j+1). A mask with fewer than two rows or columns yields an empty
// grid.
func BoundaryIndicator(mask imaging.Mask) [][]bool {
	height := mask.Height - 1
	width := mask.Width - 1
	if height <= 0 || width <= 0 {
		return nil
	}

	out := make([][]bool, height)
	for i := 0; i < height; i++ {
		out[i] = make([]bool, width)
		for j := 0; j < width; j++ {
			v := mask.At(i, j)
			out[i][j] = mask.At(i+1, j) != v || mask.At(i, j+1) != v
		}
	}
	return out
}

// DetectInterestPoints returns a spatially spread set of boundary points.
//
// The boundary indicator is scanned in row-major order and a boundary cell is
// accepted when no point has been accepted yet or its distance to every
// accepted point is strictly greater than minDist. Points are returned in
// acceptance order. The result is deterministic for a given mask and minDist,
// and empty when the mask has no boundary.
//
// # Algorithm
//
// Accepted points are bucketed into square cells of side max(minDist, 1), so
// any accepted point within minDist of a candidate lies in the candidate's
// bucket or one of its eight neighbours. The result is identical to checking
// each candidate against every accepted point.
//
// A NaN minDist compares false against every distance, so only the first
// boundary cell is accepted.
//
// Reference: Belongie, Malik, Puzicha, "Shape Matching and Object Recognition
// Using Shape Contexts", appendix B.
func DetectInterestPoints(mask imaging.Mask, minDist float64) []Point {
	indicator := BoundaryIndicator(mask)

	points := make([]Point, 0)
	idx := newPointIndex(minDist)
	for i, row := range indicator {
		for j, set := range row {
			if !set {
				continue
			}
			p := Point{Row: i, Col: j}
			if len(points) == 0 || idx.farFrom(p, minDist) {
				points = append(points, p)
				idx.add(p)
			}
		}
	}
	return points
}

// pointIndex is a uniform grid of buckets over accepted points.
type pointIndex struct {
	side    float64
	buckets map[[2]int][]Point
}

func newPointIndex(minDist float64) *pointIndex {
	side := math.Max(minDist, 1)
	if math.IsNaN(side) {
		side = 1
	}
	return &pointIndex{
		side:    side,
		buckets: make(map[[2]int][]Point),
	}
}

func (ix *pointIndex) key(p Point) [2]int {
	return [2]int{
		int(math.Floor(float64(p.Row) / ix.side)),
		int(math.Floor(float64(p.Col) / ix.side)),
	}
}

func (ix *pointIndex) add(p Point) {
	k := ix.key(p)
	ix.buckets[k] = append(ix.buckets[k], p)
}

// farFrom reports whether every indexed point is farther than minDist from p.
func (ix *pointIndex) farFrom(p Point, minDist float64) bool {
	if math.IsNaN(minDist) {
		return false
	}
	if minDist < 0 {
		return true
	}
	k := ix.key(p)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			for _, q := range ix.buckets[[2]int{k[0] + dr, k[1] + dc}] {
				if p.Dist(q) <= minDist {
					return false
				}
			}
		}
	}
	return true
}
