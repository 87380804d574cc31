//go:build !(gocv && cgo)

package retrieval

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// clusterCentres runs k-means++ seeding followed by Lloyd iterations until no
// assignment changes or iterations is reached. A cluster that loses all its
// points keeps its previous centre.
func clusterCentres(ctx context.Context, points [][]float64, k, iterations int, seed int64) ([][]float64, error) {
	rng := rand.New(rand.NewSource(seed))
	centres := seedCentres(points, k, rng)
	dim := len(points[0])

	assign := make([]int, len(points))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false
		vocab := Vocabulary{Words: centres}
		for i, p := range points {
			if w, _ := vocab.Nearest(p); w != assign[i] {
				assign[i] = w
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i, p := range points {
			c := assign[i]
			if sums[c] == nil {
				sums[c] = make([]float64, dim)
			}
			floats.Add(sums[c], p)
			counts[c]++
		}
		for c := range centres {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centres[c] = sums[c]
		}
	}

	return centres, nil
}

// seedCentres picks k initial centres with the k-means++ rule: each new centre
// is drawn with probability proportional to its squared distance to the
// closest centre chosen so far.
func seedCentres(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centres := make([][]float64, 0, k)
	centres = append(centres, append([]float64(nil), points[rng.Intn(len(points))]...))

	d2 := make([]float64, len(points))
	for len(centres) < k {
		last := centres[len(centres)-1]
		var total float64
		for i, p := range points {
			d := floats.Distance(p, last, 2)
			if len(centres) == 1 || d*d < d2[i] {
				d2[i] = d * d
			}
			total += d2[i]
		}

		next := 0
		if total == 0 {
			// Every point coincides with a centre; fall back to uniform choice.
			next = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			for i, w := range d2 {
				if w > 0 {
					next = i
				}
				if target < w {
					break
				}
				target -= w
			}
		}
		centres = append(centres, append([]float64(nil), points[next]...))
	}
	return centres
}

