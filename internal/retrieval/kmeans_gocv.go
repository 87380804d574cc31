//go:build gocv && cgo

package retrieval

import (
	"context"

	"gocv.io/x/gocv"
)

// kmeansEpsilon stops OpenCV's iterations once no centre moves further.
const kmeansEpsilon = 1e-6

// clusterCentres clusters points with OpenCV's k-means. Centres are seeded
// with k-means++ from the global OpenCV RNG, which is reset to seed first so
// that repeated builds agree. Centres are computed in float32.
func clusterCentres(ctx context.Context, points [][]float64, k, iterations int, seed int64) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := len(points[0])
	data := gocv.NewMatWithSize(len(points), dim, gocv.MatTypeCV32F)
	defer data.Close()
	for i, p := range points {
		for j, v := range p {
			data.SetFloatAt(i, j, float32(v))
		}
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	gocv.SetRNGSeed(int(seed))
	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, iterations, kmeansEpsilon)
	gocv.KMeans(data, k, &labels, criteria, 1, gocv.KMeansPPCenters, &centers)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	centres := make([][]float64, centers.Rows())
	for i := range centres {
		centres[i] = make([]float64, dim)
		for j := range centres[i] {
			centres[i][j] = float64(centers.GetFloatAt(i, j))
		}
	}
	return centres, nil
}
