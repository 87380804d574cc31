package descriptor

import (
	"context"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// PatchSize is the side of the canonical grid patches are resampled to
// before the gradient histogram is computed.
const PatchSize = 32

// Descriptor is a local shape descriptor: a unit-length gradient histogram
// followed by the square-rooted, L1-normalised occupancy signature.
type Descriptor []float64

// Computer turns image/mask pairs into descriptors.
//
// The zero value is not usable; start from NewComputer and adjust fields
// before the first call. A Computer is safe for concurrent use as long as its
// fields are not modified.
type Computer struct {
	// Scales are the patch half-widths in scale units.
	Scales []int

	// PatchSize is the side of the resampled patch.
	PatchSize int

	// HOG configures the gradient histogram.
	HOG HOGParams
}

// NewComputer returns a Computer with the default scales, patch size and HOG
// layout.
func NewComputer() *Computer {
	return &Computer{
		Scales:    append([]int(nil), DefaultScales...),
		PatchSize: PatchSize,
		HOG:       DefaultHOG,
	}
}

// Len returns the length of every descriptor the Computer produces.
func (c *Computer) Len() int {
	return c.HOG.Len(c.PatchSize, c.PatchSize) + OccupancyLen
}

// Describe computes one descriptor per valid patch pair around points.
//
// Patches rejected by the extractor contribute nothing, so the result may be
// empty. Errors are those of ExtractPatches.
func Describe(img imaging.Image, mask imaging.Mask, points []detection.Point) ([]Descriptor, error) {
	return NewComputer().Describe(img, mask, points)
}

// Describe computes one descriptor per valid patch pair, in extraction order.
func (c *Computer) Describe(img imaging.Image, mask imaging.Mask, points []detection.Point) ([]Descriptor, error) {
	patches, err := ExtractPatches(img, mask, points, c.Scales)
	if err != nil {
		return nil, err
	}

	out := make([]Descriptor, 0)
	for patches.Next() {
		out = append(out, c.DescribePatch(patches.Pair()))
	}
	return out, nil
}

// DescribePatch computes the descriptor of a single patch pair.
//
// The gradient histogram is taken on the resampled image patch and scaled to
// unit Euclidean norm; a histogram of all zeros (a flat patch) is left as is.
// The occupancy signature is taken on the mask patch at its original size.
func (c *Computer) DescribePatch(pair PatchPair) Descriptor {
	canonical := imaging.Resample(pair.Image, c.PatchSize, c.PatchSize)

	hog := HOG(canonical, c.HOG)
	if norm := floats.Norm(hog, 2); norm > 0 {
		floats.Scale(1/norm, hog)
	}

	occ := Occupancy(pair.Mask)

	out := make(Descriptor, 0, len(hog)+OccupancyLen)
	out = append(out, hog...)
	out = append(out, Hellinger(occ[:])...)
	return out
}

// DescribeParallel computes the same descriptors as Describe using a pool of
// workers. Results keep extraction order. A workers value below one uses
// GOMAXPROCS. Cancelling ctx stops the remaining work and returns ctx.Err().
func (c *Computer) DescribeParallel(ctx context.Context, img imaging.Image, mask imaging.Mask, points []detection.Point, workers int) ([]Descriptor, error) {
	patches, err := ExtractPatches(img, mask, points, c.Scales)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	type task struct {
		index int
		pair  PatchPair
	}

	var (
		mu  sync.Mutex
		out []Descriptor
		wg  sync.WaitGroup
	)
	tasks := make(chan task, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				d := c.DescribePatch(t.pair)
				mu.Lock()
				out[t.index] = d
				mu.Unlock()
			}
		}()
	}

	n := 0
	for patches.Next() {
		if ctx.Err() != nil {
			break
		}
		mu.Lock()
		out = append(out, nil)
		mu.Unlock()
		tasks <- task{index: n, pair: patches.Pair()}
		n++
	}
	close(tasks)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = make([]Descriptor, 0)
	}
	return out, nil
}
