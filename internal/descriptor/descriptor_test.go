package descriptor

import (
	"context"
	"errors"
	"image"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

func TestComputer_Len(t *testing.T) {
	if got := NewComputer().Len(); got != 328 {
		t.Errorf("Len: got %d, want 328", got)
	}
}

func squareFixture() (imaging.Image, imaging.Mask, []detection.Point) {
	m := squareMask(100, image.Rect(20, 20, 80, 80))
	return gradientImage(100, 100), m, detection.DetectInterestPoints(m, detection.DefaultMinDist)
}

func TestDescribe(t *testing.T) {
	img, m, points := squareFixture()
	c := NewComputer()

	descs, err := Describe(img, m, points)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	patches, err := ExtractPatches(img, m, points, DefaultScales)
	if err != nil {
		t.Fatalf("ExtractPatches failed: %v", err)
	}
	pairs := patches.Collect()
	if len(descs) != len(pairs) || len(descs) == 0 {
		t.Fatalf("descriptors: got %d, want one per pair (%d)", len(descs), len(pairs))
	}

	hogLen := c.Len() - OccupancyLen
	for i, d := range descs {
		if len(d) != c.Len() {
			t.Fatalf("descriptor %d: length %d, want %d", i, len(d), c.Len())
		}
		for _, v := range d {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("descriptor %d: non-finite value %v", i, v)
			}
		}

		if norm := floats.Norm(d[:hogLen], 2); norm != 0 && math.Abs(norm-1) > 1e-9 {
			t.Errorf("descriptor %d: HOG norm %v, want 1", i, norm)
		}

		// The occupancy tail is taken on the mask patch.
		occ := Occupancy(pairs[i].Mask)
		if want := Hellinger(occ[:]); !reflect.DeepEqual([]float64(d[hogLen:]), want) {
			t.Errorf("descriptor %d: occupancy %v, want %v", i, d[hogLen:], want)
		}
	}
}

func TestDescribePatch_Degenerate(t *testing.T) {
	c := NewComputer()

	// A flat image patch over an all-background mask patch.
	flat := imaging.NewGray(8, 8)
	for i := range flat.Pix {
		flat.Pix[i] = 5
	}
	d := c.DescribePatch(PatchPair{Image: flat, Mask: imaging.NewMask(8, 8)})

	if len(d) != c.Len() {
		t.Fatalf("length: got %d, want %d", len(d), c.Len())
	}
	for i, v := range d {
		if v != 0 {
			t.Fatalf("value %d: got %v, want 0", i, v)
		}
	}
}

func TestDescribe_Errors(t *testing.T) {
	img, m, points := squareFixture()

	if _, err := Describe(img, m, nil); !errors.Is(err, ErrNoPoints) {
		t.Errorf("no points: got %v, want ErrNoPoints", err)
	}

	c := NewComputer()
	c.Scales = nil
	if _, err := c.Describe(img, m, points); !errors.Is(err, ErrNoScales) {
		t.Errorf("no scales: got %v, want ErrNoScales", err)
	}
}

func TestDescribeParallel(t *testing.T) {
	img, m, points := squareFixture()
	c := NewComputer()

	want, err := c.Describe(img, m, points)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	for _, workers := range []int{0, 1, 3, 16} {
		got, err := c.DescribeParallel(context.Background(), img, m, points, workers)
		if err != nil {
			t.Fatalf("workers %d: %v", workers, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("workers %d: parallel result differs from Describe", workers)
		}
	}
}

func TestDescribeParallel_Cancelled(t *testing.T) {
	img, m, points := squareFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewComputer().DescribeParallel(ctx, img, m, points, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
