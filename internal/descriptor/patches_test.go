package descriptor

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// gradientImage returns an image whose channels vary with position and are
// never all zero.
func gradientImage(height, width int) imaging.Image {
	im := imaging.NewImage(height, width)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			im.Set(row, col, 0, float64((row*7+col*3)%256))
			im.Set(row, col, 1, float64((row+col)%256))
			im.Set(row, col, 2, 1)
		}
	}
	return im
}

// squareMask returns a size x size mask with foreground r.
func squareMask(size int, r image.Rectangle) imaging.Mask {
	m := imaging.NewMask(size, size)
	m.Fill(r, true)
	return m
}

// nearlyFullMask is foreground everywhere except the top-left cell, so its
// extent is the full side.
func nearlyFullMask(size int) imaging.Mask {
	m := imaging.NewMask(size, size)
	m.Fill(m.Bounds(), true)
	m.Set(0, 0, false)
	return m
}

func TestExtractPatches_CentredPoint(t *testing.T) {
	m := nearlyFullMask(40) // extent 40, unit 2
	points := []detection.Point{{Row: 20, Col: 20}}

	patches, err := ExtractPatches(gradientImage(40, 40), m, points, []int{1})
	if err != nil {
		t.Fatalf("ExtractPatches failed: %v", err)
	}
	if patches.Unit() != 2 {
		t.Fatalf("unit: got %v, want 2", patches.Unit())
	}

	pairs := patches.Collect()
	if len(pairs) != 1 {
		t.Fatalf("pairs: got %d, want 1", len(pairs))
	}
	p := pairs[0]
	if p.Image.Height != 4 || p.Image.Width != 4 || p.Mask.Height != 4 || p.Mask.Width != 4 {
		t.Errorf("shape: image %dx%d, mask %dx%d, want 4x4", p.Image.Height, p.Image.Width, p.Mask.Height, p.Mask.Width)
	}
	if want := image.Rect(18, 18, 22, 22); p.Window != want {
		t.Errorf("window: got %v, want %v", p.Window, want)
	}
}

func TestExtractPatches_Errors(t *testing.T) {
	img := gradientImage(20, 20)
	m := squareMask(20, image.Rect(5, 5, 15, 15))
	points := []detection.Point{{Row: 4, Col: 10}}

	tests := []struct {
		name    string
		img     imaging.Image
		mask    imaging.Mask
		points  []detection.Point
		scales  []int
		wantErr bool
		want    error
	}{
		{"no scales", img, m, points, nil, true, ErrNoScales},
		{"no points", img, m, nil, DefaultScales, true, ErrNoPoints},
		{"negative scale", img, m, points, []int{-1}, true, ErrInvalidScale},
		{"zero scale", img, m, points, []int{1, 0}, true, ErrInvalidScale},
		{"no foreground", img, imaging.NewMask(20, 20), points, DefaultScales, true, detection.ErrNoForeground},
		{"single background cell", img, nearlyFullMask(20), points, DefaultScales, false, nil},
		{"size mismatch", gradientImage(10, 20), m, points, DefaultScales, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractPatches(tt.img, tt.mask, tt.points, tt.scales)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, want error %v", err, tt.wantErr)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	full := imaging.NewMask(20, 20)
	full.Fill(full.Bounds(), true)
	if _, err := ExtractPatches(img, full, points, DefaultScales); !errors.Is(err, detection.ErrNoBackground) {
		t.Errorf("full mask: got %v, want ErrNoBackground", err)
	}
}

func TestExtractPatches_Order(t *testing.T) {
	m := squareMask(100, image.Rect(20, 20, 80, 80)) // unit 3
	points := []detection.Point{{Row: 19, Col: 50}, {Row: 50, Col: 19}, {Row: 79, Col: 50}}

	patches, err := ExtractPatches(gradientImage(100, 100), m, points, []int{1, 4})
	if err != nil {
		t.Fatalf("ExtractPatches failed: %v", err)
	}

	var got []PatchPair
	for patches.Next() {
		got = append(got, patches.Pair())
	}

	if len(got) != 6 {
		t.Fatalf("pairs: got %d, want 6", len(got))
	}
	for i, p := range got {
		wantScale := []int{1, 1, 1, 4, 4, 4}[i]
		if p.Scale != wantScale || p.Point != points[i%3] {
			t.Errorf("pair %d: scale %d point %v, want scale %d point %v", i, p.Scale, p.Point, wantScale, points[i%3])
		}
	}
	if got[3].Image.Width != 24 {
		t.Errorf("scale 4 patch width: got %d, want 24", got[3].Image.Width)
	}

	// One-shot: an exhausted sequence stays exhausted.
	if patches.Next() {
		t.Error("Next after exhaustion should return false")
	}
	if rest := patches.Collect(); len(rest) != 0 {
		t.Errorf("Collect after exhaustion: got %d pairs", len(rest))
	}
}

func TestExtractPatches_Filtering(t *testing.T) {
	m := squareMask(100, image.Rect(20, 20, 80, 80)) // unit 3

	// Zero image on the left half: patches there carry no signal.
	img := gradientImage(100, 100)
	for row := 0; row < 100; row++ {
		for col := 0; col < 40; col++ {
			for ch := 0; ch < imaging.Channels; ch++ {
				img.Set(row, col, ch, 0)
			}
		}
	}

	tests := []struct {
		name      string
		point     detection.Point
		scale     int
		wantPairs int
		wantW     int
		wantH     int
	}{
		{"zero patch", detection.Point{Row: 50, Col: 19}, 1, 0, 0, 0},
		{"interior", detection.Point{Row: 50, Col: 79}, 1, 1, 6, 6},
		{"clamped corner", detection.Point{Row: 98, Col: 98}, 4, 1, 14, 14},
		{"single column", detection.Point{Row: 50, Col: 102}, 1, 0, 0, 0},
		{"outside", detection.Point{Row: 300, Col: 300}, 1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patches, err := ExtractPatches(img, m, []detection.Point{tt.point}, []int{tt.scale})
			if err != nil {
				t.Fatalf("ExtractPatches failed: %v", err)
			}
			pairs := patches.Collect()
			if len(pairs) != tt.wantPairs {
				t.Fatalf("pairs: got %d, want %d", len(pairs), tt.wantPairs)
			}
			if tt.wantPairs == 1 && (pairs[0].Image.Width != tt.wantW || pairs[0].Image.Height != tt.wantH) {
				t.Errorf("size: got %dx%d, want %dx%d", pairs[0].Image.Width, pairs[0].Image.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestExtractPatches_ValidityProperty(t *testing.T) {
	m := squareMask(64, image.Rect(10, 12, 50, 60))
	points := detection.DetectInterestPoints(m, 5)

	patches, err := ExtractPatches(gradientImage(64, 64), m, points, DefaultScales)
	if err != nil {
		t.Fatalf("ExtractPatches failed: %v", err)
	}
	n := 0
	for patches.Next() {
		p := patches.Pair()
		if !p.Image.AnyNonZero() {
			t.Errorf("pair %d: image patch is all zero", n)
		}
		if p.Image.Height != p.Mask.Height || p.Image.Width != p.Mask.Width {
			t.Errorf("pair %d: image %dx%d, mask %dx%d", n, p.Image.Height, p.Image.Width, p.Mask.Height, p.Mask.Width)
		}
		if min(p.Image.Height, p.Image.Width) <= 1 {
			t.Errorf("pair %d: degenerate %dx%d", n, p.Image.Height, p.Image.Width)
		}
		n++
	}
	if n == 0 {
		t.Error("expected at least one pair")
	}
}
