package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTestPNG encodes img into dir/name and returns the path.
func writeTestPNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createTestImage writes a uniformly coloured image and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writeTestPNG(t, t.TempDir(), "image.png", img)
}

// createTestMask writes a black mask with a white rectangle r and returns its path.
func createTestMask(t *testing.T, width, height int, r image.Rectangle) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return writeTestPNG(t, t.TempDir(), "mask.png", img)
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.Len() != 0 {
		t.Errorf("new cache should be empty, has %d entries", cache.Len())
	}
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("size: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}

	// Second load should come from cache
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load should return the cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("cache length: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(invalid, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(invalid); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads should not be cached, have %d entries", cache.Len())
	}
}

func TestImageCache_LoadImage(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 4, 3, color.RGBA{200, 100, 50, 255})

	img, err := cache.LoadImage(imgPath)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Height != 3 || img.Width != 4 {
		t.Fatalf("size: got %dx%d, want 3x4", img.Height, img.Width)
	}
	want := [Channels]float64{200, 100, 50}
	for ch, v := range want {
		if got := img.At(2, 3, ch); got != v {
			t.Errorf("channel %d: got %v, want %v", ch, got, v)
		}
	}
}

func TestImageCache_LoadPair(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 20, 10, color.RGBA{10, 20, 30, 255})
	maskPath := createTestMask(t, 20, 10, image.Rect(5, 2, 15, 8))

	img, mask, err := cache.LoadPair(imgPath, maskPath)
	if err != nil {
		t.Fatalf("LoadPair failed: %v", err)
	}
	if img.Height != mask.Height || img.Width != mask.Width {
		t.Errorf("image %dx%d and mask %dx%d differ", img.Height, img.Width, mask.Height, mask.Width)
	}
	if got := mask.Count(mask.Bounds()); got != 60 {
		t.Errorf("foreground cells: got %d, want 60", got)
	}

	smallMask := createTestMask(t, 10, 10, image.Rect(0, 0, 5, 5))
	if _, _, err := cache.LoadPair(imgPath, smallMask); err == nil {
		t.Error("LoadPair should fail when sizes differ")
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 10, 10, color.White)
	b := createTestImage(t, 10, 10, color.Black)

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("after Evict: got %d entries, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear: got %d entries, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.LoadMask(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent load failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Errorf("cache length: got %d, want 1", cache.Len())
	}
}
