package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

// createTestDataset lays out images/ and masks/ under a temp root. Each name
// gets a 12x12 image and a mask with a centred square.
func createTestDataset(t *testing.T, imageNames, maskNames []string) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{ImagesDir, MasksDir} {
		if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, 12, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 20), uint8(y * 20), 0, 255})
		}
	}
	mask := image.NewGray(image.Rect(0, 0, 12, 12))
	for y := 3; y < 9; y++ {
		for x := 3; x < 9; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	for _, name := range imageNames {
		writeTestPNG(t, filepath.Join(root, ImagesDir), name, img)
	}
	for _, name := range maskNames {
		writeTestPNG(t, filepath.Join(root, MasksDir), name, mask)
	}
	return root
}

func TestOpenDataset(t *testing.T) {
	root := createTestDataset(t,
		[]string{"cup.png", "bowl.jpg", "orphan.png"},
		[]string{"bowl.png", "cup.png", "extra.png"},
	)
	// Hidden files are ignored.
	if err := os.WriteFile(filepath.Join(root, MasksDir, ".DS_Store"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := OpenDataset(root, nil)
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}
	if ds.Root() != root {
		t.Errorf("Root: got %s, want %s", ds.Root(), root)
	}

	want := []string{"bowl", "cup"}
	if ds.Len() != len(want) {
		t.Fatalf("Len: got %d, want %d", ds.Len(), len(want))
	}
	for i, name := range want {
		if ds.Name(i) != name {
			t.Errorf("Name(%d): got %s, want %s", i, ds.Name(i), name)
		}
	}
}

func TestOpenDataset_MissingDirectory(t *testing.T) {
	if _, err := OpenDataset(t.TempDir(), nil); err == nil {
		t.Error("OpenDataset should fail without images/ and masks/")
	}
}

func TestDataset_Load(t *testing.T) {
	root := createTestDataset(t, []string{"cup.png"}, []string{"cup.png"})
	cache := NewImageCache()

	ds, err := OpenDataset(root, cache)
	if err != nil {
		t.Fatalf("OpenDataset failed: %v", err)
	}

	img, mask, err := ds.Load(0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Height != 12 || img.Width != 12 {
		t.Errorf("image size: got %dx%d, want 12x12", img.Height, img.Width)
	}
	if got := mask.Count(mask.Bounds()); got != 36 {
		t.Errorf("mask foreground: got %d, want 36", got)
	}
	if cache.Len() != 0 {
		t.Errorf("Load should evict decoded files, cache has %d", cache.Len())
	}

	if _, _, err := ds.Load(1); err == nil {
		t.Error("Load should fail for an out-of-range index")
	}
}
