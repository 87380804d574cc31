package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directory names inside a dataset root.
const (
	ImagesDir = "images"
	MasksDir  = "masks"
)

type datasetEntry struct {
	name      string
	imagePath string
	maskPath  string
}

// Dataset is a directory-backed, stable-ordered list of (image, mask) pairs.
//
// The root must contain an "images" and a "masks" directory. An image file
// "cup.jpg" pairs with the mask whose base name is "cup" regardless of its
// extension. Images without a mask are skipped. Entries are ordered by name,
// so indices are stable for a given directory content.
type Dataset struct {
	root    string
	cache   *ImageCache
	entries []datasetEntry
}

// OpenDataset scans root and returns the paired entries.
//
// Parameters:
//   - root: Directory holding the images and masks directories.
//   - cache: Image cache used by Load. May be nil, in which case a private
//     cache is created.
//
// Returns:
//   - *Dataset: Entries sorted by name.
//   - error: Non-nil if either directory cannot be read.
func OpenDataset(root string, cache *ImageCache) (*Dataset, error) {
	if cache == nil {
		cache = NewImageCache()
	}

	masks, err := listByStem(filepath.Join(root, MasksDir))
	if err != nil {
		return nil, err
	}
	images, err := listByStem(filepath.Join(root, ImagesDir))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(images))
	for name := range images {
		if _, ok := masks[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	entries := make([]datasetEntry, len(names))
	for i, name := range names {
		entries[i] = datasetEntry{name: name, imagePath: images[name], maskPath: masks[name]}
	}

	return &Dataset{root: root, cache: cache, entries: entries}, nil
}

// listByStem maps file base names (without extension) to paths. When two
// files share a stem, the lexically first file name wins.
func listByStem(dir string) (map[string]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory: %w", err)
	}

	out := make(map[string]string, len(files))
	// os.ReadDir returns entries sorted by file name.
	for _, f := range files {
		if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
			continue
		}
		stem := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		if _, seen := out[stem]; seen {
			continue
		}
		out[stem] = filepath.Join(dir, f.Name())
	}
	return out, nil
}

// Root returns the directory the dataset was opened from.
func (d *Dataset) Root() string { return d.root }

// Len returns the number of paired entries.
func (d *Dataset) Len() int { return len(d.entries) }

// Name returns the stem shared by the image and mask of entry i.
func (d *Dataset) Name(i int) string { return d.entries[i].name }

// Load decodes entry i. The decoded files are evicted from the cache
// afterwards; datasets are read sequentially and rarely revisited.
func (d *Dataset) Load(i int) (Image, Mask, error) {
	if i < 0 || i >= len(d.entries) {
		return Image{}, Mask{}, fmt.Errorf("dataset index %d out of range [0,%d)", i, len(d.entries))
	}
	e := d.entries[i]
	defer d.cache.Evict(e.imagePath)
	defer d.cache.Evict(e.maskPath)
	return d.cache.LoadPair(e.imagePath, e.maskPath)
}
