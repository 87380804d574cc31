package imaging

import (
	"fmt"
	"image"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
)

// ImageCache provides thread-safe caching of decoded images to avoid redundant
// disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once
// a file is loaded, subsequent loads of the same path return the cached copy
// without disk I/O. Conversions to Image and Mask grids are recomputed on each
// call because callers may retain and index them independently.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear(). Building a database over a large dataset should evict each entry
// once it has been encoded.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.LoadImage("/data/images/cup.jpg")
//	if err != nil {
//	    return err
//	}
//	mask, err := cache.LoadMask("/data/masks/cup.png")
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a decoded image from the cache or decodes it from disk.
//
// Parameters:
//   - path: Path to the image file. Decoding goes through bild's imgio, which
//     registers PNG and JPEG.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The image is cached under the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// LoadImage loads path and converts it to a three-channel Image grid.
func (c *ImageCache) LoadImage(path string) (Image, error) {
	img, err := c.Load(path)
	if err != nil {
		return Image{}, err
	}
	return FromImage(img), nil
}

// LoadMask loads path and binarises it into a Mask.
func (c *ImageCache) LoadMask(path string) (Mask, error) {
	img, err := c.Load(path)
	if err != nil {
		return Mask{}, err
	}
	return MaskFromImage(img), nil
}

// LoadPair loads an image and its mask and checks that their sizes agree.
//
// Parameters:
//   - imagePath: Path to the image file.
//   - maskPath: Path to the mask file; light pixels are foreground.
//
// Returns:
//   - Image: The three-channel image grid.
//   - Mask: The binarised mask.
//   - error: Non-nil if either file cannot be loaded or the sizes differ.
func (c *ImageCache) LoadPair(imagePath, maskPath string) (Image, Mask, error) {
	im, err := c.LoadImage(imagePath)
	if err != nil {
		return Image{}, Mask{}, err
	}
	m, err := c.LoadMask(maskPath)
	if err != nil {
		return Image{}, Mask{}, err
	}
	if err := CheckSameSize(im, m); err != nil {
		return Image{}, Mask{}, fmt.Errorf("%s: %w", imagePath, err)
	}
	return im, m, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// Parameters:
//   - path: The exact path string used when the image was loaded.
//
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}
