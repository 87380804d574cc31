package retrieval

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/ironsheep/shape-retrieval/internal/descriptor"
	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
)

// Source is an ordered collection of (image, mask) pairs. Indices must be
// stable across calls so that database indices keep referring to the same
// entries.
type Source interface {
	Len() int
	Name(i int) string
	Load(i int) (imaging.Image, imaging.Mask, error)
}

// PointCache memoises interest point detection by mask content.
//
// Entries are keyed by a SHA-256 digest of the mask dimensions, its cells and
// the minimum distance, so two equal masks share an entry whatever their
// origin. PointCache is safe for concurrent use.
type PointCache struct {
	mu      sync.RWMutex
	entries map[[sha256.Size]byte][]detection.Point
	hits    int
	misses  int
}

// NewPointCache creates an empty cache.
func NewPointCache() *PointCache {
	return &PointCache{entries: make(map[[sha256.Size]byte][]detection.Point)}
}

// Detect returns the interest points of mask, computing them on a miss.
// The returned slice is a copy and may be modified by the caller.
func (c *PointCache) Detect(mask imaging.Mask, minDist float64) []detection.Point {
	key := maskKey(mask, minDist)

	c.mu.RLock()
	points, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		points = detection.DetectInterestPoints(mask, minDist)
		c.mu.Lock()
		c.entries[key] = points
		c.misses++
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	}

	return append([]detection.Point(nil), points...)
}

// Stats returns the number of cache hits and misses so far.
func (c *PointCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of cached masks.
func (c *PointCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func maskKey(mask imaging.Mask, minDist float64) [sha256.Size]byte {
	h := sha256.New()
	var header [16]byte
	binary.BigEndian.PutUint32(header[0:], uint32(mask.Height))
	binary.BigEndian.PutUint32(header[4:], uint32(mask.Width))
	binary.BigEndian.PutUint64(header[8:], math.Float64bits(minDist))
	h.Write(header[:])

	packed := make([]byte, (len(mask.Bits)+7)/8)
	for i, b := range mask.Bits {
		if b {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	h.Write(packed)

	var key [sha256.Size]byte
	copy(key[:], h.Sum(nil))
	return key
}

// Describer runs interest point detection followed by descriptor computation.
type Describer struct {
	// Computer computes the descriptors.
	Computer *descriptor.Computer

	// MinDist is the minimum spacing between interest points.
	MinDist float64

	// Points memoises detection. Nil disables memoisation.
	Points *PointCache
}

// NewDescriber returns a Describer with default settings and a fresh cache.
func NewDescriber() *Describer {
	return &Describer{
		Computer: descriptor.NewComputer(),
		MinDist:  detection.DefaultMinDist,
		Points:   NewPointCache(),
	}
}

// InterestPoints returns the interest points of mask.
func (d *Describer) InterestPoints(mask imaging.Mask) []detection.Point {
	if d.Points != nil {
		return d.Points.Detect(mask, d.MinDist)
	}
	return detection.DetectInterestPoints(mask, d.MinDist)
}

// Describe returns the descriptors of an image. A mask without boundary
// yields no descriptors rather than an error.
func (d *Describer) Describe(img imaging.Image, mask imaging.Mask) ([]descriptor.Descriptor, error) {
	descs, err := d.Computer.Describe(img, mask, d.InterestPoints(mask))
	if errors.Is(err, descriptor.ErrNoPoints) {
		return make([]descriptor.Descriptor, 0), nil
	}
	return descs, err
}

// Encoder turns an image and mask into a visual-word histogram.
type Encoder struct {
	Describer  *Describer
	Vocabulary Vocabulary
}

// NewEncoder returns an Encoder using a default Describer.
func NewEncoder(vocab Vocabulary) *Encoder {
	return &Encoder{Describer: NewDescriber(), Vocabulary: vocab}
}

// Encode describes the image and counts the nearest visual word of every
// descriptor. An image without descriptors encodes to an all-zero histogram.
func (e *Encoder) Encode(img imaging.Image, mask imaging.Mask) (Histogram, error) {
	descs, err := e.Describer.Describe(img, mask)
	if err != nil {
		return nil, err
	}
	return e.Vocabulary.Encode(descs)
}
