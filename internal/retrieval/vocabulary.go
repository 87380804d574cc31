package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/shape-retrieval/internal/descriptor"
)

// Vocabulary defaults.
const (
	DefaultVocabularySize   = 100
	DefaultMaxIterations    = 50
	DefaultVocabularySeed   = 1
	DefaultVocabularyImages = 5
)

// ErrNoDescriptors is returned when a vocabulary is requested from no data.
var ErrNoDescriptors = errors.New("no descriptors to cluster")

// Vocabulary is a set of visual words: cluster centres in descriptor space.
type Vocabulary struct {
	Words [][]float64
}

// Len returns the number of words.
func (v Vocabulary) Len() int { return len(v.Words) }

// Dim returns the dimension of the words, or 0 for an empty vocabulary.
func (v Vocabulary) Dim() int {
	if len(v.Words) == 0 {
		return 0
	}
	return len(v.Words[0])
}

// Nearest returns the index of the word closest to d and its distance.
// Ties go to the lower index. It returns -1 for an empty vocabulary.
func (v Vocabulary) Nearest(d []float64) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, w := range v.Words {
		if dist := floats.Distance(d, w, 2); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, bestDist
}

// Encode counts, per word, how many descriptors are closest to it.
//
// Descriptors whose length differs from the vocabulary dimension are
// rejected with ErrDimensionMismatch.
func (v Vocabulary) Encode(descs []descriptor.Descriptor) (Histogram, error) {
	h := make(Histogram, v.Len())
	dim := v.Dim()
	for i, d := range descs {
		if len(d) != dim {
			return nil, fmt.Errorf("descriptor %d has length %d, vocabulary %d: %w",
				i, len(d), dim, ErrDimensionMismatch)
		}
		if w, _ := v.Nearest(d); w >= 0 {
			h[w]++
		}
	}
	return h, nil
}

// KMeansOptions configures clustering.
type KMeansOptions struct {
	// K is the number of clusters. It is reduced to the number of points when
	// fewer are available.
	K int

	// MaxIterations bounds the Lloyd iterations.
	MaxIterations int

	// Seed makes centre initialisation reproducible.
	Seed int64
}

// KMeans clusters points into at most opts.K centres.
//
// Builds with the gocv tag (and cgo) cluster with OpenCV's k-means using
// k-means++ centres and an RNG seeded by opts.Seed. Other builds run the
// same k-means++ seeding and Lloyd iterations in Go. Either way the result is
// reproducible for a given seed.
//
// Parameters:
//   - ctx: Checked between iterations; cancellation returns ctx.Err().
//   - points: Descriptors to cluster, all of the same length.
//   - opts: Cluster count, iteration bound and seed. Zero values use the
//     package defaults; K is reduced to len(points).
//
// Returns:
//   - Vocabulary: Words are the cluster centres.
//   - error: ErrNoDescriptors if points is empty, or ctx.Err().
func KMeans(ctx context.Context, points [][]float64, opts KMeansOptions) (Vocabulary, error) {
	if len(points) == 0 {
		return Vocabulary{}, ErrNoDescriptors
	}
	k := opts.K
	if k <= 0 {
		k = DefaultVocabularySize
	}
	if k > len(points) {
		k = len(points)
	}
	iterations := opts.MaxIterations
	if iterations <= 0 {
		iterations = DefaultMaxIterations
	}

	centres, err := clusterCentres(ctx, points, k, iterations, opts.Seed)
	if err != nil {
		return Vocabulary{}, err
	}
	return Vocabulary{Words: centres}, nil
}

// VocabularyOptions configures BuildVocabulary.
type VocabularyOptions struct {
	// Words is the vocabulary size.
	Words int

	// MaxImages bounds how many dataset entries contribute descriptors.
	// Zero or less uses every entry.
	MaxImages int

	// MaxIterations bounds k-means refinement.
	MaxIterations int

	// Seed makes clustering reproducible.
	Seed int64

	// Logger receives progress and per-image warnings. Defaults to a no-op
	// logger.
	Logger *zerolog.Logger

	// Progress, when set, is called after each image is described.
	Progress func(done, total int)
}

// BuildVocabulary clusters the descriptors of the first MaxImages dataset
// entries into a vocabulary.
//
// Entries whose mask fails a descriptor precondition are logged and skipped;
// load failures abort the build.
func BuildVocabulary(ctx context.Context, src Source, d *Describer, opts VocabularyOptions) (Vocabulary, error) {
	logger := loggerOrNop(opts.Logger).With().Str("component", "vocabulary").Logger()

	total := limitCount(src.Len(), opts.MaxImages)
	var points [][]float64
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Vocabulary{}, err
		}

		img, mask, err := src.Load(i)
		if err != nil {
			return Vocabulary{}, fmt.Errorf("loading %s: %w", src.Name(i), err)
		}
		descs, err := d.Describe(img, mask)
		if err != nil {
			logger.Warn().Err(err).Str("image", src.Name(i)).Msg("skipping image")
		}
		for _, desc := range descs {
			points = append(points, desc)
		}
		logger.Debug().Str("image", src.Name(i)).Int("descriptors", len(descs)).Msg("described")

		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	words := opts.Words
	if words <= 0 {
		words = DefaultVocabularySize
	}
	logger.Info().Int("descriptors", len(points)).Int("words", words).Msg("clustering")

	return KMeans(ctx, points, KMeansOptions{
		K:             words,
		MaxIterations: opts.MaxIterations,
		Seed:          opts.Seed,
	})
}

func limitCount(n, limit int) int {
	if limit > 0 && limit < n {
		return limit
	}
	return n
}

func loggerOrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}
