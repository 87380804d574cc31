package retrieval

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ironsheep/shape-retrieval/internal/detection"
)

// Database holds one histogram per dataset entry. The index of a histogram
// is the identity returned by queries.
type Database struct {
	// Names are the dataset entry names, parallel to Histograms.
	Names []string

	// Histograms are the per-image visual-word histograms.
	Histograms []Histogram
}

// Len returns the number of entries.
func (db *Database) Len() int { return len(db.Histograms) }

// Query ranks the database against a query histogram. See Rank.
func (db *Database) Query(query Histogram, limit int) (*Candidates, error) {
	return Rank(query, db.Histograms, limit)
}

// BuildOptions configures BuildDatabase.
type BuildOptions struct {
	// MaxImages bounds how many dataset entries are encoded. Zero or less
	// encodes every entry.
	MaxImages int

	// Workers is the number of entries encoded concurrently. Values below
	// one use GOMAXPROCS. The source must be safe for concurrent Load calls
	// when Workers is above one.
	Workers int

	// Logger receives per-image warnings. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Progress, when set, is called after each entry is encoded. Calls are
	// serialised; done counts completed entries, not indices.
	Progress func(done, total int)
}

// BuildDatabase encodes the first MaxImages dataset entries. Histograms are
// stored in source order whatever order the workers finish in.
//
// An entry whose mask has no foreground or no background cannot be described;
// it is logged and stored as an all-zero histogram so that indices stay
// aligned with the source.
//
// Parameters:
//   - ctx: Cancellation aborts the build.
//   - src: The dataset; safe for concurrent Load when Workers is above one.
//   - enc: Describer and vocabulary used for every entry.
//   - opts: Entry limit, worker count, logger and progress callback.
//
// Returns:
//   - *Database: One histogram and name per encoded entry, in source order.
//   - error: The first load or encoding failure, or ctx.Err().
func BuildDatabase(ctx context.Context, src Source, enc *Encoder, opts BuildOptions) (*Database, error) {
	logger := loggerOrNop(opts.Logger).With().Str("component", "database").Logger()

	total := limitCount(src.Len(), opts.MaxImages)
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > total {
		workers = total
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db := &Database{
		Names:      make([]string, total),
		Histograms: make([]Histogram, total),
	}

	var (
		mu       sync.Mutex
		firstErr error
		done     int
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	indices := make(chan int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue
				}
				h, err := encodeEntry(src, enc, i, logger)
				if err != nil {
					fail(err)
					continue
				}

				mu.Lock()
				db.Names[i] = src.Name(i)
				db.Histograms[i] = h
				done++
				if opts.Progress != nil {
					opts.Progress(done, total)
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			break
		}
		indices <- i
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info().Int("images", db.Len()).Int("words", enc.Vocabulary.Len()).Msg("database built")
	return db, nil
}

func encodeEntry(src Source, enc *Encoder, i int, logger zerolog.Logger) (Histogram, error) {
	name := src.Name(i)
	img, mask, err := src.Load(i)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}

	h, err := enc.Encode(img, mask)
	switch {
	case errors.Is(err, detection.ErrNoForeground), errors.Is(err, detection.ErrNoBackground):
		logger.Warn().Err(err).Str("image", name).Msg("storing empty histogram")
		return make(Histogram, enc.Vocabulary.Len()), nil
	case err != nil:
		return nil, fmt.Errorf("encoding %s: %w", name, err)
	}

	logger.Debug().Str("image", name).Int("index", i).Msg("encoded")
	return h, nil
}
