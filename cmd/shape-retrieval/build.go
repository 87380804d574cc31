package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
	"github.com/ironsheep/shape-retrieval/internal/retrieval"
)

// buildOptions holds the flags of the build command.
type buildOptions struct {
	DatasetPath     string
	VocabularyPath  string
	DatabasePath    string
	Words           int
	VocabularyImage int
	MaxImages       int
	MaxIterations   int
	Seed            int64
	MinDist         float64
	Workers         int
	Rebuild         bool
}

var buildOpts buildOptions

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a visual vocabulary and histogram database from a dataset",
	Long: `Build a visual vocabulary and histogram database from a dataset.

The dataset directory holds images/ and masks/; an image pairs with the mask
of the same base name. An existing vocabulary file is reused unless --rebuild
is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBuild(cmd.Context(), buildOpts)
	},
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildOpts.DatasetPath, "dataset", "d", "", "Dataset directory containing images/ and masks/")
	f.StringVar(&buildOpts.VocabularyPath, "vocabulary", "vocabulary.gob.gz", "Vocabulary file to reuse or write")
	f.StringVar(&buildOpts.DatabasePath, "database", "database.gob.gz", "Histogram database file to write")
	f.IntVarP(&buildOpts.Words, "words", "k", retrieval.DefaultVocabularySize, "Vocabulary size")
	f.IntVar(&buildOpts.VocabularyImage, "vocabulary-images", retrieval.DefaultVocabularyImages, "Dataset entries used to learn the vocabulary (0 = all)")
	f.IntVarP(&buildOpts.MaxImages, "max-images", "n", 0, "Dataset entries encoded into the database (0 = all)")
	f.IntVar(&buildOpts.MaxIterations, "iterations", retrieval.DefaultMaxIterations, "Maximum k-means iterations")
	f.Int64Var(&buildOpts.Seed, "seed", retrieval.DefaultVocabularySeed, "k-means seed")
	f.Float64Var(&buildOpts.MinDist, "min-dist", detection.DefaultMinDist, "Minimum distance between interest points")
	f.IntVarP(&buildOpts.Workers, "workers", "w", 0, "Concurrent encoders (0 = GOMAXPROCS)")
	f.BoolVar(&buildOpts.Rebuild, "rebuild", false, "Learn a new vocabulary even if the vocabulary file exists")
	_ = buildCmd.MarkFlagRequired("dataset")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(ctx context.Context, opts buildOptions) error {
	dataset, err := imaging.OpenDataset(opts.DatasetPath, imaging.NewImageCache())
	if err != nil {
		return err
	}
	logger.Info().Str("dataset", dataset.Root()).Int("entries", dataset.Len()).Msg("dataset opened")

	describer := retrieval.NewDescriber()
	describer.MinDist = opts.MinDist

	vocab, err := loadOrBuildVocabulary(ctx, dataset, describer, opts)
	if err != nil {
		return err
	}

	bar := newProgressBar("Encoding")
	db, err := retrieval.BuildDatabase(ctx, dataset, &retrieval.Encoder{Describer: describer, Vocabulary: vocab}, retrieval.BuildOptions{
		MaxImages: opts.MaxImages,
		Workers:   opts.Workers,
		Logger:    &logger,
		Progress:  progressFunc(bar),
	})
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("building database: %w", err)
	}

	if err := retrieval.SaveDatabase(opts.DatabasePath, db); err != nil {
		return err
	}

	hits, misses := describer.Points.Stats()
	logger.Info().
		Str("path", opts.DatabasePath).
		Int("images", db.Len()).
		Int("point_cache_hits", hits).
		Int("point_cache_misses", misses).
		Msg("database written")
	return nil
}

func loadOrBuildVocabulary(ctx context.Context, dataset *imaging.Dataset, describer *retrieval.Describer, opts buildOptions) (retrieval.Vocabulary, error) {
	if !opts.Rebuild {
		vocab, err := retrieval.LoadVocabulary(opts.VocabularyPath)
		switch {
		case err == nil:
			logger.Info().Str("path", opts.VocabularyPath).Int("words", vocab.Len()).Msg("reusing vocabulary")
			return vocab, nil
		case !errors.Is(err, fs.ErrNotExist):
			return retrieval.Vocabulary{}, err
		}
	}

	bar := newProgressBar("Describing")
	vocab, err := retrieval.BuildVocabulary(ctx, dataset, describer, retrieval.VocabularyOptions{
		Words:         opts.Words,
		MaxImages:     opts.VocabularyImage,
		MaxIterations: opts.MaxIterations,
		Seed:          opts.Seed,
		Logger:        &logger,
		Progress:      progressFunc(bar),
	})
	_ = bar.Finish()
	if err != nil {
		return retrieval.Vocabulary{}, fmt.Errorf("building vocabulary: %w", err)
	}

	if err := retrieval.SaveVocabulary(opts.VocabularyPath, vocab); err != nil {
		return retrieval.Vocabulary{}, err
	}
	logger.Info().Str("path", opts.VocabularyPath).Int("words", vocab.Len()).Msg("vocabulary written")
	return vocab, nil
}

// newProgressBar returns a stderr bar whose total is set on the first update.
func newProgressBar(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
}

func progressFunc(bar *progressbar.ProgressBar) func(done, total int) {
	return func(done, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		_ = bar.Set(done)
	}
}
