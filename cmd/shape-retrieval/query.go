package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-retrieval/internal/detection"
	"github.com/ironsheep/shape-retrieval/internal/imaging"
	"github.com/ironsheep/shape-retrieval/internal/retrieval"
)

// queryOptions holds the flags of the query command.
type queryOptions struct {
	ImagePath      string
	MaskPath       string
	DatasetPath    string
	Index          int
	VocabularyPath string
	DatabasePath   string
	MinDist        float64
	Limit          int
	JSON           bool
}

var queryOpts queryOptions

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank a histogram database against a query image",
	Long: `Rank a histogram database against a query image.

The query is either an --image/--mask pair or entry --index of a --dataset.
Candidates are printed closest first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runQuery(cmd.OutOrStdout(), queryOpts)
	},
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryOpts.ImagePath, "image", "i", "", "Query image")
	f.StringVarP(&queryOpts.MaskPath, "mask", "m", "", "Query mask")
	f.StringVarP(&queryOpts.DatasetPath, "dataset", "d", "", "Dataset to take the query from when --image is not given")
	f.IntVar(&queryOpts.Index, "index", 0, "Dataset entry used as the query")
	f.StringVar(&queryOpts.VocabularyPath, "vocabulary", "vocabulary.gob.gz", "Vocabulary file")
	f.StringVar(&queryOpts.DatabasePath, "database", "database.gob.gz", "Histogram database file")
	f.Float64Var(&queryOpts.MinDist, "min-dist", detection.DefaultMinDist, "Minimum distance between interest points")
	f.IntVarP(&queryOpts.Limit, "limit", "l", retrieval.DefaultCandidateLimit, "Maximum number of candidates")
	f.BoolVar(&queryOpts.JSON, "json", false, "Print candidates as JSON")
	queryCmd.MarkFlagsRequiredTogether("image", "mask")
	queryCmd.MarkFlagsMutuallyExclusive("image", "dataset")
	rootCmd.AddCommand(queryCmd)
}

// queryCandidate is one output row.
type queryCandidate struct {
	Rank     int     `json:"rank"`
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

func runQuery(w io.Writer, opts queryOptions) error {
	img, mask, err := loadQuery(opts)
	if err != nil {
		return err
	}

	vocab, err := retrieval.LoadVocabulary(opts.VocabularyPath)
	if err != nil {
		return err
	}
	db, err := retrieval.LoadDatabase(opts.DatabasePath)
	if err != nil {
		return err
	}

	describer := retrieval.NewDescriber()
	describer.MinDist = opts.MinDist
	query, err := (&retrieval.Encoder{Describer: describer, Vocabulary: vocab}).Encode(img, mask)
	if err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	candidates, err := db.Query(query, opts.Limit)
	if err != nil {
		return err
	}

	rows := make([]queryCandidate, 0, candidates.Len())
	for candidates.Next() {
		rows = append(rows, queryCandidate{
			Rank:     len(rows) + 1,
			Index:    candidates.Index(),
			Name:     db.Names[candidates.Index()],
			Distance: candidates.Distance(),
		})
	}
	logger.Info().Int("candidates", len(rows)).Int("database", db.Len()).Msg("query ranked")

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "RANK\tINDEX\tNAME\tDISTANCE")
	fmt.Fprintln(tw, "----\t-----\t----\t--------")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.4f\n", r.Rank, r.Index, r.Name, r.Distance)
	}
	return tw.Flush()
}

func loadQuery(opts queryOptions) (imaging.Image, imaging.Mask, error) {
	cache := imaging.NewImageCache()
	if opts.ImagePath != "" {
		return cache.LoadPair(opts.ImagePath, opts.MaskPath)
	}
	if opts.DatasetPath == "" {
		return imaging.Image{}, imaging.Mask{}, errors.New("either --image/--mask or --dataset is required")
	}

	dataset, err := imaging.OpenDataset(opts.DatasetPath, cache)
	if err != nil {
		return imaging.Image{}, imaging.Mask{}, err
	}
	if opts.Index < 0 || opts.Index >= dataset.Len() {
		return imaging.Image{}, imaging.Mask{}, fmt.Errorf("index %d out of range: dataset has %d entries", opts.Index, dataset.Len())
	}
	logger.Info().Str("query", dataset.Name(opts.Index)).Msg("querying with dataset entry")
	return dataset.Load(opts.Index)
}
