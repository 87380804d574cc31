package retrieval

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultCandidateLimit is the number of candidates a query returns by default.
const DefaultCandidateLimit = 200

var (
	// ErrInvalidHistogram is returned for histograms containing NaN or ±Inf.
	ErrInvalidHistogram = errors.New("histogram contains NaN or Inf")
	// ErrDimensionMismatch is returned when histogram lengths differ.
	ErrDimensionMismatch = errors.New("histogram length mismatch")
)

// Histogram counts visual-word occurrences for one image, indexed by word.
type Histogram []float64

// Validate returns ErrInvalidHistogram when h holds a NaN or infinite value.
func (h Histogram) Validate() error {
	for i, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bin %d is %v: %w", i, v, ErrInvalidHistogram)
		}
	}
	return nil
}

// Candidates is a one-shot sequence of database indices, closest first.
//
// Once Next has returned false the sequence stays exhausted. Ranking is a pure
// function of its inputs; call Rank again for a fresh sequence.
type Candidates struct {
	order []int
	dists []float64
	pos   int
}

// Candidate is a ranked database entry.
type Candidate struct {
	// Index is the position of the histogram in the database.
	Index int `json:"index"`

	// Distance is the Euclidean distance to the query histogram.
	Distance float64 `json:"distance"`
}

// Next advances to the next candidate and reports whether there is one.
func (c *Candidates) Next() bool {
	if c.pos >= len(c.order) {
		c.pos = len(c.order) + 1
		return false
	}
	c.pos++
	return true
}

// Index returns the database index of the current candidate.
func (c *Candidates) Index() int { return c.order[c.pos-1] }

// Distance returns the distance of the current candidate to the query.
func (c *Candidates) Distance() float64 { return c.dists[c.order[c.pos-1]] }

// Len returns the total number of candidates in the sequence.
func (c *Candidates) Len() int { return len(c.order) }

// Collect drains the remaining candidates into a slice.
func (c *Candidates) Collect() []Candidate {
	out := make([]Candidate, 0, len(c.order))
	for c.Next() {
		out = append(out, Candidate{Index: c.Index(), Distance: c.Distance()})
	}
	return out
}

// Rank orders the database by Euclidean distance to query.
//
// The sequence holds at most limit entries (DefaultCandidateLimit when limit
// is not positive) and never more than len(database). Equal distances keep
// database order. An empty database yields an empty sequence.
//
// Parameters:
//   - query: The histogram to match.
//   - database: Histograms in index order, each the length of query.
//   - limit: Maximum number of candidates; zero or less uses the default.
//
// Returns:
//   - *Candidates: The ranked, one-shot sequence.
//   - error: ErrInvalidHistogram when the query or a database entry holds
//     NaN/Inf, ErrDimensionMismatch when a database entry's length differs
//     from the query.
func Rank(query Histogram, database []Histogram, limit int) (*Candidates, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	dists := make([]float64, len(database))
	for i, h := range database {
		if len(h) != len(query) {
			return nil, fmt.Errorf("database entry %d has %d bins, query has %d: %w",
				i, len(h), len(query), ErrDimensionMismatch)
		}
		if err := h.Validate(); err != nil {
			return nil, fmt.Errorf("database entry %d: %w", i, err)
		}
		dists[i] = floats.Distance(query, h, 2)
	}

	order := make([]int, len(database))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] < dists[order[b]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	return &Candidates{order: order, dists: dists}, nil
}
