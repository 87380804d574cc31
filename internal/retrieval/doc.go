// Package retrieval implements bag-of-visual-words retrieval over boundary
// descriptors.
//
// # Pipeline
//
//   - Describer: interest points (memoised in a PointCache) followed by
//     descriptor computation.
//   - BuildVocabulary: k-means clustering of descriptors from a Source into a
//     Vocabulary of visual words.
//   - Encoder: assigns each descriptor of an image to its nearest word and
//     counts words into a Histogram.
//   - BuildDatabase: one Histogram per Source entry, in source order.
//   - Rank: orders database histograms by Euclidean distance to a query and
//     returns at most 200 candidates by default.
//
// # Persistence
//
// Vocabulary and Database implement gob.GobEncoder and gob.GobDecoder. The
// encoding is a gzip-compressed gob stream prefixed by a format version;
// float64 values survive a save/load cycle bit for bit.
//
// # Invalid Input
//
// Rank rejects histograms containing NaN or ±Inf with ErrInvalidHistogram
// instead of ranking undefined distances.
package retrieval
