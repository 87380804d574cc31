// Package descriptor computes local boundary descriptors from an image and its
// segmentation mask.
//
// # Pipeline
//
//  1. Patch extraction: around each interest point, square windows of
//     half-width scale × unit are cut from the channel-mean image and from the
//     mask, for every scale (default 1, 4 and 16). The unit is the foreground
//     extent divided by 20. Windows are clamped to the grid; empty, flat-zero
//     and one-cell-thin patches are skipped.
//  2. Gradient histogram: the image patch is byte-scaled, resampled to 32×32
//     and described by a 324-value histogram of oriented gradients, scaled to
//     unit length.
//  3. Occupancy: the mask patch is split into quadrants and the foreground
//     fraction of each is L1-normalised and square-rooted.
//  4. The two parts are concatenated into a 328-value Descriptor.
//
// # Degenerate Values
//
// Normalisations never divide by zero: an all-zero gradient histogram or
// occupancy signature is returned unchanged, so descriptors never contain NaN.
//
// # Concurrency
//
// Descriptor computation per patch is independent. Computer.DescribeParallel
// spreads patches over a worker pool and keeps the extraction order.
package descriptor
