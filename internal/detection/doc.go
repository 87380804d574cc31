// Package detection locates interest points on segmentation masks and derives
// the scale unit used to size descriptor patches.
//
// # Interest Points
//
// DetectInterestPoints follows the mask outline:
//
//  1. Boundary indicator: a cell is on the boundary when the mask changes
//     between it and its lower or right neighbour. The indicator grid drops the
//     last row and column of the mask.
//  2. Greedy selection: boundary cells are visited in row-major order and kept
//     only when they are farther than a minimum distance from every point kept
//     so far.
//
// Selection is deterministic: the same mask and distance always produce the
// same ordered points.
//
// # Scale Unit
//
// ScaleUnit is the smaller side of the foreground bounding box divided by 20.
// Masks without foreground or without background have no meaningful extent and
// are rejected with ErrNoForeground or ErrNoBackground.
//
// # Coordinate System
//
// Points use (row, col) grid coordinates with the origin at the top-left
// cell. Bounding boxes are image.Rectangle values with X as column and Y as
// row.
package detection
