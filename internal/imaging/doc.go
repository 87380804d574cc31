// Package imaging provides the grid types and image I/O used by the shape
// descriptor pipeline.
//
// Decoded files are converted into three plain grid types:
//   - Image: three-channel float64 intensities (0-255)
//   - Gray: a single float64 channel, usually the channel mean of an Image
//   - Mask: a boolean foreground/background segmentation
//
// # Coordinate System
//
// Grids are indexed as (row, col) with (0, 0) at the top-left corner. When a
// grid is viewed as an image.Rectangle, X is the column and Y is the row, so
// image.Rect(c0, r0, c1, r1) selects rows [r0, r1) and columns [c0, c1).
// Sub-grid extraction clamps rectangles to the grid bounds.
//
// # Loading
//
// ImageCache decodes files through bild's imgio and caches the decoded
// image.Image by path. Dataset pairs files from an images/ and a masks/
// directory by base name and exposes them in a stable order.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Grid values are plain slices; callers
// treat them as immutable once produced.
//
// # Resampling
//
// Resample byte-scales a Gray grid to 0-255 and resizes it with
// disintegration/imaging's bilinear filter.
//
// # Rendering
//
// MaskImage, OverlayMarkers and EncodePNG turn masks, interest points and
// patches into base64 PNG previews for inspection over MCP.
package imaging
