// Package imaging provides image loading, posterization, and rendering for
// the centroid pipeline.
//
// This package implements the image-facing half of the system: decoding and
// caching raster images, quantizing them into a small number of discrete
// color levels (posterization), downscaling to a working resolution, and
// rendering previews and overlays for the operator-facing client.
// All operations work with standard Go image.Image types and use a
// coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Posterization
//
// Posterize reduces an image to K discrete level labels. The default
// method partitions the grayscale range into K equal-width bins, which is
// fully deterministic: identical input and K always produce identical
// labels. Palette-based methods (dominant-color and k-means) assign each
// pixel to the nearest palette color in CIE Lab space; palettes are sorted
// darkest to brightest so level labels stay position-stable as parameters
// are tuned.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Posterization and
// rendering are stateless and can be called concurrently on different
// images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Level counts below 2
//   - Coordinates outside image bounds
//   - File I/O errors during image loading
//   - Encoding errors during preview output
package imaging
