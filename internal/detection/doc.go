// Package detection implements connected-component analysis for posterized
// micrographs: region extraction, neck splitting, and boundary contour
// tracing.
//
// The input to this package is a binary mask of one posterization level
// (see the imaging package). FindComponents groups mask pixels into
// connected components in deterministic row-major discovery order.
// SplitByNeck detects components that are really two blobs joined by a
// narrow pixel bridge and partitions them, and TraceContour produces an
// ordered outer-boundary point sequence for rendering.
//
// # Connectivity
//
// Components may be built 4-connected or 8-connected; 8-connected is the
// default. The choice changes which diagonal-touching regions merge, so it
// is an explicit parameter rather than a hidden constant. Neck splitting
// propagates labels with the same connectivity the component was built
// with, which guarantees every parent pixel is reachable from a core.
//
// # Partition invariant
//
// When SplitByNeck splits a component, the children's pixel sets partition
// the parent's exactly: their union is the parent and they are pairwise
// disjoint. No pixel is dropped and none is counted twice. A violation is
// reported as a *ConsistencyError and indicates a bug in this package, not
// bad input.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with origin at the top-left corner,
// X increasing rightward and Y increasing downward. Centroids are
// area-weighted means of member pixel coordinates in this space.
package detection
