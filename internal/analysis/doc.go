// Package analysis assembles the centroid pipeline: posterize, extract
// connected components per level, split neck-joined components, filter by
// area, and compute centroids with boundary contours and per-level area
// histograms.
//
// Analyze is a pure function from (image, Params) to *Result with no shared
// mutable state: concurrent invocations for different images or parameter
// sets never interfere, and results are cacheable by parameter-set key
// (Params.Key). Re-running with identical inputs yields identical results
// for the deterministic quantize methods. There is no mid-run cancellation;
// runs are cheap enough at working resolution that callers simply discard a
// stale result and rerun.
//
// # Parameter validation
//
// Invalid parameters fail fast with a *ParameterError naming the offending
// field; no partial computation is attempted. Invariant violations inside
// the pipeline surface as *detection.ConsistencyError and indicate bugs,
// not bad input.
//
// # Ordering and identity
//
// Centroid IDs are assigned from a stable sort — level, then y, then x — so
// a selection made in the client survives recomputation whenever the actual
// result set is unchanged.
//
// # Stage ordering rules
//
// Area filtering always runs after neck splitting: a parent whose area is
// out of range may split into children that are legitimately in range, and
// vice versa. Histograms are built from post-split, pre-filter components,
// counting each final component exactly once and never mixing a parent with
// its children.
package analysis
