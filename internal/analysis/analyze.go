package analysis

import (
	"fmt"
	"image"
	"sort"

	"github.com/ironsheep/centroid-tools-mcp/internal/detection"
	"github.com/ironsheep/centroid-tools-mcp/internal/imaging"
)

// Centroid is the externally visible unit of output: the area-weighted
// center of one accepted component.
//
// Coordinates are floating-point, in pixel space of the analyzed image:
// origin top-left, x right, y down.
type Centroid struct {
	// ID is a stable 1-based identifier derived from sort order
	// (level, then y, then x), not from incidental container order.
	ID int `json:"id"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	// Level is the posterization level the component belongs to.
	Level int `json:"level"`

	// Area is the component's pixel count.
	Area int `json:"area"`
}

// Contour is the ordered outer-boundary point sequence of one accepted
// component, for overlay rendering. CentroidID links it to its centroid.
type Contour struct {
	CentroidID int               `json:"centroid_id"`
	Points     []detection.Point `json:"points"`
}

// ReferencePoint is an operator-placed fixed coordinate. Reference points
// are input overlay data carried through unmodified; they are never
// produced by detection.
type ReferencePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LevelSummary gives per-level tuning feedback: how many pixels the level
// holds and how many components survived each stage.
type LevelSummary struct {
	// Level is the posterization level index.
	Level int `json:"level"`

	// Color is the level's representative palette color as "#RRGGBB".
	Color string `json:"color"`

	// PixelCount is the number of pixels posterized into this level.
	PixelCount int `json:"pixel_count"`

	// ComponentCount is the number of components after neck splitting,
	// before area filtering.
	ComponentCount int `json:"component_count"`

	// AcceptedCount is the number of components that passed the area
	// filter.
	AcceptedCount int `json:"accepted_count"`
}

// Result is the complete output of one pipeline run.
type Result struct {
	// Width and Height are the dimensions of the analyzed image.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Centroids are the accepted components' centroids in stable ID order.
	Centroids []Centroid `json:"centroids"`

	// Contours are the accepted components' boundary outlines, parallel to
	// Centroids.
	Contours []Contour `json:"contours"`

	// Levels summarizes each posterization level.
	Levels []LevelSummary `json:"levels"`

	// Histograms are the per-level area distributions of post-split
	// components, for tuning feedback.
	Histograms []LevelHistogram `json:"histograms"`
}

// Analyze runs the full centroid pipeline on a decoded image.
//
// Stages, in order: optional Gaussian pre-smoothing, posterization into
// K levels, connected-component extraction per level, neck splitting,
// area filtering, then centroid and contour computation. The stages run
// synchronously to completion; Analyze holds no state between calls.
//
// Returns a *ParameterError before touching the image if params are
// invalid, or a *detection.ConsistencyError if an internal invariant is
// violated (a bug, not an input condition).
func Analyze(img image.Image, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	smoothed := imaging.PreSmooth(img, params.SmoothSigma)
	poster, err := imaging.Posterize(smoothed, params.PosterLevels, params.method())
	if err != nil {
		return nil, fmt.Errorf("posterize: %w", err)
	}

	conn := params.connectivity()
	result := &Result{
		Width:  poster.Width,
		Height: poster.Height,
	}

	type accepted struct {
		comp *detection.Component
		cx   float64
		cy   float64
	}
	var kept []accepted

	for level := 0; level < poster.Levels; level++ {
		summary := LevelSummary{
			Level:      level,
			Color:      poster.Palette[level].Hex(),
			PixelCount: poster.Counts[level],
		}
		if poster.Counts[level] == 0 {
			result.Levels = append(result.Levels, summary)
			continue
		}

		mask := poster.Mask(level)
		raw := detection.FindComponents(mask, poster.Width, poster.Height, level, conn)

		// Neck splitting replaces each raw component with its children;
		// everything downstream sees only the refined set.
		refined := make([]*detection.Component, 0, len(raw))
		for _, comp := range raw {
			children, err := detection.SplitByNeck(comp, params.TrimPx, conn)
			if err != nil {
				return nil, err
			}
			refined = append(refined, children...)
		}

		// Every pixel of the level must be accounted for exactly once
		// across the refined components.
		totalArea := 0
		areas := make([]int, 0, len(refined))
		for _, comp := range refined {
			totalArea += comp.Area
			areas = append(areas, comp.Area)
		}
		if totalArea != poster.Counts[level] {
			return nil, &detection.ConsistencyError{
				Op:     "Analyze",
				Detail: fmt.Sprintf("level %d components cover %d pixels, mask has %d", level, totalArea, poster.Counts[level]),
			}
		}

		summary.ComponentCount = len(refined)
		result.Histograms = append(result.Histograms, buildLevelHistogram(level, areas))

		for _, comp := range refined {
			if comp.Area < params.MinArea {
				continue
			}
			if params.MaxArea > 0 && comp.Area > params.MaxArea {
				continue
			}
			cx, cy := comp.Centroid()
			kept = append(kept, accepted{comp: comp, cx: cx, cy: cy})
			summary.AcceptedCount++
		}
		result.Levels = append(result.Levels, summary)
	}

	// Stable identity: order by level, then position. Components at the
	// same level cannot share a centroid, so the ordering is total.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.comp.Level != b.comp.Level {
			return a.comp.Level < b.comp.Level
		}
		if a.cy != b.cy {
			return a.cy < b.cy
		}
		return a.cx < b.cx
	})

	result.Centroids = make([]Centroid, 0, len(kept))
	result.Contours = make([]Contour, 0, len(kept))
	for i, a := range kept {
		id := i + 1
		result.Centroids = append(result.Centroids, Centroid{
			ID:    id,
			X:     a.cx,
			Y:     a.cy,
			Level: a.comp.Level,
			Area:  a.comp.Area,
		})
		result.Contours = append(result.Contours, Contour{
			CentroidID: id,
			Points:     detection.TraceContour(a.comp),
		})
	}
	return result, nil
}

// ScaleToFull converts a result computed at working resolution back to
// full-resolution coordinates. Centroid and contour coordinates are
// multiplied by scale; areas stay in working-resolution pixels, matching
// the units the operator tuned MinArea against.
//
// A scale of 1.0 (analysis at native resolution) returns the result
// unchanged.
func ScaleToFull(r *Result, scale float64) *Result {
	if scale == 1.0 {
		return r
	}
	out := *r
	out.Centroids = make([]Centroid, len(r.Centroids))
	for i, c := range r.Centroids {
		c.X *= scale
		c.Y *= scale
		out.Centroids[i] = c
	}
	out.Contours = make([]Contour, len(r.Contours))
	for i, ct := range r.Contours {
		pts := make([]detection.Point, len(ct.Points))
		for j, p := range ct.Points {
			pts[j] = detection.Point{
				X: int(float64(p.X) * scale),
				Y: int(float64(p.Y) * scale),
			}
		}
		out.Contours[i] = Contour{CentroidID: ct.CentroidID, Points: pts}
	}
	return &out
}
