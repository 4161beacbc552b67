package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// histogramBuckets is the fixed number of equal-width area buckets per
// level. Enough resolution to see where a MinArea cut would land without
// overwhelming a side-panel display.
const histogramBuckets = 10

// HistogramBucket is one area bucket: components with
// MinArea <= area < MaxArea.
type HistogramBucket struct {
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`
	Count   int     `json:"count"`
}

// LevelHistogram is the area distribution of one level's components after
// neck splitting and before area filtering. Each post-split component is
// counted exactly once; pre-split parents never appear.
type LevelHistogram struct {
	Level int `json:"level"`

	// Components is the total component count, always equal to the sum of
	// bucket counts.
	Components int `json:"components"`

	Buckets []HistogramBucket `json:"buckets"`
}

// buildLevelHistogram buckets component areas into equal-width bins
// spanning the observed range.
func buildLevelHistogram(level int, areas []int) LevelHistogram {
	h := LevelHistogram{Level: level, Components: len(areas)}
	if len(areas) == 0 {
		return h
	}

	x := make([]float64, len(areas))
	for i, a := range areas {
		x[i] = float64(a)
	}
	sort.Float64s(x)

	// Upper divider sits one past the max so the largest component falls
	// inside the final half-open bucket.
	dividers := make([]float64, histogramBuckets+1)
	floats.Span(dividers, x[0], x[len(x)-1]+1)

	counts := stat.Histogram(nil, dividers, x, nil)
	h.Buckets = make([]HistogramBucket, histogramBuckets)
	for i := range counts {
		h.Buckets[i] = HistogramBucket{
			MinArea: dividers[i],
			MaxArea: dividers[i+1],
			Count:   int(counts[i]),
		}
	}
	return h
}
