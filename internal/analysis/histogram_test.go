package analysis

import (
	"testing"
)

func TestBuildLevelHistogram(t *testing.T) {
	areas := []int{10, 12, 50, 100, 100, 480}

	h := buildLevelHistogram(2, areas)

	if h.Level != 2 {
		t.Errorf("Level: got %d, want 2", h.Level)
	}
	if h.Components != 6 {
		t.Errorf("Components: got %d, want 6", h.Components)
	}
	if len(h.Buckets) != 10 {
		t.Fatalf("got %d buckets, want 10", len(h.Buckets))
	}

	sum := 0
	for i, b := range h.Buckets {
		if b.Count < 0 {
			t.Errorf("bucket %d has negative count", i)
		}
		if b.MaxArea <= b.MinArea {
			t.Errorf("bucket %d has non-increasing range [%v,%v)", i, b.MinArea, b.MaxArea)
		}
		sum += b.Count
	}
	if sum != h.Components {
		t.Errorf("bucket counts sum to %d, want %d", sum, h.Components)
	}

	// Range covers the data with one pixel of headroom past the max.
	if h.Buckets[0].MinArea != 10 {
		t.Errorf("first bucket starts at %v, want 10", h.Buckets[0].MinArea)
	}
	if h.Buckets[9].MaxArea != 481 {
		t.Errorf("last bucket ends at %v, want 481", h.Buckets[9].MaxArea)
	}
}

func TestBuildLevelHistogram_Empty(t *testing.T) {
	h := buildLevelHistogram(0, nil)
	if h.Components != 0 {
		t.Errorf("Components: got %d, want 0", h.Components)
	}
	if len(h.Buckets) != 0 {
		t.Errorf("got %d buckets, want 0", len(h.Buckets))
	}
}

func TestBuildLevelHistogram_UniformAreas(t *testing.T) {
	// All components the same size: everything lands in the first bucket.
	h := buildLevelHistogram(1, []int{25, 25, 25, 25})

	if h.Components != 4 {
		t.Fatalf("Components: got %d, want 4", h.Components)
	}
	if h.Buckets[0].Count != 4 {
		t.Errorf("first bucket count: got %d, want 4", h.Buckets[0].Count)
	}
	sum := 0
	for _, b := range h.Buckets {
		sum += b.Count
	}
	if sum != 4 {
		t.Errorf("bucket counts sum to %d, want 4", sum)
	}
}
