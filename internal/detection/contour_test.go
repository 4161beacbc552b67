package detection

import (
	"testing"
)

// pixelSet converts a component's pixels into a coordinate lookup.
func pixelSet(comp *Component) map[Point]bool {
	set := make(map[Point]bool, comp.Area)
	for _, idx := range comp.Pixels {
		set[Point{X: idx % comp.Stride, Y: idx / comp.Stride}] = true
	}
	return set
}

func TestTraceContour_Empty(t *testing.T) {
	comp := &Component{Stride: 10}
	if pts := TraceContour(comp); pts != nil {
		t.Errorf("empty component: got %d points, want nil", len(pts))
	}
}

func TestTraceContour_SinglePixel(t *testing.T) {
	comp := singleComponent(t, []string{
		"...",
		".#.",
		"...",
	}, Connect8)

	pts := TraceContour(comp)
	if len(pts) != 1 {
		t.Fatalf("got %d points, want 1", len(pts))
	}
	if pts[0] != (Point{X: 1, Y: 1}) {
		t.Errorf("got %v, want (1,1)", pts[0])
	}
}

func TestTraceContour_SquareBoundary(t *testing.T) {
	comp := singleComponent(t, []string{
		".....",
		".###.",
		".###.",
		".###.",
		".....",
	}, Connect8)

	pts := TraceContour(comp)
	if len(pts) != 8 {
		t.Fatalf("got %d points, want 8", len(pts))
	}

	// Every boundary pixel appears; the center pixel does not.
	seen := make(map[Point]bool)
	for _, p := range pts {
		seen[p] = true
	}
	if seen[Point{X: 2, Y: 2}] {
		t.Error("contour contains the interior pixel (2,2)")
	}
	for _, want := range []Point{{1, 1}, {3, 1}, {1, 3}, {3, 3}} {
		if !seen[want] {
			t.Errorf("contour missing corner %v", want)
		}
	}

	// Trace starts at the topmost-leftmost pixel.
	if pts[0] != (Point{X: 1, Y: 1}) {
		t.Errorf("start point: got %v, want (1,1)", pts[0])
	}
}

func TestTraceContour_ThinLineDoublesBack(t *testing.T) {
	comp := singleComponent(t, []string{
		".......",
		".#####.",
		".......",
	}, Connect8)

	pts := TraceContour(comp)

	// A 1-pixel-wide line is traced out and back, closing on the start:
	// 2n-1 points for n pixels.
	if len(pts) != 9 {
		t.Fatalf("got %d points, want 9", len(pts))
	}
	if pts[0] != (Point{X: 1, Y: 1}) {
		t.Errorf("start point: got %v, want (1,1)", pts[0])
	}

	seen := make(map[Point]bool)
	for _, p := range pts {
		seen[p] = true
	}
	if !seen[Point{X: 5, Y: 1}] {
		t.Error("contour missing the far endpoint (5,1)")
	}
}

func TestTraceContour_PointsBelongToComponent(t *testing.T) {
	comp := singleComponent(t, []string{
		"..####..",
		".######.",
		"########",
		".######.",
		"..####..",
	}, Connect8)

	members := pixelSet(comp)
	for _, p := range TraceContour(comp) {
		if !members[p] {
			t.Errorf("contour point %v is not a component pixel", p)
		}
	}
}

func TestTraceContour_OffsetComponent(t *testing.T) {
	// Component away from the grid origin: contour coordinates must be
	// global, not bounds-local.
	comp := singleComponent(t, []string{
		"........",
		"........",
		".....##.",
		".....##.",
	}, Connect8)

	pts := TraceContour(comp)
	if len(pts) != 4 {
		t.Fatalf("got %d points, want 4", len(pts))
	}
	if pts[0] != (Point{X: 5, Y: 2}) {
		t.Errorf("start point: got %v, want (5,2)", pts[0])
	}
}
