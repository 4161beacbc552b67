package detection

import "image"

// Moore neighborhood in clockwise order starting west. Consecutive entries
// are adjacent positions on the ring, which the backtracking in
// TraceContour relies on.
var mooreDirs = [8]image.Point{
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
}

// mooreIndex maps a unit offset back to its position in mooreDirs.
func mooreIndex(d image.Point) int {
	for i, m := range mooreDirs {
		if m == d {
			return i
		}
	}
	return 0
}

// TraceContour returns the component's outer boundary as an ordered point
// sequence, traced clockwise with Moore-neighbor tracing from the
// component's topmost-leftmost pixel.
//
// The contour is derived from the pixel set on demand — it is a rendering
// artifact, not stored truth. Contours for split children are traced per
// child, never inherited from the unsplit parent. A pixel may appear more
// than once where the boundary doubles back through a one-pixel-wide
// protrusion; that is the correct traversal for drawing a closed outline.
//
// A component with a single pixel yields a single-point contour; an empty
// component yields nil.
func TraceContour(comp *Component) []Point {
	if comp.Area == 0 {
		return nil
	}

	bw := comp.Bounds.Dx()
	bh := comp.Bounds.Dy()
	minX := comp.Bounds.Min.X
	minY := comp.Bounds.Min.Y

	local := make([]bool, bw*bh)
	for _, idx := range comp.Pixels {
		lx := idx%comp.Stride - minX
		ly := idx/comp.Stride - minY
		local[ly*bw+lx] = true
	}
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.X < bw && p.Y >= 0 && p.Y < bh && local[p.Y*bw+p.X]
	}

	// Start at the first set pixel in row-major order. Its west neighbor is
	// guaranteed background, giving a valid initial backtrack direction.
	var start image.Point
	for i := 0; i < len(local); i++ {
		if local[i] {
			start = image.Point{X: i % bw, Y: i / bw}
			break
		}
	}

	toGlobal := func(p image.Point) Point {
		return Point{X: p.X + minX, Y: p.Y + minY}
	}

	if comp.Area == 1 {
		return []Point{toGlobal(start)}
	}

	contour := make([]Point, 0, 4*bw+4*bh)
	curr := start
	backDir := 0 // dirs[0] = W

	// The next move is a pure function of (pixel, backtrack direction), so
	// the trace is complete the moment a state repeats. This terminates
	// correctly even on 1-pixel-wide shapes, where the classic
	// enter-start-from-the-original-direction test never fires. The step
	// cap guards against degenerate geometry.
	seen := map[int]bool{(start.Y*bw+start.X)*8 + backDir: true}
	maxSteps := 8*comp.Area + 8
	for step := 0; step < maxSteps; step++ {
		contour = append(contour, toGlobal(curr))

		found := false
		var next image.Point
		var nextBackDir int
		for i := 1; i <= 8; i++ {
			d := (backDir + i) % 8
			np := curr.Add(mooreDirs[d])
			if inside(np) {
				// The neighbor examined just before np is background and
				// becomes the backtrack reference for the next step.
				prev := curr.Add(mooreDirs[(backDir+i-1)%8])
				next = np
				nextBackDir = mooreIndex(prev.Sub(np))
				found = true
				break
			}
		}
		if !found {
			break
		}
		key := (next.Y*bw+next.X)*8 + nextBackDir
		if seen[key] {
			break
		}
		seen[key] = true
		curr = next
		backDir = nextBackDir
	}
	return contour
}
