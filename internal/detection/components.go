package detection

import (
	"fmt"
	"image"
)

// Point represents a 2D pixel coordinate.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Connectivity selects the pixel adjacency rule used when grouping mask
// pixels into components.
type Connectivity int

const (
	// Connect4 treats only horizontal and vertical neighbors as adjacent.
	Connect4 Connectivity = 4

	// Connect8 additionally treats diagonal neighbors as adjacent.
	// This is the default: thin diagonal structures common in micrographs
	// stay in one piece.
	Connect8 Connectivity = 8
)

// ParseConnectivity validates a numeric connectivity value.
// Zero selects the Connect8 default.
func ParseConnectivity(n int) (Connectivity, error) {
	switch n {
	case 0, 8:
		return Connect8, nil
	case 4:
		return Connect4, nil
	}
	return 0, fmt.Errorf("connectivity must be 4 or 8, got %d", n)
}

var (
	offsets4 = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	offsets8 = [][2]int{
		{1, 0}, {-1, 0}, {0, 1}, {0, -1},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}
)

// offsets returns the neighbor offsets for the adjacency rule.
func (c Connectivity) offsets() [][2]int {
	if c == Connect4 {
		return offsets4
	}
	return offsets8
}

// ConsistencyError reports a violated internal invariant, such as a neck
// split whose children do not exactly partition the parent's pixel set.
// It indicates a programming error in the detection stage, never bad input.
type ConsistencyError struct {
	Op     string // operation that detected the violation
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency violation in %s: %s", e.Op, e.Detail)
}

// Component is a maximal connected set of same-level pixels.
//
// Pixels are stored as row-major indices into the mask grid the component
// was extracted from; Stride is that grid's width. Components are value
// carriers: later stages derive centroids and contours from the pixel set
// rather than storing them.
type Component struct {
	// Level is the posterization level this component belongs to.
	Level int

	// Pixels holds the row-major grid indices of member pixels in
	// deterministic discovery order.
	Pixels []int

	// Area is the member pixel count, always len(Pixels).
	Area int

	// Bounds is the tight bounding rectangle of the pixel set.
	Bounds image.Rectangle

	// Stride is the width of the source mask grid, needed to convert
	// pixel indices back to coordinates.
	Stride int
}

// Centroid returns the area-weighted mean of member pixel coordinates
// (the standard first-moment centroid). Coordinates are in pixel space:
// origin top-left, x right, y down. The zero component yields (0, 0).
func (c *Component) Centroid() (float64, float64) {
	if c.Area == 0 {
		return 0, 0
	}
	var sumX, sumY int64
	for _, idx := range c.Pixels {
		sumX += int64(idx % c.Stride)
		sumY += int64(idx / c.Stride)
	}
	n := float64(c.Area)
	return float64(sumX) / n, float64(sumY) / n
}

// FindComponents extracts the connected components of a single-level binary
// mask.
//
// Parameters:
//   - mask: Row-major binary mask, len w*h; true marks pixels of the level.
//   - w, h: Mask dimensions.
//   - level: Posterization level label to record on each component.
//   - conn: Adjacency rule (Connect4 or Connect8).
//
// Returns components ordered by their first pixel in row-major scan order,
// so repeated runs over identical masks produce identical sequences. An
// empty mask yields an empty (nil) slice.
func FindComponents(mask []bool, w, h int, level int, conn Connectivity) []*Component {
	visited := make([]bool, len(mask))
	var comps []*Component

	for start := 0; start < len(mask); start++ {
		if !mask[start] || visited[start] {
			continue
		}
		comps = append(comps, fillComponent(mask, visited, w, h, start, level, conn))
	}
	return comps
}

// fillComponent flood-fills one component from a seed pixel.
// Iterative stack-based fill avoids stack overflow on large regions.
func fillComponent(mask, visited []bool, w, h, seed, level int, conn Connectivity) *Component {
	neighbors := conn.offsets()
	comp := &Component{
		Level:  level,
		Stride: w,
		Bounds: image.Rect(seed%w, seed/w, seed%w+1, seed/w+1),
	}

	stack := []int{seed}
	visited[seed] = true
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		comp.Pixels = append(comp.Pixels, idx)
		x, y := idx%w, idx/w
		comp.Bounds = comp.Bounds.Union(image.Rect(x, y, x+1, y+1))

		for _, d := range neighbors {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			nIdx := ny*w + nx
			if mask[nIdx] && !visited[nIdx] {
				visited[nIdx] = true
				stack = append(stack, nIdx)
			}
		}
	}

	comp.Area = len(comp.Pixels)
	return comp
}
