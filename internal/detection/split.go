package detection

import (
	"fmt"
	"image"
)

// SplitByNeck detects a component whose shape is two (or more) lobes joined
// by a narrow neck and splits it into child components.
//
// The component's mask is eroded trimPx layers with a full 3x3 structuring
// element. If erosion separates the mask into two or more surviving cores,
// each core seeds a labeled partition: every original pixel, including the
// eroded boundary pixels, is assigned to its nearest core by breadth-first
// propagation using the same connectivity the component was built with.
// The children therefore partition the parent's pixel set exactly — union
// equals parent, pairwise disjoint.
//
// Parameters:
//   - comp: The component to examine. Not modified.
//   - trimPx: Erosion depth in pixels. 0 disables splitting entirely and
//     returns the component unchanged (exact no-op, no spurious splits).
//   - conn: Adjacency rule used for label propagation. Must match the rule
//     the component was extracted with, or eroded-away pixels connected
//     only diagonally could become unreachable.
//
// Returns 1..N children. A single-element result means no split occurred:
// either the erosion left the component in one piece, or it dissolved the
// component entirely ("unsplittable"), in which case the original passes
// through unchanged. A *ConsistencyError indicates the partition invariant
// was violated, which is a bug, not an input condition.
func SplitByNeck(comp *Component, trimPx int, conn Connectivity) ([]*Component, error) {
	if trimPx <= 0 || comp.Area == 0 {
		return []*Component{comp}, nil
	}

	bw := comp.Bounds.Dx()
	bh := comp.Bounds.Dy()
	minX := comp.Bounds.Min.X
	minY := comp.Bounds.Min.Y

	// Local working grid covering just the component's bounds.
	local := make([]bool, bw*bh)
	for _, idx := range comp.Pixels {
		lx := idx%comp.Stride - minX
		ly := idx/comp.Stride - minY
		local[ly*bw+lx] = true
	}

	eroded := erode(local, bw, bh, trimPx)

	// Label the surviving cores. 4-connected labeling keeps cores that
	// barely touch diagonally apart, which is what makes narrow necks
	// separable in the first place.
	coreLabels, numCores := labelGrid(eroded, bw, bh, Connect4)
	if numCores < 2 {
		// One core: no neck found. Zero cores: fully dissolved, treat as
		// unsplittable and pass the original through.
		return []*Component{comp}, nil
	}

	// Multi-source BFS from all cores at once assigns each remaining pixel
	// to its nearest core. Seeding in row-major order keeps tie-breaking
	// deterministic.
	labels := make([]int, bw*bh)
	queue := make([]int, 0, comp.Area)
	for i, lab := range coreLabels {
		if lab > 0 {
			labels[i] = lab
			queue = append(queue, i)
		}
	}

	neighbors := conn.offsets()
	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		x, y := idx%bw, idx/bw
		for _, d := range neighbors {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || nx >= bw || ny < 0 || ny >= bh {
				continue
			}
			nIdx := ny*bw + nx
			if local[nIdx] && labels[nIdx] == 0 {
				labels[nIdx] = labels[idx]
				queue = append(queue, nIdx)
			}
		}
	}

	// Rebuild children in global coordinates. Iterating the parent's pixel
	// list preserves discovery order within each child.
	childPixels := make([][]int, numCores+1)
	for _, idx := range comp.Pixels {
		lx := idx%comp.Stride - minX
		ly := idx/comp.Stride - minY
		lab := labels[ly*bw+lx]
		if lab == 0 {
			return nil, &ConsistencyError{
				Op:     "SplitByNeck",
				Detail: fmt.Sprintf("pixel (%d,%d) unassigned after core propagation", idx%comp.Stride, idx/comp.Stride),
			}
		}
		childPixels[lab] = append(childPixels[lab], idx)
	}

	children := make([]*Component, 0, numCores)
	total := 0
	for lab := 1; lab <= numCores; lab++ {
		pixels := childPixels[lab]
		if len(pixels) == 0 {
			continue
		}
		child := &Component{
			Level:  comp.Level,
			Pixels: pixels,
			Area:   len(pixels),
			Stride: comp.Stride,
		}
		for i, idx := range pixels {
			x, y := idx%comp.Stride, idx/comp.Stride
			r := image.Rect(x, y, x+1, y+1)
			if i == 0 {
				child.Bounds = r
			} else {
				child.Bounds = child.Bounds.Union(r)
			}
		}
		children = append(children, child)
		total += child.Area
	}

	if total != comp.Area {
		return nil, &ConsistencyError{
			Op:     "SplitByNeck",
			Detail: fmt.Sprintf("children cover %d pixels, parent has %d", total, comp.Area),
		}
	}
	return children, nil
}

// erode shrinks a binary grid by iterations layers using a full 3x3
// structuring element: a pixel survives only if itself and all eight
// neighbors are set. Pixels on the grid edge never survive (outside the
// grid counts as background).
func erode(grid []bool, w, h, iterations int) []bool {
	cur := make([]bool, len(grid))
	copy(cur, grid)
	next := make([]bool, len(grid))

	for it := 0; it < iterations; it++ {
		any := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				idx := y*w + x
				next[idx] = false
				if !cur[idx] || x == 0 || x == w-1 || y == 0 || y == h-1 {
					continue
				}
				keep := true
				for dy := -1; dy <= 1 && keep; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if !cur[(y+dy)*w+(x+dx)] {
							keep = false
							break
						}
					}
				}
				if keep {
					next[idx] = true
					any = true
				}
			}
		}
		cur, next = next, cur
		if !any {
			break
		}
	}
	return cur
}

// labelGrid labels connected regions of a binary grid with 1..n.
// Returns the label grid (0 = background) and the region count.
func labelGrid(grid []bool, w, h int, conn Connectivity) ([]int, int) {
	labels := make([]int, len(grid))
	neighbors := conn.offsets()
	n := 0

	for start := 0; start < len(grid); start++ {
		if !grid[start] || labels[start] != 0 {
			continue
		}
		n++
		stack := []int{start}
		labels[start] = n
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			for _, d := range neighbors {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nIdx := ny*w + nx
				if grid[nIdx] && labels[nIdx] == 0 {
					labels[nIdx] = n
					stack = append(stack, nIdx)
				}
			}
		}
	}
	return labels, n
}
