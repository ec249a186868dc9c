package die

import "github.com/dshills/frameflow/pkg/geometry"

// groundRegion is a candidate maximal-ground rectangle expressed in cell
// grid coordinates: rows [rmin, rmax] and columns [cmin, cmax], both
// inclusive.
type groundRegion struct {
	rmin, rmax, cmin, cmax int
}

// decompose computes the grid induced by every occupied rectangle's edges,
// marks which cells are occupied, and repeatedly extracts the largest
// remaining maximal free rectangle until none remains. Ties between
// equal-area candidates are broken by lowest row then lowest column, per
// the deterministic first-encountered rule.
func (d *Die) decompose() {
	xs, ys := d.gridLines()
	occupied := d.occupiedRectangles()
	cells := cellMatrix(xs, ys, occupied)

	d.GroundRegions = nil
	for {
		reg, ok := findLargestGroundRegion(cells, xs, ys)
		if !ok {
			break
		}
		for row := reg.rmin; row <= reg.rmax; row++ {
			for col := reg.cmin; col <= reg.cmax; col++ {
				cells[row][col] = true
			}
		}
		center := geometry.Point{
			X: (xs[reg.cmin] + xs[reg.cmax+1]) / 2,
			Y: (ys[reg.rmin] + ys[reg.rmax+1]) / 2,
		}
		shape := geometry.Shape{
			W: xs[reg.cmax+1] - xs[reg.cmin],
			H: ys[reg.rmax+1] - ys[reg.rmin],
		}
		r := geometry.NewRectangle(center, shape)
		r.Region = geometry.Ground
		d.GroundRegions = append(d.GroundRegions, r)
	}
}

// gridLines gathers the die boundary plus every occupied rectangle's edge
// coordinates into the sorted, epsilon-de-duplicated x and y candidate
// lines, via the C1 kernel's GatherBoundaries. The die's own footprint is
// passed in as a rectangle so its extents (0 and Width/Height) are
// included alongside the obstacle edges.
func (d *Die) gridLines() (xs, ys []float64) {
	dieRect := geometry.NewRectangle(
		geometry.Point{X: d.Width / 2, Y: d.Height / 2},
		geometry.Shape{W: d.Width, H: d.Height},
	)
	rects := append([]geometry.Rectangle{dieRect}, d.occupiedRectangles()...)
	return geometry.GatherBoundaries(rects, d.epsilon)
}

// cellMatrix marks cells[row][col] true when that cell's center lies
// inside one of the occupied rectangles. Rows index y bands, columns index
// x bands.
func cellMatrix(xs, ys []float64, occupied []geometry.Rectangle) [][]bool {
	nrows, ncols := len(ys)-1, len(xs)-1
	cells := make([][]bool, nrows)
	for row := range cells {
		cells[row] = make([]bool, ncols)
	}
	for row := 0; row < nrows; row++ {
		cy := (ys[row] + ys[row+1]) / 2
		for col := 0; col < ncols; col++ {
			cx := (xs[col] + xs[col+1]) / 2
			p := geometry.Point{X: cx, Y: cy}
			for _, r := range occupied {
				if r.PointInside(p) {
					cells[row][col] = true
					break
				}
			}
		}
	}
	return cells
}

// findLargestGroundRegion scans every free cell, expands it into every
// maximal axis-aligned rectangle of free cells reachable by adding whole
// rows or columns, and returns the one with the largest area (ties broken
// by lowest row then lowest column, i.e. first-encountered).
func findLargestGroundRegion(cells [][]bool, xs, ys []float64) (groundRegion, bool) {
	nrows := len(cells)
	if nrows == 0 {
		return groundRegion{}, false
	}
	ncols := len(cells[0])

	var best groundRegion
	bestArea := -1.0
	found := false

	for row := 0; row < nrows; row++ {
		for col := 0; col < ncols; col++ {
			if cells[row][col] {
				continue
			}
			seed := groundRegion{rmin: row, rmax: row, cmin: col, cmax: col}
			for _, reg := range expandRegion(seed, cells) {
				area := (xs[reg.cmax+1] - xs[reg.cmin]) * (ys[reg.rmax+1] - ys[reg.rmin])
				if area > bestArea {
					bestArea = area
					best = reg
					found = true
				}
			}
		}
	}
	return best, found
}

// expandRegion performs a breadth-first expansion of r by trying to add one
// more row below rmax or one more column right of cmax, at each step
// requiring the newly covered cells to be entirely free. It returns every
// region reached this way, including r itself.
func expandRegion(r groundRegion, cells [][]bool) []groundRegion {
	nrows := len(cells)
	ncols := len(cells[0])

	seen := map[groundRegion]bool{r: true}
	all := []groundRegion{r}
	pending := []groundRegion{r}

	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]

		if cur.rmax < nrows-1 {
			row := cur.rmax + 1
			if rowFree(cells, row, cur.cmin, cur.cmax) {
				next := groundRegion{rmin: cur.rmin, rmax: cur.rmax + 1, cmin: cur.cmin, cmax: cur.cmax}
				if !seen[next] {
					seen[next] = true
					all = append(all, next)
					pending = append(pending, next)
				}
			}
		}
		if cur.cmax < ncols-1 {
			col := cur.cmax + 1
			if colFree(cells, col, cur.rmin, cur.rmax) {
				next := groundRegion{rmin: cur.rmin, rmax: cur.rmax, cmin: cur.cmin, cmax: cur.cmax + 1}
				if !seen[next] {
					seen[next] = true
					all = append(all, next)
					pending = append(pending, next)
				}
			}
		}
	}
	return all
}

func rowFree(cells [][]bool, row, colMin, colMax int) bool {
	for col := colMin; col <= colMax; col++ {
		if cells[row][col] {
			return false
		}
	}
	return true
}

func colFree(cells [][]bool, col, rowMin, rowMax int) bool {
	for row := rowMin; row <= rowMax; row++ {
		if cells[row][col] {
			return false
		}
	}
	return true
}
