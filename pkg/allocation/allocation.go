// Package allocation implements the hierarchical allocation grid (C4): an
// ordered list of cells, each carrying a rectangle, a per-module fractional
// occupancy, and a refinement depth, plus the operations that build,
// inspect, and refine it.
package allocation

import (
	"fmt"
	"sort"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// Cell is one rectangle of the allocation grid, with its per-module
// fractional occupancy and its refinement depth (0 = root).
type Cell struct {
	Rect      geometry.Rectangle
	Occupancy map[string]float64
	Depth     int
}

// Allocation is an ordered, immutable sequence of cells. Refining an
// allocation yields a new allocation at higher depth; the original is left
// untouched.
type Allocation struct {
	Cells []Cell
}

// New builds an allocation from the given cells, defaulting any nil
// occupancy map to empty.
func New(cells []Cell) *Allocation {
	for i := range cells {
		if cells[i].Occupancy == nil {
			cells[i].Occupancy = make(map[string]float64)
		}
	}
	return &Allocation{Cells: cells}
}

// CellsFromRectangles builds cells (all at depth 0, empty occupancy) from a
// list of rectangles, preserving their order.
func CellsFromRectangles(rects []geometry.Rectangle) []Cell {
	cells := make([]Cell, len(rects))
	for i, r := range rects {
		cells[i] = Cell{Rect: r, Occupancy: make(map[string]float64)}
	}
	return cells
}

// AllocationModule returns, for the named module, the occupancy of every
// cell in cell order (0 for cells with no entry).
func (a *Allocation) AllocationModule(name string) []float64 {
	out := make([]float64, len(a.Cells))
	for i, c := range a.Cells {
		out[i] = c.Occupancy[name]
	}
	return out
}

// BoundingBox returns the union bounding box of every cell's rectangle.
func (a *Allocation) BoundingBox() (geometry.Point, geometry.Point) {
	if len(a.Cells) == 0 {
		return geometry.Point{}, geometry.Point{}
	}
	ll, ur := a.Cells[0].Rect.BoundingBox()
	for _, c := range a.Cells[1:] {
		cll, cur := c.Rect.BoundingBox()
		if cll.X < ll.X {
			ll.X = cll.X
		}
		if cll.Y < ll.Y {
			ll.Y = cll.Y
		}
		if cur.X > ur.X {
			ur.X = cur.X
		}
		if cur.Y > ur.Y {
			ur.Y = cur.Y
		}
	}
	return ll, ur
}

// MaxRefinementDepth returns the largest depth across every cell.
func (a *Allocation) MaxRefinementDepth() int {
	max := 0
	for _, c := range a.Cells {
		if c.Depth > max {
			max = c.Depth
		}
	}
	return max
}

// InitialAllocation computes, for every cell and every module in netlist,
// the fractional occupancy given by the overlap of the module's pre-placed
// rectangles with the cell's rectangle, divided by the cell's area. Modules
// without rectangles get zero occupancy everywhere unless includeAreaZero
// is set, in which case they are still assigned an entry (at zero) so
// downstream columns are dense. After the raw overlap pass, each module's
// column is rescaled so that Σ(cell.area · occupancy) equals the module's
// ground area.
func InitialAllocation(n *netlist.Netlist, cells []Cell, includeAreaZero bool) (*Allocation, error) {
	result := make([]Cell, len(cells))
	copy(result, cells)
	for i := range result {
		result[i].Occupancy = make(map[string]float64)
	}

	for _, m := range n.OrderedModules() {
		var rawTotal float64
		raw := make([]float64, len(result))
		for i, c := range result {
			var overlap float64
			for _, mr := range m.Rectangles {
				overlap += c.Rect.AreaOverlap(mr)
			}
			raw[i] = overlap / c.Rect.Area()
			rawTotal += overlap
		}
		groundArea := m.GroundArea()
		if rawTotal <= 0 {
			if includeAreaZero {
				for i := range result {
					result[i].Occupancy[m.Name] = 0
				}
			}
			continue
		}
		scale := groundArea / rawTotal
		for i := range result {
			occ := raw[i] * scale
			if occ > 1 {
				return nil, fmt.Errorf("allocation: module %s scaled occupancy %g exceeds 1 in cell %d", m.Name, occ, i)
			}
			result[i].Occupancy[m.Name] = occ
		}
	}
	return New(result), nil
}

// MustBeRefined reports whether any cell at the current maximum depth has
// any module occupancy strictly inside the open band (1-threshold,
// threshold).
func (a *Allocation) MustBeRefined(threshold float64) bool {
	maxDepth := a.MaxRefinementDepth()
	lower := 1 - threshold
	for _, c := range a.Cells {
		if c.Depth != maxDepth {
			continue
		}
		for _, occ := range c.Occupancy {
			if occ > lower && occ < threshold {
				return true
			}
		}
	}
	return false
}

// Refine returns a new allocation where every cell at the current maximum
// depth whose occupancy triggers MustBeRefined's band test is replaced by a
// 2x2 split of its rectangle (four cells at depth+1, occupancies copied
// verbatim into each child). Cells not at the maximum depth, or at maximum
// depth but without any banded occupancy, pass through unchanged.
func (a *Allocation) Refine(threshold float64) (*Allocation, error) {
	maxDepth := a.MaxRefinementDepth()
	lower := 1 - threshold
	var out []Cell
	for _, c := range a.Cells {
		if c.Depth != maxDepth || !cellNeedsRefine(c, lower, threshold) {
			out = append(out, c)
			continue
		}
		quadrants, err := splitFour(c.Rect)
		if err != nil {
			return nil, fmt.Errorf("allocation: refine: %w", err)
		}
		for _, q := range quadrants {
			child := Cell{Rect: q, Depth: c.Depth + 1, Occupancy: make(map[string]float64, len(c.Occupancy))}
			for name, occ := range c.Occupancy {
				child.Occupancy[name] = occ
			}
			out = append(out, child)
		}
	}
	return New(out), nil
}

func cellNeedsRefine(c Cell, lower, threshold float64) bool {
	for _, occ := range c.Occupancy {
		if occ > lower && occ < threshold {
			return true
		}
	}
	return false
}

// splitFour cuts r into four quadrants via a horizontal then a vertical
// midline split.
func splitFour(r geometry.Rectangle) ([4]geometry.Rectangle, error) {
	var quads [4]geometry.Rectangle
	left, right, err := r.SplitHorizontalMid()
	if err != nil {
		return quads, err
	}
	bl, tl, err := left.SplitVerticalMid()
	if err != nil {
		return quads, err
	}
	br, tr, err := right.SplitVerticalMid()
	if err != nil {
		return quads, err
	}
	quads[0], quads[1], quads[2], quads[3] = bl, tl, br, tr
	return quads, nil
}

// ModuleNames returns the sorted set of module names with an occupancy
// entry anywhere in the allocation.
func (a *Allocation) ModuleNames() []string {
	seen := make(map[string]bool)
	for _, c := range a.Cells {
		for name := range c.Occupancy {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
