package floorplan

import (
	"fmt"
	"sort"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/solver"
)

// Dispersions maps a module name to its (dx, dy) dispersion under the
// current allocation.
type Dispersions map[string][2]float64

// Config controls the alternating optimize/refine loop.
type Config struct {
	// Alpha trades off wire length (1) against dispersion (0), in [0, 1].
	Alpha float64
	// Threshold gates MustBeRefined and Refine, in [0, 1]; the source
	// tool defaults this to 0.95. The per-cell freezing in
	// OptimizeAllocation does not use it.
	Threshold float64
	// MaxIter bounds the number of refine+optimize rounds. Zero means
	// "until no more refinement is possible".
	MaxIter int
	// MaxAspect, if > 0, additionally polishes the n_rows x n_cols grid's
	// cells with the C1 kernel's split_until: any cell whose aspect ratio
	// exceeds MaxAspect is split further (must exceed sqrt(2), per
	// split_until's termination contract).
	MaxAspect float64
	// MinRects, used together with MaxAspect, extends the polished grid
	// by splitting its largest-area cell until at least MinRects cells
	// exist.
	MinRects int
	// Backend solves each round's nonlinear program. Defaults to a
	// gonum-backed solver if nil.
	Backend solver.Backend
}

// CreateInitialAllocation builds an n_rows x n_cols grid over the die's
// bounding rectangle and scales per-module occupancy from the netlist's
// pre-placed rectangles, exactly as the source tool's
// create_initial_allocation does: modules without rectangles still get a
// (zero) entry in every cell so later columns are dense.
func CreateInitialAllocation(n *netlist.Netlist, dieW, dieH float64, nRows, nCols int) (*allocation.Allocation, error) {
	return CreateInitialAllocationWithSplit(n, dieW, dieH, nRows, nCols, 0, 0)
}

// CreateInitialAllocationWithSplit is CreateInitialAllocation, additionally
// passing the n_rows x n_cols grid's cells through the C1 kernel's
// SplitUntil(maxAspect, minRects) before allocating, when maxAspect > 0.
// This is the -r/-n path alongside -g: -g fixes the coarse grid, -r/-n
// bound the aspect ratio and minimum count of the cells built from it.
func CreateInitialAllocationWithSplit(n *netlist.Netlist, dieW, dieH float64, nRows, nCols int, maxAspect float64, minRects int) (*allocation.Allocation, error) {
	whole := geometry.NewRectangle(geometry.PointFromPair(dieW/2, dieH/2), geometry.Shape{W: dieW, H: dieH})
	rects, err := whole.Grid(nRows, nCols)
	if err != nil {
		return nil, fmt.Errorf("floorplan: create initial allocation: %w", err)
	}
	if maxAspect > 0 {
		rects = geometry.SplitUntil(rects, maxAspect, minRects)
	}
	cells := allocation.CellsFromRectangles(rects)
	alloc, err := allocation.InitialAllocation(n, cells, true)
	if err != nil {
		return nil, fmt.Errorf("floorplan: create initial allocation: %w", err)
	}
	return alloc, nil
}

// CalculateDispersions computes each module's (dx, dy) dispersion under
// the given allocation, using module.Center as the reference centroid.
// Every module must already carry a Center (Preplace, or a prior
// OptimizeAllocation call, sets one).
func CalculateDispersions(n *netlist.Netlist, alloc *allocation.Allocation) (Dispersions, error) {
	out := make(Dispersions, len(n.Order))
	for _, m := range n.OrderedModules() {
		if m.Center == nil {
			return nil, fmt.Errorf("floorplan: calculate dispersions: module %s has no center", m.Name)
		}
		var dx, dy float64
		for _, c := range alloc.Cells {
			occ := c.Occupancy[m.Name]
			area := c.Rect.Area() * occ
			dx += area * (m.Center.X - c.Rect.Center.X) * (m.Center.X - c.Rect.Center.X)
			dy += area * (m.Center.Y - c.Rect.Center.Y) * (m.Center.Y - c.Rect.Center.Y)
		}
		out[m.Name] = [2]float64{dx, dy}
	}
	return out, nil
}

// freeVar identifies one free decision variable: module m's occupancy in
// cell c.
type freeVar struct {
	module string
	cell   int
}

// OptimizeAllocation runs one nonlinear-program pass that jointly
// minimizes wire length and dispersion, following the source tool's
// optimize_allocation: module centroids and dispersions are not free
// variables but quantities derived algebraically from each module's
// cell occupancies, which lets this repo's solver interface (bounded
// variables plus a penalized objective) avoid the auxiliary
// equality-constrained variables GEKKO used to define them.
//
// A module is frozen for this pass (its occupancy columns excluded from
// the decision vector) if it is Fixed or Hard; per remaining movable
// module, an individual cell's occupancy is frozen if its depth is not
// the allocation's maximum depth or its current value is below 0.001,
// matching the source tool's freezing test exactly.
func OptimizeAllocation(n *netlist.Netlist, alloc *allocation.Allocation, alpha float64, backend solver.Backend) (*allocation.Allocation, Dispersions, error) {
	if alpha < 0 || alpha > 1 {
		return nil, nil, fmt.Errorf("floorplan: optimize allocation: alpha must be in [0,1], got %g", alpha)
	}
	if backend == nil {
		backend = solver.NewGonumBackend()
	}

	modules := n.OrderedModules()
	cells := alloc.Cells
	maxDepth := alloc.MaxRefinementDepth()

	var free []freeVar
	frozenOcc := make(map[string][]float64, len(modules))
	for _, m := range modules {
		occ := make([]float64, len(cells))
		for c, cell := range cells {
			occ[c] = cell.Occupancy[m.Name]
		}
		frozenOcc[m.Name] = occ
		if m.Fixed || m.Hard {
			continue
		}
		for c, cell := range cells {
			if cell.Depth != maxDepth || occ[c] < 0.001 {
				continue
			}
			free = append(free, freeVar{module: m.Name, cell: c})
		}
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].module != free[j].module {
			return free[i].module < free[j].module
		}
		return free[i].cell < free[j].cell
	})

	index := make(map[freeVar]int, len(free))
	for i, fv := range free {
		index[fv] = i
	}

	occAt := func(x []float64, moduleName string, cellIdx int) float64 {
		if i, ok := index[freeVar{module: moduleName, cell: cellIdx}]; ok {
			return x[i]
		}
		return frozenOcc[moduleName][cellIdx]
	}

	areaByModule := make(map[string]float64, len(modules))
	for _, m := range modules {
		areaByModule[m.Name] = m.Area()
	}

	centroid := func(x []float64, moduleName string) (cx, cy float64) {
		area := areaByModule[moduleName]
		for c, cell := range cells {
			occ := occAt(x, moduleName, c)
			cx += cell.Rect.Area() * cell.Rect.Center.X * occ
			cy += cell.Rect.Area() * cell.Rect.Center.Y * occ
		}
		return cx / area, cy / area
	}

	dispersion := func(x []float64, moduleName string, cx, cy float64) (dx, dy float64) {
		for c, cell := range cells {
			occ := occAt(x, moduleName, c)
			area := cell.Rect.Area() * occ
			dx += area * (cx - cell.Rect.Center.X) * (cx - cell.Rect.Center.X)
			dy += area * (cy - cell.Rect.Center.Y) * (cy - cell.Rect.Center.Y)
		}
		return dx, dy
	}

	moduleIndex := make(map[string]*netlist.Module, len(modules))
	for _, m := range modules {
		moduleIndex[m.Name] = m
	}

	objective := func(x []float64) float64 {
		centroids := make(map[string][2]float64, len(modules))
		dispersions := make(map[string][2]float64, len(modules))
		for _, m := range modules {
			cx, cy := centroid(x, m.Name)
			dx, dy := dispersion(x, m.Name, cx, cy)
			centroids[m.Name] = [2]float64{cx, cy}
			dispersions[m.Name] = [2]float64{dx, dy}
		}

		var wl float64
		for _, e := range n.HyperEdges {
			if len(e.Modules) == 2 {
				c0, c1 := centroids[e.Modules[0]], centroids[e.Modules[1]]
				wl += e.Weight * 0.5 * ((c0[0]-c1[0])*(c0[0]-c1[0]) + (c0[1]-c1[1])*(c0[1]-c1[1]))
				continue
			}
			var ex, ey float64
			for _, name := range e.Modules {
				c := centroids[name]
				ex += c[0]
				ey += c[1]
			}
			k := float64(len(e.Modules))
			ex /= k
			ey /= k
			for _, name := range e.Modules {
				c := centroids[name]
				wl += e.Weight * ((c[0]-ex)*(c[0]-ex) + (c[1]-ey)*(c[1]-ey))
			}
		}

		var disp float64
		for _, m := range modules {
			d := dispersions[m.Name]
			disp += d[0] + d[1]
		}

		return alpha*wl + (1-alpha)*disp
	}

	var inequalities []solver.Constraint
	for c := range cells {
		cellIdx := c
		inequalities = append(inequalities, func(x []float64) float64 {
			var sum float64
			for _, m := range modules {
				sum += occAt(x, m.Name, cellIdx)
			}
			return sum - 1
		})
	}
	for _, m := range modules {
		name := m.Name
		target := areaByModule[name]
		inequalities = append(inequalities, func(x []float64) float64 {
			var sum float64
			for c, cell := range cells {
				sum += cell.Rect.Area() * occAt(x, name, c)
			}
			return target - sum
		})
	}

	lower := make([]float64, len(free))
	upper := make([]float64, len(free))
	guess := make([]float64, len(free))
	for i, fv := range free {
		lower[i] = 0
		upper[i] = 1
		guess[i] = frozenOcc[fv.module][fv.cell]
	}

	maxIter := 200
	var result solver.Result
	if len(free) > 0 {
		problem := solver.Problem{
			LowerBounds:   lower,
			UpperBounds:   upper,
			InitialGuess:  guess,
			Objective:     objective,
			Inequalities:  inequalities,
			MaxIterations: maxIter,
		}
		var err error
		result, err = backend.Solve(problem)
		if err != nil {
			return nil, nil, fmt.Errorf("floorplan: optimize allocation: %w", err)
		}
	} else {
		result = solver.Result{X: nil, Converged: true}
	}

	newCells := make([]allocation.Cell, len(cells))
	for c, cell := range cells {
		newOcc := make(map[string]float64, len(modules))
		for _, m := range modules {
			newOcc[m.Name] = occAt(result.X, m.Name, c)
		}
		newCells[c] = allocation.Cell{Rect: cell.Rect, Occupancy: newOcc, Depth: cell.Depth}
	}
	newAlloc := allocation.New(newCells)

	dispersions := make(Dispersions, len(modules))
	for _, m := range modules {
		cx, cy := centroid(result.X, m.Name)
		dx, dy := dispersion(result.X, m.Name, cx, cy)
		center := geometry.PointFromPair(cx, cy)
		moduleIndex[m.Name].Center = &center
		dispersions[m.Name] = [2]float64{dx, dy}
	}

	return newAlloc, dispersions, nil
}

// GlbFloor computes the initial allocation and alternately refines and
// optimizes it until the allocation cannot be further refined or cfg.MaxIter
// rounds have run (MaxIter <= 0 means unbounded), following the source
// tool's glbfloor driver loop exactly: round 0 builds the initial
// allocation and its dispersions, every round (including round 0) then
// runs one OptimizeAllocation pass, and rounds beyond the first refine
// first if the allocation still needs it.
func GlbFloor(n *netlist.Netlist, dieW, dieH float64, nRows, nCols int, cfg Config) (*allocation.Allocation, Dispersions, error) {
	var alloc *allocation.Allocation
	var dispersions Dispersions

	nIter := 0
	for cfg.MaxIter <= 0 || nIter <= cfg.MaxIter {
		if nIter == 0 {
			var err error
			alloc, err = CreateInitialAllocationWithSplit(n, dieW, dieH, nRows, nCols, cfg.MaxAspect, cfg.MinRects)
			if err != nil {
				return nil, nil, err
			}
			for _, m := range n.OrderedModules() {
				if m.Center == nil {
					center := geometry.PointFromPair(dieW/2, dieH/2)
					m.Center = &center
				}
			}
			dispersions, err = CalculateDispersions(n, alloc)
			if err != nil {
				return nil, nil, err
			}
			nIter++
		} else {
			if !alloc.MustBeRefined(cfg.Threshold) {
				break
			}
			refined, err := alloc.Refine(cfg.Threshold)
			if err != nil {
				return nil, nil, fmt.Errorf("floorplan: glbfloor: %w", err)
			}
			alloc = refined
		}

		optimized, newDispersions, err := OptimizeAllocation(n, alloc, cfg.Alpha, cfg.Backend)
		if err != nil {
			return nil, nil, fmt.Errorf("floorplan: glbfloor: round %d: %w", nIter, err)
		}
		alloc = optimized
		dispersions = newDispersions
		nIter++
	}

	return alloc, dispersions, nil
}
