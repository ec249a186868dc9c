package validation

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/floorplan"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// CheckDieCoverage verifies P1: the die's regions, ground regions,
// blockages, and fixed rectangles together cover exactly the die's area.
func CheckDieCoverage(d *die.Die) ConstraintResult {
	const kind = "DieCoverage"
	const exprStr = "Σ area(rectangle) == die.w * die.h"

	var total float64
	for _, r := range d.Regions {
		total += r.Area()
	}
	for _, r := range d.GroundRegions {
		total += r.Area()
	}
	for _, r := range d.Blockages {
		total += r.Area()
	}
	for _, r := range d.Fixed {
		total += r.Area()
	}
	want := d.Width * d.Height
	tol := 1e-6 * want
	if diff := total - want; diff > tol || diff < -tol {
		return NewHardConstraintResult(kind, exprStr, false,
			fmt.Sprintf("die rectangles cover %g, want %g", total, want))
	}
	return NewHardConstraintResult(kind, exprStr, true, fmt.Sprintf("die rectangles cover %g, matching w*h", total))
}

// CheckDieNonOverlap verifies P2 across every rectangle the die carries
// (regions, ground regions, blockages, fixed).
func CheckDieNonOverlap(d *die.Die) ConstraintResult {
	const kind = "DieNonOverlap"
	const exprStr = "area_overlap(r_i, r_j) == 0"

	all := make([]geometry.Rectangle, 0, len(d.Regions)+len(d.GroundRegions)+len(d.Blockages)+len(d.Fixed))
	all = append(all, d.Regions...)
	all = append(all, d.GroundRegions...)
	all = append(all, d.Blockages...)
	all = append(all, d.Fixed...)

	tol := 1e-9 * d.Width * d.Height
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].AreaOverlap(all[j]) > tol {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("die rectangles %d and %d overlap", i, j))
			}
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, fmt.Sprintf("no overlap across %d die rectangles", len(all)))
}

// CheckGroundMaximality spot-checks P3: expanding any ground rectangle by
// a small margin on every side must either leave the die or collide with
// an occupied (region, blockage, or fixed) rectangle.
func CheckGroundMaximality(d *die.Die) ConstraintResult {
	const kind = "GroundMaximality"
	const exprStr = "growing a ground rectangle collides with an occupied rectangle or leaves the die"

	occupied := make([]geometry.Rectangle, 0, len(d.Regions)+len(d.Blockages)+len(d.Fixed))
	occupied = append(occupied, d.Regions...)
	occupied = append(occupied, d.Blockages...)
	occupied = append(occupied, d.Fixed...)

	margin := 1e-6 * math.Min(d.Width, d.Height)
	for i, g := range d.GroundRegions {
		grown := geometry.NewRectangle(g.Center, geometry.Shape{W: g.Shape.W + 2*margin, H: g.Shape.H + 2*margin})
		ll, ur := grown.BoundingBox()
		leavesDie := ll.X < 0 || ll.Y < 0 || ur.X > d.Width || ur.Y > d.Height
		collides := false
		for _, o := range occupied {
			if grown.AreaOverlap(o) > 0 {
				collides = true
				break
			}
		}
		if !leavesDie && !collides {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("ground rectangle %d (%v) can grow without colliding or leaving the die", i, g))
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, fmt.Sprintf("all %d ground rectangles are maximal", len(d.GroundRegions)))
}

// CheckAllocationAreaConservation verifies P4: every module's
// occupancy-weighted cell area matches its ground area.
func CheckAllocationAreaConservation(n *netlist.Netlist, alloc *allocation.Allocation) ConstraintResult {
	const kind = "AllocationAreaConservation"
	const exprStr = "Σ_c area(c) * a_{m,c} == module.ground_area"

	for _, m := range n.OrderedModules() {
		var total float64
		for _, c := range alloc.Cells {
			total += c.Rect.Area() * c.Occupancy[m.Name]
		}
		want := m.GroundArea()
		tol := 1e-6 * math.Max(want, 1)
		if diff := total - want; diff > tol || diff < -tol {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s occupancy sums to area %g, want %g", m.Name, total, want))
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, "every module's occupancy-weighted area matches its ground area")
}

// CheckAllocationCellBound verifies P5: no cell's occupancy across all
// modules exceeds 1.
func CheckAllocationCellBound(alloc *allocation.Allocation) ConstraintResult {
	const kind = "AllocationCellBound"
	const exprStr = "Σ_m a_{m,c} <= 1"

	for i, c := range alloc.Cells {
		var sum float64
		for _, occ := range c.Occupancy {
			sum += occ
		}
		if sum > 1+1e-6 {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("cell %d occupancy sums to %g, exceeds 1", i, sum))
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, "every cell's total occupancy is at most 1")
}

// CheckRefinementSubdivision verifies P6 by running Refine itself and
// checking its output against its own contract: the banded cells at the
// allocation's maximum depth each become exactly four children, every
// other cell passes through unchanged, the total area is conserved, and
// the union bounding rectangle does not move.
func CheckRefinementSubdivision(alloc *allocation.Allocation, threshold float64) ConstraintResult {
	const kind = "RefinementSubdivision"
	const exprStr = "refine(A,t).cells ⊇ bijective 2x2 expansion of A's refinable cells, union rectangle unchanged"

	beforeLL, beforeUR := alloc.BoundingBox()
	var beforeArea float64
	maxDepth := alloc.MaxRefinementDepth()
	lower := 1 - threshold
	refinable := 0
	for _, c := range alloc.Cells {
		beforeArea += c.Rect.Area()
		if c.Depth != maxDepth {
			continue
		}
		for _, occ := range c.Occupancy {
			if occ > lower && occ < threshold {
				refinable++
				break
			}
		}
	}

	refined, err := alloc.Refine(threshold)
	if err != nil {
		return NewHardConstraintResult(kind, exprStr, false, fmt.Sprintf("refine failed: %v", err))
	}

	afterLL, afterUR := refined.BoundingBox()
	if afterLL != beforeLL || afterUR != beforeUR {
		return NewHardConstraintResult(kind, exprStr, false,
			fmt.Sprintf("union rectangle moved from [%v,%v] to [%v,%v]", beforeLL, beforeUR, afterLL, afterUR))
	}

	var afterArea float64
	for _, c := range refined.Cells {
		afterArea += c.Rect.Area()
	}
	tol := 1e-6 * math.Max(beforeArea, 1)
	if diff := afterArea - beforeArea; diff > tol || diff < -tol {
		return NewHardConstraintResult(kind, exprStr, false,
			fmt.Sprintf("total area changed from %g to %g", beforeArea, afterArea))
	}

	wantCells := len(alloc.Cells) - refinable + 4*refinable
	if len(refined.Cells) != wantCells {
		return NewHardConstraintResult(kind, exprStr, false,
			fmt.Sprintf("refine produced %d cells, want %d (%d unchanged + %d refined x4)",
				len(refined.Cells), wantCells, len(alloc.Cells)-refinable, refinable))
	}

	return NewHardConstraintResult(kind, exprStr, true,
		fmt.Sprintf("refine replaced %d banded cells with %d children; union rectangle and area unchanged", refinable, 4*refinable))
}

// CheckSplitAspectReduction verifies P7 for one rectangle: if its aspect
// exceeds sqrt(2), at least one of its two split children must have
// aspect at most max(aspect/2, 2).
func CheckSplitAspectReduction(r geometry.Rectangle) ConstraintResult {
	const kind = "SplitAspectReduction"
	const exprStr = "aspect(r) > sqrt(2) => min(aspect(children)) <= max(aspect(r)/2, 2)"

	alpha := r.AspectRatio()
	if alpha <= math.Sqrt2 {
		return NewHardConstraintResult(kind, exprStr, true,
			fmt.Sprintf("aspect %g does not exceed sqrt(2); property vacuously holds", alpha))
	}
	a, b, err := r.Split()
	if err != nil {
		return NewHardConstraintResult(kind, exprStr, false, fmt.Sprintf("split failed: %v", err))
	}
	want := math.Max(alpha/2, 2)
	best := math.Min(a.AspectRatio(), b.AspectRatio())
	if best > want+1e-9 {
		return NewHardConstraintResult(kind, exprStr, false,
			fmt.Sprintf("both children have aspect above %g (got %g and %g) for parent aspect %g", want, a.AspectRatio(), b.AspectRatio(), alpha))
	}
	return NewHardConstraintResult(kind, exprStr, true, fmt.Sprintf("best child aspect %g <= %g", best, want))
}

// satelliteTag associates one legalized rectangle with its skeleton role:
// the trunk (sat == false) or a satellite attached in direction dir.
type satelliteTag struct {
	rect geometry.Rectangle
	dir  netlist.Cardinal
	sat  bool
}

var cardinals = [4]netlist.Cardinal{netlist.North, netlist.South, netlist.East, netlist.West}

// CheckLegalizerFeasibility verifies P8 against a netlist whose modules
// have already been legalized (module.Rectangles populated from the
// given skeletons, in the trunk-then-N,S,E,W order the legalizer
// materializes). It checks die containment, pairwise non-overlap,
// per-module area and aspect, attachment equalities, and intra-module
// ordering directly from geometry, independent of the solver that
// produced the rectangles.
func CheckLegalizerFeasibility(n *netlist.Netlist, skeletons map[string]*netlist.Skeleton, dieW, dieH, maxRatio float64) ConstraintResult {
	const kind = "LegalizerFeasibility"
	const exprStr = "die-containment ∧ non-overlap ∧ area >= target ∧ aspect <= max_ratio ∧ attachment ∧ ordering"
	tol := 1e-6 * math.Max(dieW, dieH)

	var everything []geometry.Rectangle

	for _, m := range n.OrderedModules() {
		sk, ok := skeletons[m.Name]
		if !ok {
			return NewHardConstraintResult(kind, exprStr, false, fmt.Sprintf("module %s has no skeleton", m.Name))
		}
		want := 1
		for _, dir := range cardinals {
			want += len(sk.Satellites[dir])
		}
		if len(m.Rectangles) != want {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s has %d rectangles, want %d (trunk + satellites)", m.Name, len(m.Rectangles), want))
		}

		tags := make([]satelliteTag, 0, want)
		tags = append(tags, satelliteTag{rect: m.Rectangles[0]})
		cursor := 1
		for _, dir := range cardinals {
			for range sk.Satellites[dir] {
				tags = append(tags, satelliteTag{rect: m.Rectangles[cursor], dir: dir, sat: true})
				cursor++
			}
		}

		var area float64
		for _, tg := range tags {
			everything = append(everything, tg.rect)
			area += tg.rect.Area()
			if tg.rect.AspectRatio() > maxRatio+1e-6 {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("module %s rectangle %v has aspect %g, exceeds max_ratio %g", m.Name, tg.rect, tg.rect.AspectRatio(), maxRatio))
			}
			ll, ur := tg.rect.BoundingBox()
			if ll.X < -tol || ll.Y < -tol || ur.X > dieW+tol || ur.Y > dieH+tol {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("module %s rectangle %v leaves the %gx%g die", m.Name, tg.rect, dieW, dieH))
			}
		}
		if area < m.Area()-1e-6 {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s rectangles sum to area %g, below target %g", m.Name, area, m.Area()))
		}

		if result := checkAttachment(m.Name, tags, tol); !result.Satisfied {
			return result
		}
		if result := checkOrdering(m.Name, tags, tol); !result.Satisfied {
			return result
		}
	}

	for i := 0; i < len(everything); i++ {
		for j := i + 1; j < len(everything); j++ {
			if everything[i].AreaOverlap(everything[j]) > tol*tol {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("legalized rectangles %d and %d overlap", i, j))
			}
		}
	}

	return NewHardConstraintResult(kind, exprStr, true,
		"every legalized rectangle satisfies containment, non-overlap, area, aspect, attachment, and ordering")
}

func checkAttachment(module string, tags []satelliteTag, tol float64) ConstraintResult {
	const kind = "LegalizerFeasibility"
	const exprStr = "die-containment ∧ non-overlap ∧ area >= target ∧ aspect <= max_ratio ∧ attachment ∧ ordering"

	trunk := tags[0].rect
	for _, tg := range tags[1:] {
		if !tg.sat {
			continue
		}
		sat := tg.rect
		var wantFixed, gotFixed, lo, hi, gotRange float64
		switch tg.dir {
		case netlist.North:
			wantFixed = trunk.Center.Y + trunk.Shape.H/2 + sat.Shape.H/2
			gotFixed = sat.Center.Y
			lo, hi = trunk.Center.X-trunk.Shape.W/2+sat.Shape.W/2, trunk.Center.X+trunk.Shape.W/2-sat.Shape.W/2
			gotRange = sat.Center.X
		case netlist.South:
			wantFixed = trunk.Center.Y - trunk.Shape.H/2 - sat.Shape.H/2
			gotFixed = sat.Center.Y
			lo, hi = trunk.Center.X-trunk.Shape.W/2+sat.Shape.W/2, trunk.Center.X+trunk.Shape.W/2-sat.Shape.W/2
			gotRange = sat.Center.X
		case netlist.East:
			wantFixed = trunk.Center.X + trunk.Shape.W/2 + sat.Shape.W/2
			gotFixed = sat.Center.X
			lo, hi = trunk.Center.Y-trunk.Shape.H/2+sat.Shape.H/2, trunk.Center.Y+trunk.Shape.H/2-sat.Shape.H/2
			gotRange = sat.Center.Y
		case netlist.West:
			wantFixed = trunk.Center.X - trunk.Shape.W/2 - sat.Shape.W/2
			gotFixed = sat.Center.X
			lo, hi = trunk.Center.Y-trunk.Shape.H/2+sat.Shape.H/2, trunk.Center.Y+trunk.Shape.H/2-sat.Shape.H/2
			gotRange = sat.Center.Y
		}
		if math.Abs(gotFixed-wantFixed) > tol {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s: %s satellite attachment coordinate is %g, want %g", module, tg.dir, gotFixed, wantFixed))
		}
		if gotRange < lo-tol || gotRange > hi+tol {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s: %s satellite is outside its trunk-edge range [%g, %g]", module, tg.dir, lo, hi))
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, "attachment equalities hold")
}

func checkOrdering(module string, tags []satelliteTag, tol float64) ConstraintResult {
	const kind = "LegalizerFeasibility"
	const exprStr = "die-containment ∧ non-overlap ∧ area >= target ∧ aspect <= max_ratio ∧ attachment ∧ ordering"

	for _, dir := range cardinals {
		var sats []geometry.Rectangle
		for _, tg := range tags {
			if tg.sat && tg.dir == dir {
				sats = append(sats, tg.rect)
			}
		}
		coord := func(r geometry.Rectangle) (c, size float64) {
			if dir == netlist.North || dir == netlist.South {
				return r.Center.X, r.Shape.W
			}
			return r.Center.Y, r.Shape.H
		}
		sort.Slice(sats, func(i, j int) bool {
			ci, _ := coord(sats[i])
			cj, _ := coord(sats[j])
			return ci < cj
		})
		for i := 0; i+1 < len(sats); i++ {
			ci, si := coord(sats[i])
			cj, sj := coord(sats[i+1])
			if ci+si/2 > cj-sj/2+tol {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("module %s: %s satellites %d and %d overlap along the free axis", module, dir, i, i+1))
			}
		}
	}
	return NewHardConstraintResult(kind, exprStr, true, "intra-module ordering holds")
}

// CheckIdempotence verifies P9: running the floorplanner's optimize pass
// a second time on its own output leaves every module's centroid and
// every cell's occupancy within eps of the first pass.
func CheckIdempotence(n *netlist.Netlist, alloc *allocation.Allocation, cfg floorplan.Config, eps float64) ConstraintResult {
	const kind = "Idempotence"
	const exprStr = "optimize(optimize(A)) within eps of optimize(A) (centroids and occupancies)"

	before, _, err := floorplan.OptimizeAllocation(n, alloc, cfg.Alpha, cfg.Backend)
	if err != nil {
		return NewHardConstraintResult(kind, exprStr, false, fmt.Sprintf("first optimize pass failed: %v", err))
	}
	beforeCenters := make(map[string]geometry.Point, len(n.Order))
	for _, m := range n.OrderedModules() {
		if m.Center != nil {
			beforeCenters[m.Name] = *m.Center
		}
	}

	after, _, err := floorplan.OptimizeAllocation(n, before, cfg.Alpha, cfg.Backend)
	if err != nil {
		return NewHardConstraintResult(kind, exprStr, false, fmt.Sprintf("second optimize pass failed: %v", err))
	}

	for _, m := range n.OrderedModules() {
		bc, ok := beforeCenters[m.Name]
		if !ok || m.Center == nil {
			continue
		}
		if math.Abs(bc.X-m.Center.X) > eps || math.Abs(bc.Y-m.Center.Y) > eps {
			return NewHardConstraintResult(kind, exprStr, false,
				fmt.Sprintf("module %s centroid moved from %v to %v, exceeds eps=%g", m.Name, bc, *m.Center, eps))
		}
	}

	for i := range before.Cells {
		for name, occ := range before.Cells[i].Occupancy {
			if diff := occ - after.Cells[i].Occupancy[name]; diff > eps || diff < -eps {
				return NewHardConstraintResult(kind, exprStr, false,
					fmt.Sprintf("cell %d module %s occupancy moved from %g to %g, exceeds eps=%g", i, name, occ, after.Cells[i].Occupancy[name], eps))
			}
		}
	}

	return NewHardConstraintResult(kind, exprStr, true, fmt.Sprintf("a second optimize pass stayed within eps=%g of the first", eps))
}
