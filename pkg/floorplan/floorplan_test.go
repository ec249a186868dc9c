package floorplan

import (
	"math"
	"testing"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/solver"
)

func twoModuleNetlist(t *testing.T, area float64, weight float64) *netlist.Netlist {
	t.Helper()
	n := netlist.NewNetlist()
	a, err := netlist.NewModule("A", area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := netlist.NewModule("B", area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edge, err := netlist.NewHyperEdge([]string{"A", "B"}, weight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddHyperEdge(edge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return n
}

// TestGlbFloorProducesAFullyCoveredAllocation exercises scenario 3's
// setup (two equal-area modules joined by one edge) end to end: GlbFloor
// must return an allocation that still tiles the die exactly and
// reports a dispersion entry for every module, regardless of where the
// nonlinear solve converges.
func TestGlbFloorProducesAFullyCoveredAllocation(t *testing.T) {
	n := twoModuleNetlist(t, 16, 1)
	cfg := Config{Alpha: 1, Threshold: 0.95, MaxIter: 2, Backend: &solver.GonumBackend{PenaltyWeight: 1e5}}
	alloc, dispersions, err := GlbFloor(n, 8, 8, 2, 2, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alloc == nil {
		t.Fatal("GlbFloor returned nil allocation")
	}

	var total float64
	for _, c := range alloc.Cells {
		total += c.Rect.Area()
	}
	if math.Abs(total-64) > 1e-6 {
		t.Errorf("allocation covers area %v, want 64", total)
	}
	if _, ok := dispersions["A"]; !ok {
		t.Error("expected a dispersion entry for module A")
	}
	if _, ok := dispersions["B"]; !ok {
		t.Error("expected a dispersion entry for module B")
	}
	if n.Modules["A"].Center == nil || n.Modules["B"].Center == nil {
		t.Error("expected both module centers to be set after GlbFloor")
	}
}

// TestMustBeRefinedTriggersOnBandedOccupancy exercises scenario 5: a 2x2
// allocation with one cell at occupancy 0.5 for a module and threshold
// 0.95 must report MustBeRefined true, and refining it must produce four
// cells at depth 1 in place of that one.
func TestMustBeRefinedTriggersOnBandedOccupancy(t *testing.T) {
	n := netlist.NewNetlist()
	m, err := netlist.NewModule("M", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := CreateInitialAllocation(n, 4, 4, 2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	alloc.Cells[0].Occupancy["M"] = 0.5

	if !alloc.MustBeRefined(0.95) {
		t.Fatal("expected MustBeRefined(0.95) to be true with a 0.5 occupancy cell")
	}

	refined, err := alloc.Refine(0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refined.Cells) != len(alloc.Cells)-1+4 {
		t.Errorf("Refine() produced %d cells, want %d", len(refined.Cells), len(alloc.Cells)-1+4)
	}
	childDepths := 0
	for _, c := range refined.Cells {
		if c.Depth == 1 {
			childDepths++
		}
	}
	if childDepths != 4 {
		t.Errorf("expected 4 cells at depth 1, got %d", childDepths)
	}
}

func TestCreateInitialAllocationCoversDie(t *testing.T) {
	n := netlist.NewNetlist()
	m, err := netlist.NewModule("M", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := CreateInitialAllocation(n, 6, 4, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var total float64
	for _, c := range alloc.Cells {
		total += c.Rect.Area()
	}
	if math.Abs(total-24) > 1e-9 {
		t.Errorf("grid area = %v, want 24", total)
	}
}

// TestCreateInitialAllocationWithSplitExtendsCellCount checks that the
// -r/-n grid-polishing path (geometry.SplitUntil applied to the -g grid)
// both respects the die's total area and produces at least the requested
// number of cells.
func TestCreateInitialAllocationWithSplitExtendsCellCount(t *testing.T) {
	n := netlist.NewNetlist()
	m, err := netlist.NewModule("M", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alloc, err := CreateInitialAllocationWithSplit(n, 6, 4, 1, 1, 1.5, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alloc.Cells) < 6 {
		t.Errorf("got %d cells, want at least 6", len(alloc.Cells))
	}

	var total float64
	for _, c := range alloc.Cells {
		total += c.Rect.Area()
	}
	if math.Abs(total-24) > 1e-9 {
		t.Errorf("grid area = %v, want 24", total)
	}
}

func TestPreplaceKeepsFixedModuleStationary(t *testing.T) {
	n := netlist.NewNetlist()
	fixed, err := netlist.NewModule("fixed", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fixedCenter := geometry.PointFromPair(3, 3)
	fixed.Center = &fixedCenter
	fixed.Fixed = true
	fixed.Hard = true
	if err := n.AddModule(fixed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	soft, err := netlist.NewModule("soft", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddModule(soft); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	edge, err := netlist.NewHyperEdge([]string{"fixed", "soft"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.AddHyperEdge(edge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := Preplace(n, 10, 10, DefaultPreplaceConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := n.Modules["fixed"].Center
	if got.X != 3 || got.Y != 3 {
		t.Errorf("fixed module moved to %v, want (3, 3)", *got)
	}
}

// TestPreplaceScattersUninitializedModules checks that modules with no
// preset Center don't all start at the same point, which would leave the
// repulsion force between them permanently zero.
func TestPreplaceScattersUninitializedModules(t *testing.T) {
	n := netlist.NewNetlist()
	for _, name := range []string{"A", "B", "C"} {
		m, err := netlist.NewModule(name, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := n.AddModule(m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cfg := DefaultPreplaceConfig()
	cfg.MaxIterations = 1
	if err := Preplace(n, 20, 20, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, b := n.Modules["A"].Center, n.Modules["B"].Center
	if a.X == b.X && a.Y == b.Y {
		t.Errorf("modules A and B ended up coincident at %v", *a)
	}
}

// TestPreplaceIsDeterministicForTheSameSeed checks that two runs with the
// same seed and iteration budget scatter modules identically.
func TestPreplaceIsDeterministicForTheSameSeed(t *testing.T) {
	build := func(t *testing.T) *netlist.Netlist {
		t.Helper()
		n := netlist.NewNetlist()
		for _, name := range []string{"A", "B"} {
			m, err := netlist.NewModule(name, 4)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := n.AddModule(m); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		return n
	}

	cfg := DefaultPreplaceConfig()
	n1, n2 := build(t), build(t)
	if err := Preplace(n1, 20, 20, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Preplace(n2, 20, 20, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"A", "B"} {
		c1, c2 := n1.Modules[name].Center, n2.Modules[name].Center
		if c1.X != c2.X || c1.Y != c2.Y {
			t.Errorf("module %s diverged across identically-seeded runs: %v vs %v", name, *c1, *c2)
		}
	}
}
