package geometry

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestShapeAspectRatio(t *testing.T) {
	s, err := NewShape(4, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.AspectRatio(); !almostEqual(got, 2) {
		t.Errorf("AspectRatio() = %v, want 2", got)
	}
	s2, _ := NewShape(2, 4)
	if got := s2.AspectRatio(); !almostEqual(got, 2) {
		t.Errorf("AspectRatio() = %v, want 2", got)
	}
}

func TestNewShapeRejectsNonPositive(t *testing.T) {
	cases := [][2]float64{{0, 1}, {1, 0}, {-1, 1}, {1, -1}}
	for _, c := range cases {
		if _, err := NewShape(c[0], c[1]); err == nil {
			t.Errorf("NewShape(%v, %v) expected error, got nil", c[0], c[1])
		}
	}
}

func TestRectangleBoundingBox(t *testing.T) {
	r := NewRectangle(Point{X: 5, Y: 5}, Shape{W: 4, H: 2})
	ll, ur := r.BoundingBox()
	if !almostEqual(ll.X, 3) || !almostEqual(ll.Y, 4) {
		t.Errorf("lower-left = %v, want (3,4)", ll)
	}
	if !almostEqual(ur.X, 7) || !almostEqual(ur.Y, 6) {
		t.Errorf("upper-right = %v, want (7,6)", ur)
	}
}

func TestRectanglePointInside(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 2, H: 2})
	if !r.PointInside(Point{X: 1, Y: 1}) {
		t.Error("boundary point should be inside")
	}
	if r.PointInside(Point{X: 1.01, Y: 0}) {
		t.Error("point just outside should not be inside")
	}
}

func TestRectangleAreaOverlapDisjoint(t *testing.T) {
	a := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 2, H: 2})
	b := NewRectangle(Point{X: 10, Y: 10}, Shape{W: 2, H: 2})
	if got := a.AreaOverlap(b); got != 0 {
		t.Errorf("AreaOverlap() = %v, want 0", got)
	}
}

func TestRectangleAreaOverlapTouchingEdge(t *testing.T) {
	a := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 2, H: 2})
	b := NewRectangle(Point{X: 2, Y: 0}, Shape{W: 2, H: 2})
	if got := a.AreaOverlap(b); got != 0 {
		t.Errorf("AreaOverlap() for edge-touching rectangles = %v, want 0", got)
	}
}

func TestRectangleAreaOverlapPartial(t *testing.T) {
	a := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 4, H: 4})
	b := NewRectangle(Point{X: 3, Y: 0}, Shape{W: 4, H: 4})
	if got := a.AreaOverlap(b); !almostEqual(got, 4) {
		t.Errorf("AreaOverlap() = %v, want 4", got)
	}
}

func TestRectangleIntersectDifferentRegions(t *testing.T) {
	a := Rectangle{Center: Point{X: 0, Y: 0}, Shape: Shape{W: 4, H: 4}, Region: Ground}
	b := Rectangle{Center: Point{X: 0, Y: 0}, Shape: Shape{W: 2, H: 2}, Region: Blockage}
	if _, ok := a.Intersect(b); ok {
		t.Error("Intersect() across different regions should fail")
	}
}

func TestRectangleSplitHorizontalConservesArea(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 6, H: 4})
	left, right, err := r.SplitHorizontal(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(left.Area()+right.Area(), r.Area()) {
		t.Errorf("split areas %v + %v != original %v", left.Area(), right.Area(), r.Area())
	}
	if left.AreaOverlap(right) != 0 {
		t.Error("split pieces should not overlap")
	}
}

func TestRectangleSplitHorizontalRejectsOutOfRangeCut(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 6, H: 4})
	if _, _, err := r.SplitHorizontal(10); err == nil {
		t.Error("expected error for cut outside rectangle")
	}
	if _, _, err := r.SplitHorizontal(-3); err == nil {
		t.Error("expected error for cut on the boundary")
	}
}

func TestRectangleSplitChoosesLongerSide(t *testing.T) {
	wide := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 10, H: 2})
	a, b, err := wide.Split()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(a.Shape.H, 2) || !almostEqual(b.Shape.H, 2) {
		t.Error("splitting a wide rectangle should cut vertically, preserving height")
	}

	tall := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 2, H: 10})
	a, b, err = tall.Split()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(a.Shape.W, 2) || !almostEqual(b.Shape.W, 2) {
		t.Error("splitting a tall rectangle should cut horizontally, preserving width")
	}
}

func TestGridPartitionsExactly(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 12, H: 8})
	cells, err := r.Grid(4, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cells) != 12 {
		t.Fatalf("expected 12 cells, got %d", len(cells))
	}
	var total float64
	for i, c := range cells {
		total += c.Area()
		for j, other := range cells {
			if i != j && c.AreaOverlap(other) > 1e-9 {
				t.Errorf("cell %d overlaps cell %d", i, j)
			}
		}
	}
	if !almostEqual(total, r.Area()) {
		t.Errorf("grid cell areas sum to %v, want %v", total, r.Area())
	}
}

func TestGridRejectsNonPositiveDimensions(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 12, H: 8})
	if _, err := r.Grid(0, 3); err == nil {
		t.Error("expected error for zero rows")
	}
	if _, err := r.Grid(3, -1); err == nil {
		t.Error("expected error for negative cols")
	}
}

func TestGatherBoundariesDedupsAndSorts(t *testing.T) {
	rects := []Rectangle{
		NewRectangle(Point{X: 1, Y: 1}, Shape{W: 2, H: 2}),
		NewRectangle(Point{X: 3, Y: 1}, Shape{W: 2, H: 2}),
	}
	xs, ys := GatherBoundaries(rects, 1e-9)
	wantXs := []float64{0, 2, 4}
	if len(xs) != len(wantXs) {
		t.Fatalf("xs = %v, want %v", xs, wantXs)
	}
	for i := range wantXs {
		if !almostEqual(xs[i], wantXs[i]) {
			t.Errorf("xs[%d] = %v, want %v", i, xs[i], wantXs[i])
		}
	}
	wantYs := []float64{0, 2}
	if len(ys) != len(wantYs) {
		t.Fatalf("ys = %v, want %v", ys, wantYs)
	}
}

func TestSplitUntilRespectsMaxAspect(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 32, H: 2})
	leaves := SplitUntil([]Rectangle{r}, 1.5, 0)
	var total float64
	for _, leaf := range leaves {
		if leaf.AspectRatio() > 1.5+1e-9 {
			t.Errorf("leaf aspect ratio %v exceeds bound", leaf.AspectRatio())
		}
		total += leaf.Area()
	}
	if !almostEqual(total, r.Area()) {
		t.Errorf("leaf areas sum to %v, want %v", total, r.Area())
	}
}

func TestSplitUntilExtendsToAtLeastN(t *testing.T) {
	r := NewRectangle(Point{X: 0, Y: 0}, Shape{W: 4, H: 4})
	leaves := SplitUntil([]Rectangle{r}, 1.5, 5)
	if len(leaves) < 5 {
		t.Fatalf("got %d leaves, want at least 5", len(leaves))
	}
	var total float64
	for _, leaf := range leaves {
		total += leaf.Area()
	}
	if !almostEqual(total, r.Area()) {
		t.Errorf("leaf areas sum to %v, want %v", total, r.Area())
	}
}

// TestProperty_AreaOverlapSymmetric checks that overlap area does not depend
// on argument order, for arbitrary axis-aligned rectangles.
func TestProperty_AreaOverlapSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genRectangle(t, "a")
		b := genRectangle(t, "b")
		if !almostEqual(a.AreaOverlap(b), b.AreaOverlap(a)) {
			t.Fatalf("AreaOverlap not symmetric: %v vs %v", a.AreaOverlap(b), b.AreaOverlap(a))
		}
	})
}

// TestProperty_SplitConservesArea checks that splitting any rectangle at an
// interior cut preserves total area and produces non-overlapping pieces.
func TestProperty_SplitConservesArea(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := genRectangle(t, "r")
		a, b, err := r.Split()
		if err != nil {
			t.Fatalf("Split() failed on %v: %v", r, err)
		}
		if !almostEqual(a.Area()+b.Area(), r.Area()) {
			t.Fatalf("split areas %v + %v != %v", a.Area(), b.Area(), r.Area())
		}
		if a.AreaOverlap(b) > 1e-6 {
			t.Fatalf("split pieces overlap: %v", a.AreaOverlap(b))
		}
	})
}

// TestProperty_GridConservesArea checks that tiling any rectangle into an
// n x m grid conserves total area regardless of grid dimensions.
func TestProperty_GridConservesArea(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := genRectangle(t, "r")
		nrows := rapid.IntRange(1, 6).Draw(t, "nrows")
		ncols := rapid.IntRange(1, 6).Draw(t, "ncols")
		cells, err := r.Grid(nrows, ncols)
		if err != nil {
			t.Fatalf("Grid() failed: %v", err)
		}
		var total float64
		for _, c := range cells {
			total += c.Area()
		}
		if math.Abs(total-r.Area()) > 1e-6 {
			t.Fatalf("grid areas sum to %v, want %v", total, r.Area())
		}
	})
}

func genRectangle(t *rapid.T, label string) Rectangle {
	w := rapid.Float64Range(0.1, 100).Draw(t, label+"_w")
	h := rapid.Float64Range(0.1, 100).Draw(t, label+"_h")
	cx := rapid.Float64Range(-50, 50).Draw(t, label+"_cx")
	cy := rapid.Float64Range(-50, 50).Draw(t, label+"_cy")
	return NewRectangle(Point{X: cx, Y: cy}, Shape{W: w, H: h})
}
