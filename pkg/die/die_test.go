package die

import (
	"math"
	"testing"

	"github.com/dshills/frameflow/pkg/geometry"
	"pgregory.net/rapid"
)

func TestNewDieRejectsNonPositiveDimensions(t *testing.T) {
	if _, err := NewDie(0, 10, nil, nil, nil); err == nil {
		t.Fatal("expected error for zero width")
	}
	if _, err := NewDie(10, -5, nil, nil, nil); err == nil {
		t.Fatal("expected error for negative height")
	}
}

func TestNewDieEmptyProducesSingleGroundRegion(t *testing.T) {
	d, err := NewDie(10, 10, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.GroundRegions) != 1 {
		t.Fatalf("expected 1 ground region for an empty die, got %d", len(d.GroundRegions))
	}
	if got := d.GroundRegions[0].Area(); math.Abs(got-100) > 1e-9 {
		t.Errorf("ground region area = %v, want 100", got)
	}
}

func TestNewDieRejectsOutOfBoundsRegion(t *testing.T) {
	outside := geometry.NewRectangle(geometry.Point{X: 20, Y: 20}, geometry.Shape{W: 4, H: 4})
	if _, err := NewDie(10, 10, []geometry.Rectangle{outside}, nil, nil); err == nil {
		t.Fatal("expected error for region outside the die")
	}
}

func TestNewDieRejectsOverlappingRegions(t *testing.T) {
	a := geometry.NewRectangle(geometry.Point{X: 2, Y: 2}, geometry.Shape{W: 4, H: 4})
	b := geometry.NewRectangle(geometry.Point{X: 3, Y: 3}, geometry.Shape{W: 4, H: 4})
	if _, err := NewDie(10, 10, []geometry.Rectangle{a, b}, nil, nil); err == nil {
		t.Fatal("expected error for overlapping regions")
	}
}

func TestNewDieWithCenteredBlockageProducesFourGroundRegions(t *testing.T) {
	blockage := geometry.NewRectangle(geometry.Point{X: 5, Y: 5}, geometry.Shape{W: 2, H: 2})
	blockage.Region = geometry.Blockage
	d, err := NewDie(10, 10, nil, []geometry.Rectangle{blockage}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.GroundRegions) != 4 {
		t.Fatalf("expected 4 ground regions, got %d", len(d.GroundRegions))
	}
	var groundArea float64
	for _, r := range d.GroundRegions {
		groundArea += r.Area()
	}
	want := 100 - blockage.Area()
	if math.Abs(groundArea-want) > 1e-6 {
		t.Errorf("ground area = %v, want %v", groundArea, want)
	}
}

func TestAllocationRectanglesSeparatesFixedFromRefinable(t *testing.T) {
	fixed := geometry.NewRectangle(geometry.Point{X: 2, Y: 2}, geometry.Shape{W: 2, H: 2})
	fixed.Fixed = true
	d, err := NewDie(10, 10, nil, nil, []geometry.Rectangle{fixed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	refinable, fixedOut := d.AllocationRectangles()
	if len(fixedOut) != 1 {
		t.Fatalf("expected 1 fixed rectangle, got %d", len(fixedOut))
	}
	if len(refinable) == 0 {
		t.Fatal("expected at least one refinable rectangle")
	}
}

// TestProperty_DieCoverage verifies invariant P1: for an arbitrary die with
// a single non-overlapping centered blockage, the ground regions plus the
// blockage exactly cover the die area with no overlaps.
func TestProperty_DieCoverage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.Float64Range(5, 50).Draw(t, "width")
		height := rapid.Float64Range(5, 50).Draw(t, "height")
		bw := rapid.Float64Range(1, width/3).Draw(t, "bw")
		bh := rapid.Float64Range(1, height/3).Draw(t, "bh")
		bx := rapid.Float64Range(bw/2+0.1, width-bw/2-0.1).Draw(t, "bx")
		by := rapid.Float64Range(bh/2+0.1, height-bh/2-0.1).Draw(t, "by")

		blockage := geometry.NewRectangle(geometry.Point{X: bx, Y: by}, geometry.Shape{W: bw, H: bh})
		blockage.Region = geometry.Blockage

		d, err := NewDie(width, height, nil, []geometry.Rectangle{blockage}, nil)
		if err != nil {
			t.Fatalf("unexpected error building die: %v", err)
		}

		var total float64
		all := append([]geometry.Rectangle{blockage}, d.GroundRegions...)
		for i, r := range all {
			total += r.Area()
			for j := i + 1; j < len(all); j++ {
				if all[i].AreaOverlap(all[j]) > 1e-6 {
					t.Fatalf("rectangles %d and %d overlap", i, j)
				}
			}
		}
		want := width * height
		if diff := total - want; diff > 1e-4*want || diff < -1e-4*want {
			t.Fatalf("total area = %v, want %v", total, want)
		}
	})
}
