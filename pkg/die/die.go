// Package die implements the die decomposer (C3): given a die outline and
// its reserved regions, blockages, and fixed rectangles, it computes the
// maximal non-overlapping rectangles tiling the remaining free ("ground")
// area.
package die

import (
	"fmt"

	"github.com/dshills/frameflow/pkg/geometry"
)

// Die is a rectangular die annotated with reserved regions, blockages, and
// fixed rectangles (from the netlist's fixed modules), plus the derived
// maximal ground rectangles that tile whatever area remains.
type Die struct {
	Width, Height float64
	Regions       []geometry.Rectangle
	Blockages     []geometry.Rectangle
	Fixed         []geometry.Rectangle
	GroundRegions []geometry.Rectangle

	epsilon float64
}

// NewDie builds a die from its outline and occupied rectangles (regions,
// blockages, fixed), validating that all of them lie within the die and
// that none overlap, then eagerly computes the maximal ground rectangles.
// The decomposition is immutable thereafter.
func NewDie(width, height float64, regions, blockages, fixed []geometry.Rectangle) (*Die, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("die: width and height must be positive, got w=%g h=%g", width, height)
	}
	d := &Die{
		Width: width, Height: height,
		Regions: regions, Blockages: blockages, Fixed: fixed,
		epsilon: min(width, height) * 1e-11,
	}
	if err := d.validateOccupied(); err != nil {
		return nil, err
	}
	d.decompose()
	if err := d.checkInvariants(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Die) validateOccupied() error {
	dieRect := geometry.NewRectangle(
		geometry.Point{X: d.Width / 2, Y: d.Height / 2},
		geometry.Shape{W: d.Width, H: d.Height},
	)
	all := d.occupiedRectangles()
	for i, r := range all {
		ll, ur := r.BoundingBox()
		if !dieRect.PointInside(ll) || !dieRect.PointInside(ur) {
			return fmt.Errorf("die: rectangle %d (%v) lies outside the die", i, r)
		}
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].AreaOverlap(all[j]) > d.epsilon {
				return fmt.Errorf("die: rectangles %d and %d overlap", i, j)
			}
		}
	}
	return nil
}

func (d *Die) occupiedRectangles() []geometry.Rectangle {
	all := make([]geometry.Rectangle, 0, len(d.Regions)+len(d.Blockages)+len(d.Fixed))
	all = append(all, d.Regions...)
	all = append(all, d.Blockages...)
	all = append(all, d.Fixed...)
	return all
}

// AllocationRectangles returns the two lists of rectangles usable for
// module allocation: the first is refinable during allocation (tagged
// regions plus ground), the second holds fixed-module rectangles.
func (d *Die) AllocationRectangles() (refinable, fixed []geometry.Rectangle) {
	refinable = make([]geometry.Rectangle, 0, len(d.Regions)+len(d.GroundRegions))
	refinable = append(refinable, d.Regions...)
	refinable = append(refinable, d.GroundRegions...)
	return refinable, d.Fixed
}

// checkInvariants verifies that every rectangle (regions, ground regions,
// blockages, fixed) lies inside the die, that none overlap, and that their
// total area equals the die's area.
func (d *Die) checkInvariants() error {
	all := d.occupiedRectangles()
	all = append(all, d.GroundRegions...)

	dieRect := geometry.NewRectangle(
		geometry.Point{X: d.Width / 2, Y: d.Height / 2},
		geometry.Shape{W: d.Width, H: d.Height},
	)
	for i, r := range all {
		ll, ur := r.BoundingBox()
		if !dieRect.PointInside(ll) || !dieRect.PointInside(ur) {
			return fmt.Errorf("die: decomposed rectangle %d (%v) lies outside the die", i, r)
		}
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].AreaOverlap(all[j]) > d.epsilon {
				return fmt.Errorf("die: decomposed rectangles %d and %d overlap", i, j)
			}
		}
	}
	var total float64
	for _, r := range all {
		total += r.Area()
	}
	dieArea := d.Width * d.Height
	tolerance := 1e-6 * dieArea
	if diff := total - dieArea; diff > tolerance || diff < -tolerance {
		return fmt.Errorf("die: decomposed rectangle areas sum to %g, want %g", total, dieArea)
	}
	return nil
}
