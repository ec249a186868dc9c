package validation

import (
	"fmt"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/floorplan"
	"github.com/dshills/frameflow/pkg/netlist"
)

// Inputs bundles whichever artifacts are available to validate; a zero
// field skips the checks that need it, so a caller can validate just a
// die, just an allocation, or a complete pipeline's output.
type Inputs struct {
	Die *die.Die

	Netlist    *netlist.Netlist
	Allocation *allocation.Allocation
	// RefineThreshold, if positive, runs CheckRefinementSubdivision at
	// that threshold.
	RefineThreshold float64

	// Skeletons, DieW, DieH, and MaxRatio (if MaxRatio > 1) run
	// CheckLegalizerFeasibility.
	Skeletons map[string]*netlist.Skeleton
	DieW      float64
	DieH      float64
	MaxRatio  float64

	// IdempotenceConfig and IdempotenceEps (if positive) run
	// CheckIdempotence.
	IdempotenceConfig floorplan.Config
	IdempotenceEps    float64
}

// Validate runs every check whose Inputs are present and assembles the
// results into one Report.
func Validate(in Inputs) (*Report, error) {
	report := NewReport()
	ran := false

	if in.Die != nil {
		report.Add(CheckDieCoverage(in.Die))
		report.Add(CheckDieNonOverlap(in.Die))
		report.Add(CheckGroundMaximality(in.Die))
		ran = true
	}

	if in.Netlist != nil && in.Allocation != nil {
		report.Add(CheckAllocationAreaConservation(in.Netlist, in.Allocation))
		report.Add(CheckAllocationCellBound(in.Allocation))
		ran = true
		if in.RefineThreshold > 0 {
			report.Add(CheckRefinementSubdivision(in.Allocation, in.RefineThreshold))
		}
		if in.IdempotenceEps > 0 {
			report.Add(CheckIdempotence(in.Netlist, in.Allocation, in.IdempotenceConfig, in.IdempotenceEps))
		}
	}

	if in.Netlist != nil && in.Skeletons != nil && in.DieW > 0 && in.DieH > 0 && in.MaxRatio > 1 {
		report.Add(CheckLegalizerFeasibility(in.Netlist, in.Skeletons, in.DieW, in.DieH, in.MaxRatio))
		ran = true
	}

	if !ran {
		return nil, fmt.Errorf("validation: no inputs provided")
	}
	return report, nil
}
