package netlist

import "fmt"

// HyperEdge connects a set of distinct modules (size >= 2) with a positive
// real weight used by the floorplanner's wire-length objective.
type HyperEdge struct {
	Modules []string
	Weight  float64
}

// NewHyperEdge validates and returns a HyperEdge.
func NewHyperEdge(modules []string, weight float64) (HyperEdge, error) {
	if len(modules) < 2 {
		return HyperEdge{}, fmt.Errorf("netlist: hyperedge must reference at least 2 modules, got %d", len(modules))
	}
	if weight <= 0 {
		return HyperEdge{}, fmt.Errorf("netlist: hyperedge weight must be positive, got %g", weight)
	}
	seen := make(map[string]bool, len(modules))
	for _, name := range modules {
		if seen[name] {
			return HyperEdge{}, fmt.Errorf("netlist: hyperedge references module %s more than once", name)
		}
		seen[name] = true
	}
	cp := make([]string, len(modules))
	copy(cp, modules)
	return HyperEdge{Modules: cp, Weight: weight}, nil
}
