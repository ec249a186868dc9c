package netlist

import "fmt"

// Netlist is the complete container of modules and the hyperedges
// connecting them.
type Netlist struct {
	Modules    map[string]*Module
	Order      []string // insertion order, for deterministic iteration
	HyperEdges []HyperEdge
}

// NewNetlist creates an empty netlist.
func NewNetlist() *Netlist {
	return &Netlist{
		Modules: make(map[string]*Module),
	}
}

// AddModule validates and adds a module to the netlist.
func (n *Netlist) AddModule(m *Module) error {
	if m == nil {
		return fmt.Errorf("netlist: cannot add nil module")
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("netlist: module validation failed: %w", err)
	}
	if _, exists := n.Modules[m.Name]; exists {
		return fmt.Errorf("netlist: module %s already exists", m.Name)
	}
	n.Modules[m.Name] = m
	n.Order = append(n.Order, m.Name)
	return nil
}

// AddHyperEdge validates that every referenced module exists and has no
// self-loop, then appends the hyperedge.
func (n *Netlist) AddHyperEdge(e HyperEdge) error {
	if len(e.Modules) < 2 {
		return fmt.Errorf("netlist: hyperedge must reference at least 2 modules, got %d", len(e.Modules))
	}
	if e.Weight <= 0 {
		return fmt.Errorf("netlist: hyperedge weight must be positive, got %g", e.Weight)
	}
	seen := make(map[string]bool, len(e.Modules))
	for _, name := range e.Modules {
		if _, exists := n.Modules[name]; !exists {
			return fmt.Errorf("netlist: hyperedge references unknown module %s", name)
		}
		if seen[name] {
			return fmt.Errorf("netlist: hyperedge references module %s more than once", name)
		}
		seen[name] = true
	}
	n.HyperEdges = append(n.HyperEdges, e)
	return nil
}

// OrderedModules returns the netlist's modules in insertion order.
func (n *Netlist) OrderedModules() []*Module {
	mods := make([]*Module, 0, len(n.Order))
	for _, name := range n.Order {
		mods = append(mods, n.Modules[name])
	}
	return mods
}

// TotalGroundArea returns the sum of every module's ground-region area.
func (n *Netlist) TotalGroundArea() float64 {
	var total float64
	for _, name := range n.Order {
		total += n.Modules[name].GroundArea()
	}
	return total
}
