// Package netlist implements the module and hyperedge model that the die
// decomposer, allocator, and legalizer all place: named modules with
// per-region area, optional fixed centers and pre-placed rectangles, and
// the weighted hyperedges connecting them.
package netlist

import (
	"fmt"

	"github.com/dshills/frameflow/pkg/geometry"
)

// Module is a logical unit to be placed; it may be soft (flexible shape),
// hard (fixed shape, free to translate), or fixed (fixed shape and
// position).
type Module struct {
	Name          string
	AreaPerRegion map[geometry.Tag]float64
	Center        *geometry.Point // nil means unset
	MinShape      *geometry.Shape // nil means unset
	Fixed         bool
	Hard          bool
	Rectangles    []geometry.Rectangle
}

// NewModule builds a soft module with the given ground area. Center,
// MinShape, Fixed, Hard and Rectangles are set directly on the returned
// module; Netlist.AddModule then validates it.
func NewModule(name string, groundArea float64) (*Module, error) {
	if name == "" {
		return nil, fmt.Errorf("netlist: module name cannot be empty")
	}
	if groundArea <= 0 {
		return nil, fmt.Errorf("netlist: module %s: ground area must be positive, got %g", name, groundArea)
	}
	return &Module{
		Name:          name,
		AreaPerRegion: map[geometry.Tag]float64{geometry.Ground: groundArea},
	}, nil
}

// Area returns the module's total area, summed across all tagged regions.
func (m *Module) Area() float64 {
	var total float64
	for _, a := range m.AreaPerRegion {
		total += a
	}
	return total
}

// GroundArea returns the module's area in the GROUND region.
func (m *Module) GroundArea() float64 {
	return m.AreaPerRegion[geometry.Ground]
}

// Validate checks the module's invariants: a fixed or hard module must
// supply explicit rectangles whose total area equals the module's area;
// fixed implies hard.
func (m *Module) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("netlist: module name cannot be empty")
	}
	if m.Fixed && !m.Hard {
		return fmt.Errorf("netlist: module %s: fixed implies hard", m.Name)
	}
	for tag, area := range m.AreaPerRegion {
		if area <= 0 {
			return fmt.Errorf("netlist: module %s: area for region %s must be positive, got %g", m.Name, tag, area)
		}
	}
	if _, hasGround := m.AreaPerRegion[geometry.Ground]; !hasGround {
		return fmt.Errorf("netlist: module %s: missing required GROUND area entry", m.Name)
	}
	if m.Fixed || m.Hard {
		if len(m.Rectangles) == 0 {
			return fmt.Errorf("netlist: module %s: fixed/hard module requires explicit rectangles", m.Name)
		}
		var rectArea float64
		for _, r := range m.Rectangles {
			rectArea += r.Area()
		}
		total := m.Area()
		if diff := rectArea - total; diff > 1e-6 || diff < -1e-6 {
			return fmt.Errorf("netlist: module %s: rectangle area %g does not match module area %g", m.Name, rectArea, total)
		}
	}
	return nil
}

func (m *Module) String() string {
	return fmt.Sprintf("Module[%s: area=%g fixed=%v hard=%v]", m.Name, m.Area(), m.Fixed, m.Hard)
}
