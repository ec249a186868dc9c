package ioformat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/geometry"
)

// allocationCellDoc is the on-disk shape of one allocation cell.
type allocationCellDoc struct {
	Rect      [4]float64         `yaml:"rect"`
	Occupancy map[string]float64 `yaml:"occupancy"`
	Depth     int                `yaml:"depth"`
}

// WriteAllocation writes alloc's cells to path as a flat list of
// [x, y, w, h] rectangles, each with its occupancy map and depth.
func WriteAllocation(path string, alloc *allocation.Allocation) error {
	docs := make([]allocationCellDoc, len(alloc.Cells))
	for i, c := range alloc.Cells {
		docs[i] = allocationCellDoc{
			Rect:      [4]float64{c.Rect.Center.X, c.Rect.Center.Y, c.Rect.Shape.W, c.Rect.Shape.H},
			Occupancy: c.Occupancy,
			Depth:     c.Depth,
		}
	}
	data, err := yaml.Marshal(docs)
	if err != nil {
		return fmt.Errorf("ioformat: marshaling allocation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ioformat: writing allocation file: %w", err)
	}
	return nil
}

// LoadAllocation reads an allocation document from path.
func LoadAllocation(path string) (*allocation.Allocation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: reading allocation file: %w", err)
	}
	var docs []allocationCellDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("ioformat: parsing allocation YAML: %w", err)
	}

	cells := make([]allocation.Cell, len(docs))
	for i, d := range docs {
		shape, err := geometry.NewShape(d.Rect[2], d.Rect[3])
		if err != nil {
			return nil, fmt.Errorf("ioformat: allocation cell %d: %w", i, err)
		}
		occ := d.Occupancy
		if occ == nil {
			occ = make(map[string]float64)
		}
		cells[i] = allocation.Cell{
			Rect:      geometry.NewRectangle(geometry.PointFromPair(d.Rect[0], d.Rect[1]), shape),
			Occupancy: occ,
			Depth:     d.Depth,
		}
	}
	return allocation.New(cells), nil
}
