package ioformat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// dieDoc is the on-disk shape of a die document.
type dieDoc struct {
	Width   float64 `yaml:"Width"`
	Height  float64 `yaml:"Height"`
	Regions [][]any `yaml:"Regions"`
}

// LoadDie reads and parses a die document from path, splitting Regions
// into tagged regions and blockages by the reserved "blockage" tag, and
// folding in the fixed rectangles of n's fixed modules, then decomposing
// the ground area.
func LoadDie(path string, n *netlist.Netlist) (*die.Die, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: reading die file: %w", err)
	}
	var doc dieDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ioformat: parsing die YAML: %w", err)
	}

	var regions, blockages []geometry.Rectangle
	for i, entry := range doc.Regions {
		r, err := decodeRectangle(entry)
		if err != nil {
			return nil, fmt.Errorf("ioformat: die region %d: %w", i, err)
		}
		if r.Region == geometry.Blockage {
			blockages = append(blockages, r)
		} else {
			regions = append(regions, r)
		}
	}

	var fixed []geometry.Rectangle
	if n != nil {
		for _, m := range n.OrderedModules() {
			if m.Fixed {
				fixed = append(fixed, m.Rectangles...)
			}
		}
	}

	return die.NewDie(doc.Width, doc.Height, regions, blockages, fixed)
}

// WriteDie writes d's outline, tagged regions and blockages to path as a die
// document. Neither the fixed rectangles (LoadDie takes them from the
// netlist) nor the derived ground regions (LoadDie recomputes them) are
// written.
func WriteDie(path string, d *die.Die) error {
	doc := dieDoc{Width: d.Width, Height: d.Height}
	for _, r := range d.Regions {
		doc.Regions = append(doc.Regions, rectangleEntry(r))
	}
	for _, r := range d.Blockages {
		doc.Regions = append(doc.Regions, rectangleEntry(r))
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ioformat: marshaling die: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ioformat: writing die file: %w", err)
	}
	return nil
}

func rectangleEntry(r geometry.Rectangle) []any {
	entry := []any{r.Center.X, r.Center.Y, r.Shape.W, r.Shape.H}
	if r.Region != geometry.Ground && r.Region != "" {
		entry = append(entry, string(r.Region))
	}
	return entry
}
