package plot

import (
	"fmt"
	"sort"

	"github.com/dshills/frameflow/pkg/allocation"
)

// moduleColors assigns a deterministic color to each module name by
// sorting names and cycling through a fixed palette, so repeated plots
// of the same allocation always agree on which color is which module.
func moduleColors(alloc *allocation.Allocation) map[string]string {
	palette := []string{
		"#2563eb", "#16a34a", "#d97706", "#dc2626",
		"#7c3aed", "#0891b2", "#db2777", "#65a30d",
	}
	names := alloc.ModuleNames()
	sort.Strings(names)
	colors := make(map[string]string, len(names))
	for i, name := range names {
		colors[name] = palette[i%len(palette)]
	}
	return colors
}

// PlotAllocation renders alloc's cells, each filled by its dominant occupant
// (the module with the largest occupancy share) and shaded by that
// share, so unevenly filled cells read visibly lighter.
func PlotAllocation(alloc *allocation.Allocation, opts Options) ([]byte, error) {
	lowerLeft, upperRight := alloc.BoundingBox()
	width, height := upperRight.X-lowerLeft.X, upperRight.Y-lowerLeft.Y
	buf, canvas := newCanvas(opts)
	t := newTransform(width, height, opts)
	colors := moduleColors(alloc)

	ordered := append([]allocation.Cell(nil), alloc.Cells...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Rect.Center.X != ordered[j].Rect.Center.X {
			return ordered[i].Rect.Center.X < ordered[j].Rect.Center.X
		}
		return ordered[i].Rect.Center.Y < ordered[j].Rect.Center.Y
	})

	for _, c := range ordered {
		_, cellUR := c.Rect.BoundingBox()
		x0, y0 := t.point(cellUR.X-c.Rect.Shape.W-lowerLeft.X, cellUR.Y-lowerLeft.Y)
		w, h := t.length(c.Rect.Shape.W), t.length(c.Rect.Shape.H)

		name, share := dominantOccupant(c)
		style := "fill:#1f2937;fill-opacity:0.4;stroke:#334155;stroke-width:1"
		if name != "" {
			style = fmt.Sprintf("fill:%s;fill-opacity:%.2f;stroke:#0f172a;stroke-width:1", colors[name], 0.25+0.65*share)
		}
		canvas.Rect(x0, y0, w, h, style)

		if opts.ShowLabels && name != "" {
			cx, cy := t.point(c.Rect.Center.X-lowerLeft.X, c.Rect.Center.Y-lowerLeft.Y)
			canvas.Text(cx, cy, name, "text-anchor:middle;font-size:10px;fill:#e2e8f0")
		}
	}

	if opts.ShowLegend {
		names := make([]string, 0, len(colors))
		for name := range colors {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]legendEntry, len(names))
		for i, name := range names {
			entries[i] = legendEntry{colors[name], name}
		}
		legend(canvas, opts, entries)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveAllocationToFile renders alloc and writes the SVG to path.
func SaveAllocationToFile(alloc *allocation.Allocation, path string, opts Options) error {
	data, err := PlotAllocation(alloc, opts)
	if err != nil {
		return err
	}
	return saveToFile(data, path)
}

// dominantOccupant returns the module name with the largest occupancy
// share in c, breaking ties by name for determinism, and its share.
func dominantOccupant(c allocation.Cell) (string, float64) {
	var best string
	var bestShare float64
	names := make([]string, 0, len(c.Occupancy))
	for name := range c.Occupancy {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		share := c.Occupancy[name]
		if share > bestShare {
			best, bestShare = name, share
		}
	}
	return best, bestShare
}
