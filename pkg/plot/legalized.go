package plot

import (
	"sort"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// PlotLegalized renders every module's placed rectangles (its trunk and
// satellites, after legalization has populated Module.Rectangles) over
// a die of the given width and height, one color per module.
func PlotLegalized(n *netlist.Netlist, dieW, dieH float64, opts Options) ([]byte, error) {
	buf, canvas := newCanvas(opts)
	t := newTransform(dieW, dieH, opts)

	ox, oy := t.point(0, dieH)
	canvas.Rect(ox, oy, t.length(dieW), t.length(dieH),
		"fill:none;stroke:"+colorOutline+";stroke-width:2")

	modules := n.OrderedModules()
	palette := []string{
		"#2563eb", "#16a34a", "#d97706", "#dc2626",
		"#7c3aed", "#0891b2", "#db2777", "#65a30d",
	}
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	sort.Strings(names)
	colorOf := make(map[string]string, len(names))
	for i, name := range names {
		colorOf[name] = palette[i%len(palette)]
	}

	for _, m := range modules {
		rects := append([]geometry.Rectangle(nil), m.Rectangles...)
		sort.Slice(rects, func(i, j int) bool {
			if rects[i].Center.X != rects[j].Center.X {
				return rects[i].Center.X < rects[j].Center.X
			}
			return rects[i].Center.Y < rects[j].Center.Y
		})
		for _, r := range rects {
			_, upperRight := r.BoundingBox()
			x0, y0 := t.point(upperRight.X-r.Shape.W, upperRight.Y)
			canvas.Rect(x0, y0, t.length(r.Shape.W), t.length(r.Shape.H),
				"fill:"+colorOf[m.Name]+";fill-opacity:0.7;stroke:#0f172a;stroke-width:1")
		}
		if opts.ShowLabels && len(rects) > 0 {
			labelX, labelY := rects[0].Center.X, rects[0].Center.Y
			if m.Center != nil {
				labelX, labelY = m.Center.X, m.Center.Y
			}
			cx, cy := t.point(labelX, labelY)
			canvas.Text(cx, cy, m.Name, "text-anchor:middle;font-size:11px;fill:#f8fafc;font-weight:bold")
		}
	}

	if opts.ShowLegend {
		entries := make([]legendEntry, len(names))
		for i, name := range names {
			entries[i] = legendEntry{colorOf[name], name}
		}
		legend(canvas, opts, entries)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveLegalizedToFile renders n's placed modules and writes the SVG to path.
func SaveLegalizedToFile(n *netlist.Netlist, dieW, dieH float64, path string, opts Options) error {
	data, err := PlotLegalized(n, dieW, dieH, opts)
	if err != nil {
		return err
	}
	return saveToFile(data, path)
}
