package plot

import (
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/geometry"
)

var dieRegionColor = map[geometry.Tag]string{
	geometry.Ground: "#1f2937",
}

const (
	colorBlockage = "#7f1d1d"
	colorFixed    = "#78350f"
	colorOutline  = "#475569"
	colorTagged   = "#1d4ed8"
)

func regionColor(tag geometry.Tag) string {
	if tag == geometry.Ground || tag == "" {
		return dieRegionColor[geometry.Ground]
	}
	return colorTagged
}

// PlotDie renders d's outline, tagged regions, blockages, and fixed module
// footprints as an SVG document.
func PlotDie(d *die.Die, opts Options) ([]byte, error) {
	buf, canvas := newCanvas(opts)
	t := newTransform(d.Width, d.Height, opts)

	ox, oy := t.point(0, d.Height)
	canvas.Rect(ox, oy, t.length(d.Width), t.length(d.Height),
		"fill:none;stroke:"+colorOutline+";stroke-width:2")

	drawTaggedRects(canvas, t, d.Regions, regionColor, opts.ShowLabels)
	drawTaggedRects(canvas, t, d.Blockages, func(geometry.Tag) string { return colorBlockage }, opts.ShowLabels)
	drawTaggedRects(canvas, t, d.Fixed, func(geometry.Tag) string { return colorFixed }, opts.ShowLabels)

	if opts.ShowLegend {
		legend(canvas, opts, []legendEntry{
			{colorTagged, "region"},
			{colorBlockage, "blockage"},
			{colorFixed, "fixed"},
		})
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveDieToFile renders d and writes the SVG to path.
func SaveDieToFile(d *die.Die, path string, opts Options) error {
	data, err := PlotDie(d, opts)
	if err != nil {
		return err
	}
	return saveToFile(data, path)
}

func drawTaggedRects(canvas *svg.SVG, t transform, rects []geometry.Rectangle, color func(geometry.Tag) string, labels bool) {
	ordered := append([]geometry.Rectangle(nil), rects...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Center.X != ordered[j].Center.X {
			return ordered[i].Center.X < ordered[j].Center.X
		}
		return ordered[i].Center.Y < ordered[j].Center.Y
	})
	for _, r := range ordered {
		_, upperRight := r.BoundingBox()
		x0, y0 := t.point(upperRight.X-r.Shape.W, upperRight.Y)
		canvas.Rect(x0, y0, t.length(r.Shape.W), t.length(r.Shape.H),
			"fill:"+color(r.Region)+";fill-opacity:0.75;stroke:#0f172a;stroke-width:1")
		if labels && r.Region != "" && r.Region != geometry.Ground {
			cx, cy := t.point(r.Center.X, r.Center.Y)
			canvas.Text(cx, cy, string(r.Region), "text-anchor:middle;font-size:11px;fill:#e2e8f0")
		}
	}
}
