package plot

import (
	"bytes"
	"fmt"
	"os"

	svg "github.com/ajstarks/svgo"
)

// Options configures SVG rendering common to every plot in this package.
type Options struct {
	Width      int    // Canvas width in pixels
	Height     int    // Canvas height in pixels
	Margin     int    // Canvas margin in pixels
	ShowLabels bool   // Show module-name labels
	ShowLegend bool   // Show a color legend
	Title      string // Optional title drawn at the top of the canvas
}

// DefaultOptions returns sensible default rendering options.
func DefaultOptions() Options {
	return Options{
		Width:      1000,
		Height:     1000,
		Margin:     40,
		ShowLabels: true,
		ShowLegend: true,
		Title:      "",
	}
}

func (o *Options) fillDefaults() {
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 1000
	}
	if o.Margin <= 0 {
		o.Margin = 40
	}
}

// transform maps die-space coordinates (origin bottom-left, y up) to
// canvas pixels (origin top-left, y down), uniformly scaled to fit the
// drawable area within the margin.
type transform struct {
	scale                float64
	offsetX, offsetY     float64
	canvasH              float64
}

func newTransform(dieW, dieH float64, opts Options) transform {
	headerSpace := 0.0
	if opts.Title != "" {
		headerSpace = 40
	}
	drawW := float64(opts.Width - 2*opts.Margin)
	drawH := float64(opts.Height-2*opts.Margin) - headerSpace
	scale := 1.0
	if dieW > 0 && dieH > 0 {
		sx := drawW / dieW
		sy := drawH / dieH
		scale = sx
		if sy < sx {
			scale = sy
		}
	}
	return transform{
		scale:   scale,
		offsetX: float64(opts.Margin),
		offsetY: float64(opts.Margin) + headerSpace,
		canvasH: drawH,
	}
}

func (t transform) point(x, y float64) (int, int) {
	px := t.offsetX + x*t.scale
	py := t.offsetY + (t.canvasH - y*t.scale)
	return int(px), int(py)
}

func (t transform) length(d float64) int {
	return int(d * t.scale)
}

func newCanvas(opts Options) (*bytes.Buffer, *svg.SVG) {
	opts.fillDefaults()
	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#10131a")
	if opts.Title != "" {
		canvas.Text(opts.Width/2, 24, opts.Title, "text-anchor:middle;font-size:18px;font-weight:bold;fill:#e2e8f0")
	}
	return buf, canvas
}

func saveToFile(data []byte, path string) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("plot: writing SVG file: %w", err)
	}
	return nil
}

type legendEntry struct {
	color string
	label string
}

// legend draws a small swatch-and-label key in the canvas's top-right
// corner, mirroring the teacher's fixed-position legend panel.
func legend(canvas *svg.SVG, opts Options, entries []legendEntry) {
	x := opts.Width - opts.Margin - 150
	y := opts.Margin + 10
	canvas.Rect(x-10, y-15, 170, 20+18*len(entries), "fill:#0f172a;fill-opacity:0.9;stroke:#475569;stroke-width:1")
	for i, e := range entries {
		row := y + i*18
		canvas.Rect(x, row-8, 12, 12, "fill:"+e.color)
		canvas.Text(x+18, row+2, e.label, "font-size:11px;fill:#e2e8f0")
	}
}
