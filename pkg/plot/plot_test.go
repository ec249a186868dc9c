package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

func mustShape(t *testing.T, w, h float64) geometry.Shape {
	t.Helper()
	s, err := geometry.NewShape(w, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func svgHeader(data []byte) bool {
	return bytes.Contains(data, []byte("<svg"))
}

func TestDieProducesWellFormedSVG(t *testing.T) {
	blockage := geometry.NewRectangle(geometry.PointFromPair(5, 5), mustShape(t, 2, 2))
	blockage.Region = geometry.Blockage
	d, err := die.NewDie(10, 10, nil, []geometry.Rectangle{blockage}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := PlotDie(d, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svgHeader(data) {
		t.Error("expected output to contain an <svg> tag")
	}
}

func TestSaveDieToFileWritesFile(t *testing.T) {
	d, err := die.NewDie(4, 4, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "die.svg")
	if err := SaveDieToFile(d, path, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}

func TestAllocationColorsByDominantOccupant(t *testing.T) {
	cells := []allocation.Cell{
		{
			Rect:      geometry.NewRectangle(geometry.PointFromPair(1, 1), mustShape(t, 2, 2)),
			Occupancy: map[string]float64{"A": 0.9, "B": 0.1},
		},
		{
			Rect:      geometry.NewRectangle(geometry.PointFromPair(3, 1), mustShape(t, 2, 2)),
			Occupancy: map[string]float64{"B": 0.6},
		},
	}
	alloc := allocation.New(cells)

	data, err := PlotAllocation(alloc, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svgHeader(data) {
		t.Error("expected output to contain an <svg> tag")
	}
	// Sorted names give A the first palette color and B the second; the
	// first cell is dominated by A, the second by B.
	if !bytes.Contains(data, []byte("fill:#2563eb;fill-opacity:")) {
		t.Error("expected a cell filled with A's color")
	}
	if !bytes.Contains(data, []byte("fill:#16a34a;fill-opacity:")) {
		t.Error("expected a cell filled with B's color")
	}
}

func TestAllocationHandlesEmptyOccupancy(t *testing.T) {
	cells := []allocation.Cell{
		{Rect: geometry.NewRectangle(geometry.PointFromPair(1, 1), mustShape(t, 2, 2))},
	}
	alloc := allocation.New(cells)

	if _, err := PlotAllocation(alloc, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLegalizedRendersEachModulesRectangles(t *testing.T) {
	n := netlist.NewNetlist()
	m, err := netlist.NewModule("A", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Fixed = true
	m.Hard = true
	m.Rectangles = []geometry.Rectangle{
		geometry.NewRectangle(geometry.PointFromPair(2, 2), mustShape(t, 2, 2)),
	}
	if err := n.AddModule(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := PlotLegalized(n, 10, 10, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svgHeader(data) {
		t.Error("expected output to contain an <svg> tag")
	}
	if !bytes.Contains(data, []byte("fill:#2563eb;fill-opacity:0.7")) {
		t.Error("expected module A's rectangle to be drawn in its color")
	}
}

func TestSaveLegalizedToFileWritesFile(t *testing.T) {
	n := netlist.NewNetlist()
	path := filepath.Join(t.TempDir(), "legalized.svg")
	if err := SaveLegalizedToFile(n, 10, 10, path, DefaultOptions()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %v", err)
	}
}
