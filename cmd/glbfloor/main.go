// Command glbfloor runs the die decomposer and global floorplanner (C3,
// C5): it builds an initial row x column allocation grid and alternately
// refines and optimizes it until converged.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/frameflow/pkg/allocation"
	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/floorplan"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/ioformat"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/plot"
)

var (
	netlistPath   = flag.String("netlist", "", "Path to netlist YAML file (required)")
	dieArg        = flag.String("d", "", "Die: a WxH literal (e.g. 100x100) or a path to a die YAML file (required)")
	grid          = flag.String("g", "", "Initial allocation grid, ROWSxCOLS (required)")
	alpha         = flag.Float64("a", 0.5, "Alpha: tradeoff between wire length (1) and dispersion (0), in [0,1]")
	threshold     = flag.Float64("t", 0.95, "Refinement threshold, in [0,1]")
	maxIter       = flag.Int("i", 0, "Maximum refine/optimize rounds (0 = unbounded)")
	aspectRatio   = flag.Float64("r", 0, "Maximum cell aspect ratio to polish the initial grid to via split_until (0 = skip, must exceed sqrt(2) otherwise)")
	numRects      = flag.Int("n", 0, "Minimum number of initial cells to extend the grid to via split_until (used with -r)")
	outNetlist    = flag.String("out-netlist", "", "Path to write the netlist with module centers set")
	outAllocation = flag.String("out-allocation", "", "Path to write the final allocation")
	svgPath       = flag.String("svg", "", "Path to write an SVG plot of the final allocation")
	verbose       = flag.Bool("v", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	if *netlistPath == "" || *dieArg == "" || *grid == "" {
		fmt.Fprintln(os.Stderr, "Error: -netlist, -d and -g flags are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rows, cols, err := parseGrid(*grid)
	if err != nil {
		return fmt.Errorf("invalid -g value: %w", err)
	}
	if *aspectRatio > 0 && *aspectRatio <= math.Sqrt2 {
		return fmt.Errorf("invalid -r value %g: must exceed sqrt(2) (%g) for split_until to terminate", *aspectRatio, math.Sqrt2)
	}

	if *verbose {
		fmt.Printf("Loading netlist from %s\n", *netlistPath)
	}
	n, err := ioformat.LoadNetlist(*netlistPath)
	if err != nil {
		return fmt.Errorf("failed to load netlist: %w", err)
	}

	d, err := loadDie(*dieArg, n)
	if err != nil {
		return fmt.Errorf("failed to load die: %w", err)
	}

	cfg := floorplan.Config{Alpha: *alpha, Threshold: *threshold, MaxIter: *maxIter, MaxAspect: *aspectRatio, MinRects: *numRects}

	if *verbose {
		fmt.Printf("Running glbfloor: grid=%dx%d alpha=%g threshold=%g max_iter=%d aspect_ratio=%g num_rectangles=%d\n",
			rows, cols, cfg.Alpha, cfg.Threshold, cfg.MaxIter, cfg.MaxAspect, cfg.MinRects)
	}
	alloc, dispersions, err := floorplan.GlbFloor(n, d.Width, d.Height, rows, cols, cfg)
	if err != nil {
		return fmt.Errorf("glbfloor failed: %w", err)
	}

	if *verbose {
		for _, m := range n.OrderedModules() {
			dx, dy := dispersions[m.Name][0], dispersions[m.Name][1]
			fmt.Printf("  module %s: dispersion=(%.4f, %.4f)\n", m.Name, dx, dy)
		}
	}

	if err := writeOutputs(n, alloc, d); err != nil {
		return err
	}

	fmt.Printf("Converged to %d allocation cell(s) over %d module(s)\n", len(alloc.Cells), len(n.Order))
	return nil
}

func writeOutputs(n *netlist.Netlist, alloc *allocation.Allocation, d *die.Die) error {
	if *outNetlist != "" {
		if err := ioformat.WriteNetlist(*outNetlist, n); err != nil {
			return fmt.Errorf("failed to write netlist: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote netlist to %s\n", *outNetlist)
		}
	}
	if *outAllocation != "" {
		if err := ioformat.WriteAllocation(*outAllocation, alloc); err != nil {
			return fmt.Errorf("failed to write allocation: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote allocation to %s\n", *outAllocation)
		}
	}
	if *svgPath != "" {
		opts := plot.DefaultOptions()
		opts.Title = "glbfloor allocation"
		if err := plot.SaveAllocationToFile(alloc, *svgPath, opts); err != nil {
			return fmt.Errorf("failed to write SVG: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote SVG plot to %s\n", *svgPath)
		}
	}
	return nil
}

// parseGrid parses a ROWSxCOLS literal like "4x6".
func parseGrid(s string) (rows, cols int, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected ROWSxCOLS, got %q", s)
	}
	rows, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("rows: %w", err)
	}
	cols, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("cols: %w", err)
	}
	return rows, cols, nil
}

// loadDie accepts either a WxH literal (e.g. "100x100") or a path to a die
// YAML file, matching spec.md's "-d|--die <WxH or file>".
func loadDie(arg string, n *netlist.Netlist) (*die.Die, error) {
	if w, h, ok := parseDieLiteral(arg); ok {
		return die.NewDie(w, h, nil, nil, fixedRectangles(n))
	}
	return ioformat.LoadDie(arg, n)
}

func parseDieLiteral(s string) (w, h float64, ok bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.ParseFloat(parts[0], 64)
	h, errH := strconv.ParseFloat(parts[1], 64)
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}

func fixedRectangles(n *netlist.Netlist) []geometry.Rectangle {
	var fixed []geometry.Rectangle
	for _, m := range n.OrderedModules() {
		if m.Fixed {
			fixed = append(fixed, m.Rectangles...)
		}
	}
	return fixed
}
