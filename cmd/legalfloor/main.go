// Command legalfloor runs the legalizer (C6) on a skeletonized netlist:
// every module's Rectangles must already classify as a trunk (tag
// "trunk") plus satellites tagged "N", "S", "E", or "W".
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/frameflow/pkg/die"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/ioformat"
	"github.com/dshills/frameflow/pkg/legalize"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/plot"
)

var (
	netlistPath = flag.String("netlist", "", "Path to netlist YAML file (required)")
	dieArg      = flag.String("d", "", "Die: a WxH literal (e.g. 100x100) or a path to a die YAML file (required)")
	maxRatio    = flag.Float64("max_ratio", 2.0, "Maximum allowable aspect ratio for a legalized rectangle")
	outNetlist  = flag.String("out-netlist", "", "Path to write the legalized netlist")
	svgPath     = flag.String("svg", "", "Path to write an SVG plot of the legalized modules")
	verbose     = flag.Bool("v", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	if *netlistPath == "" || *dieArg == "" {
		fmt.Fprintln(os.Stderr, "Error: -netlist and -d flags are required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
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

	if *verbose {
		fmt.Println("Building skeletons from module rectangles")
	}
	skeletons, err := legalize.SkeletonsFromNetlist(n)
	if err != nil {
		return fmt.Errorf("failed to build skeletons: %w", err)
	}

	cfg := legalize.DefaultConfig()
	cfg.MaxRatio = *maxRatio

	if *verbose {
		fmt.Printf("Running legalize: die=%gx%g max_ratio=%g\n", d.Width, d.Height, cfg.MaxRatio)
	}
	result, err := legalize.Legalize(n, skeletons, d.Width, d.Height, cfg)
	if err != nil {
		return fmt.Errorf("legalize failed: %w", err)
	}
	if *verbose {
		fmt.Printf("Solver converged: %v\n", result.Converged)
	}

	if *outNetlist != "" {
		if err := ioformat.WriteNetlist(*outNetlist, n); err != nil {
			return fmt.Errorf("failed to write netlist: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote legalized netlist to %s\n", *outNetlist)
		}
	}

	if *svgPath != "" {
		opts := plot.DefaultOptions()
		opts.Title = "legalfloor placement"
		if err := plot.SaveLegalizedToFile(n, d.Width, d.Height, *svgPath, opts); err != nil {
			return fmt.Errorf("failed to write SVG: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote SVG plot to %s\n", *svgPath)
		}
	}

	fmt.Printf("Legalized %d module(s), converged=%v\n", len(n.Order), result.Converged)
	if !result.Converged {
		fmt.Fprintln(os.Stderr, "Warning: solver did not converge within its iteration budget; returning best-effort placement")
	}
	return nil
}

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
