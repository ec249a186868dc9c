// Command decompose loads a die description and runs the die decomposer
// (C3), printing how many ground regions it found, optionally writing the
// die back out as YAML (outline, tagged regions and blockages; the ground
// regions are not written, since loading the file recomputes them) and
// optionally an SVG plot of the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dshills/frameflow/pkg/ioformat"
	"github.com/dshills/frameflow/pkg/plot"
)

var (
	diePath = flag.String("die", "", "Path to die YAML file (required)")
	outPath = flag.String("out", "", "Path to write the die YAML (outline, regions and blockages); nothing is written if empty")
	svgPath = flag.String("svg", "", "Path to write an SVG plot of the decomposed die")
	verbose = flag.Bool("v", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	if *diePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -die flag is required")
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
		fmt.Printf("Loading die from %s\n", *diePath)
	}

	d, err := ioformat.LoadDie(*diePath, nil)
	if err != nil {
		return fmt.Errorf("failed to load die: %w", err)
	}

	if *verbose {
		fmt.Printf("Decomposed into %d ground region(s)\n", len(d.GroundRegions))
	}

	if *outPath != "" {
		if err := ioformat.WriteDie(*outPath, d); err != nil {
			return fmt.Errorf("failed to write die: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote decomposed die to %s\n", *outPath)
		}
	}

	if *svgPath != "" {
		opts := plot.DefaultOptions()
		opts.Title = fmt.Sprintf("Die decomposition (%gx%g)", d.Width, d.Height)
		if err := plot.SaveDieToFile(d, *svgPath, opts); err != nil {
			return fmt.Errorf("failed to write SVG: %w", err)
		}
		if *verbose {
			fmt.Printf("Wrote SVG plot to %s\n", *svgPath)
		}
	}

	fmt.Printf("Decomposed die %s: %d region(s), %d blockage(s), %d ground region(s)\n",
		*diePath, len(d.Regions), len(d.Blockages), len(d.GroundRegions))
	return nil
}
