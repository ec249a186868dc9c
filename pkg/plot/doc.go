// Package plot renders die decompositions, allocation grids, and
// legalized floorplans as SVG images for visual inspection.
package plot
