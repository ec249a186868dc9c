package netlist

import "github.com/dshills/frameflow/pkg/geometry"

// Cardinal is one of the four compass directions a satellite rectangle may
// be attached to a trunk's edge.
type Cardinal int

const (
	North Cardinal = iota
	South
	East
	West
)

func (c Cardinal) String() string {
	switch c {
	case North:
		return "N"
	case South:
		return "S"
	case East:
		return "E"
	case West:
		return "W"
	default:
		return "?"
	}
}

// Skeleton is the legalizer's per-module input: a trunk rectangle plus,
// for each cardinal direction, an ordered list of satellite rectangles
// attached to the corresponding trunk edge.
type Skeleton struct {
	Module     string
	Trunk      geometry.Rectangle
	Satellites map[Cardinal][]geometry.Rectangle
}

// NewSkeleton returns a skeleton with an empty satellite set for module.
func NewSkeleton(module string, trunk geometry.Rectangle) *Skeleton {
	return &Skeleton{
		Module: module,
		Trunk:  trunk,
		Satellites: map[Cardinal][]geometry.Rectangle{
			North: nil, South: nil, East: nil, West: nil,
		},
	}
}

// AddSatellite appends r to the satellite list for direction dir.
func (s *Skeleton) AddSatellite(dir Cardinal, r geometry.Rectangle) {
	s.Satellites[dir] = append(s.Satellites[dir], r)
}

// Area returns the total area of the trunk plus all satellites.
func (s *Skeleton) Area() float64 {
	total := s.Trunk.Area()
	for _, list := range s.Satellites {
		for _, r := range list {
			total += r.Area()
		}
	}
	return total
}

// Rectangles returns the trunk followed by its satellites in a fixed
// N, S, E, W order, each list in satellite-append order.
func (s *Skeleton) Rectangles() []geometry.Rectangle {
	rects := make([]geometry.Rectangle, 0, 1+len(s.Satellites[North])+len(s.Satellites[South])+len(s.Satellites[East])+len(s.Satellites[West]))
	rects = append(rects, s.Trunk)
	for _, dir := range [4]Cardinal{North, South, East, West} {
		rects = append(rects, s.Satellites[dir]...)
	}
	return rects
}
