package legalize

import (
	"fmt"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// cardinalTags maps a rectangle's region tag to the cardinal it denotes,
// mirroring netlist.Cardinal.String()'s "N"/"S"/"E"/"W" output.
var cardinalTags = map[geometry.Tag]netlist.Cardinal{
	"N": netlist.North,
	"S": netlist.South,
	"E": netlist.East,
	"W": netlist.West,
}

// trunkTag marks a module's trunk rectangle among its input rectangles.
const trunkTag geometry.Tag = "trunk"

// SkeletonsFromNetlist builds one Skeleton per module in n from its
// Rectangles, using the region tag of each rectangle to classify it as
// the trunk ("trunk") or a satellite attached to one of the four
// cardinal edges ("N", "S", "E", "W"), matching the tags
// netlist.Cardinal.String() itself produces.
//
// Every module must carry exactly one trunk-tagged rectangle; satellite
// rectangles keep the relative order they appear in within each
// direction.
func SkeletonsFromNetlist(n *netlist.Netlist) (map[string]*netlist.Skeleton, error) {
	out := make(map[string]*netlist.Skeleton, len(n.Order))
	for _, m := range n.OrderedModules() {
		sk, err := SkeletonFromModule(m)
		if err != nil {
			return nil, err
		}
		out[m.Name] = sk
	}
	return out, nil
}

// SkeletonFromModule builds a single module's Skeleton from its
// Rectangles, as SkeletonsFromNetlist does for every module in a netlist.
func SkeletonFromModule(m *netlist.Module) (*netlist.Skeleton, error) {
	var trunk *geometry.Rectangle
	var satellites []geometry.Rectangle
	for i, r := range m.Rectangles {
		if r.Region == trunkTag {
			if trunk != nil {
				return nil, fmt.Errorf("legalize: module %s has more than one trunk rectangle", m.Name)
			}
			rc := r
			trunk = &rc
			continue
		}
		if _, ok := cardinalTags[r.Region]; !ok {
			return nil, fmt.Errorf("legalize: module %s rectangle %d has unrecognized tag %q (want trunk, N, S, E, or W)", m.Name, i, r.Region)
		}
		satellites = append(satellites, r)
	}
	if trunk == nil {
		return nil, fmt.Errorf("legalize: module %s has no trunk rectangle", m.Name)
	}

	sk := netlist.NewSkeleton(m.Name, *trunk)
	for _, r := range satellites {
		sk.AddSatellite(cardinalTags[r.Region], r)
	}
	return sk, nil
}
