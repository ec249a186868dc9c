package legalize

import (
	"testing"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

func taggedRect(cx, cy, w, h float64, tag geometry.Tag) geometry.Rectangle {
	r := geometry.NewRectangle(geometry.PointFromPair(cx, cy), geometry.Shape{W: w, H: h})
	r.Region = tag
	return r
}

func TestSkeletonFromModuleClassifiesTrunkAndSatellites(t *testing.T) {
	m, err := netlist.NewModule("A", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Rectangles = []geometry.Rectangle{
		taggedRect(2, 2, 2, 2, trunkTag),
		taggedRect(2, 3.5, 1, 1, "N"),
		taggedRect(3.5, 2, 1, 1, "E"),
	}

	sk, err := SkeletonFromModule(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sk.Trunk.Center.X != 2 || sk.Trunk.Center.Y != 2 {
		t.Errorf("expected trunk center (2,2), got %v", sk.Trunk.Center)
	}
	if len(sk.Satellites[netlist.North]) != 1 {
		t.Errorf("expected 1 north satellite, got %d", len(sk.Satellites[netlist.North]))
	}
	if len(sk.Satellites[netlist.East]) != 1 {
		t.Errorf("expected 1 east satellite, got %d", len(sk.Satellites[netlist.East]))
	}
}

func TestSkeletonFromModuleRejectsMissingTrunk(t *testing.T) {
	m, err := netlist.NewModule("A", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Rectangles = []geometry.Rectangle{taggedRect(1, 1, 1, 1, "N")}

	if _, err := SkeletonFromModule(m); err == nil {
		t.Error("expected an error for a module with no trunk rectangle")
	}
}

func TestSkeletonFromModuleRejectsDuplicateTrunk(t *testing.T) {
	m, err := netlist.NewModule("A", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Rectangles = []geometry.Rectangle{
		taggedRect(1, 1, 1, 1, trunkTag),
		taggedRect(2, 2, 1, 1, trunkTag),
	}

	if _, err := SkeletonFromModule(m); err == nil {
		t.Error("expected an error for a module with two trunk rectangles")
	}
}

func TestSkeletonFromModuleRejectsUnrecognizedTag(t *testing.T) {
	m, err := netlist.NewModule("A", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Rectangles = []geometry.Rectangle{
		taggedRect(1, 1, 1, 1, trunkTag),
		taggedRect(2, 2, 1, 1, "NE"),
	}

	if _, err := SkeletonFromModule(m); err == nil {
		t.Error("expected an error for a module with an unrecognized satellite tag")
	}
}

func TestSkeletonsFromNetlistBuildsEveryModule(t *testing.T) {
	n := netlist.NewNetlist()
	m, err := netlist.NewModule("A", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Rectangles = []geometry.Rectangle{taggedRect(1, 1, 2, 2, trunkTag)}
	if err := n.AddModule(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	skeletons, err := SkeletonsFromNetlist(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := skeletons["A"]; !ok {
		t.Error("expected a skeleton for module A")
	}
}
