package ioformat

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
)

// netlistDoc is the on-disk shape of a netlist document: a map of module
// name to its attributes, plus a flat list of hyperedges.
type netlistDoc struct {
	Modules map[string]moduleDoc `yaml:"Modules"`
	Nets    [][]any              `yaml:"Nets"`
}

// moduleDoc is one module's on-disk attributes. Area is either a scalar
// (ground area) or a {tag: area} mapping, so it is captured as a raw
// yaml.Node and decoded by decodeArea.
type moduleDoc struct {
	Area       yaml.Node `yaml:"area"`
	Center     []float64 `yaml:"center,omitempty"`
	MinShape   []float64 `yaml:"min_shape,omitempty"`
	Fixed      bool      `yaml:"fixed,omitempty"`
	Hard       bool      `yaml:"hard,omitempty"`
	Rectangles [][]any   `yaml:"rectangles,omitempty"`
}

// LoadNetlist reads and parses a netlist document from path, validating
// every module and hyperedge as it is added.
func LoadNetlist(path string) (*netlist.Netlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: reading netlist file: %w", err)
	}
	var doc netlistDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ioformat: parsing netlist YAML: %w", err)
	}
	return decodeNetlist(doc)
}

func decodeNetlist(doc netlistDoc) (*netlist.Netlist, error) {
	n := netlist.NewNetlist()

	// Iterate in a stable order so repeated loads build the same
	// insertion order regardless of map iteration.
	names := make([]string, 0, len(doc.Modules))
	for name := range doc.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m, err := decodeModule(name, doc.Modules[name])
		if err != nil {
			return nil, fmt.Errorf("ioformat: module %s: %w", name, err)
		}
		if err := n.AddModule(m); err != nil {
			return nil, fmt.Errorf("ioformat: %w", err)
		}
	}

	for i, net := range doc.Nets {
		names, weight, err := decodeNet(net)
		if err != nil {
			return nil, fmt.Errorf("ioformat: net %d: %w", i, err)
		}
		edge, err := netlist.NewHyperEdge(names, weight)
		if err != nil {
			return nil, fmt.Errorf("ioformat: net %d: %w", i, err)
		}
		if err := n.AddHyperEdge(edge); err != nil {
			return nil, fmt.Errorf("ioformat: %w", err)
		}
	}

	return n, nil
}

func decodeModule(name string, doc moduleDoc) (*netlist.Module, error) {
	areaPerRegion, err := decodeArea(doc.Area)
	if err != nil {
		return nil, fmt.Errorf("area: %w", err)
	}
	groundArea, hasGround := areaPerRegion[geometry.Ground]
	if !hasGround {
		return nil, fmt.Errorf("missing required ground area entry")
	}

	m, err := netlist.NewModule(name, groundArea)
	if err != nil {
		return nil, err
	}
	for tag, area := range areaPerRegion {
		m.AreaPerRegion[tag] = area
	}

	if len(doc.Center) == 2 {
		center := geometry.PointFromPair(doc.Center[0], doc.Center[1])
		m.Center = &center
	}
	if len(doc.MinShape) == 2 {
		shape, err := geometry.NewShape(doc.MinShape[0], doc.MinShape[1])
		if err != nil {
			return nil, fmt.Errorf("min_shape: %w", err)
		}
		m.MinShape = &shape
	}
	m.Fixed = doc.Fixed
	m.Hard = doc.Hard || doc.Fixed

	for i, entry := range doc.Rectangles {
		r, err := decodeRectangle(entry)
		if err != nil {
			return nil, fmt.Errorf("rectangle %d: %w", i, err)
		}
		m.Rectangles = append(m.Rectangles, r)
	}

	return m, nil
}

// decodeArea accepts either a bare scalar (taken as the GROUND area) or
// a mapping from tag to area.
func decodeArea(node yaml.Node) (map[geometry.Tag]float64, error) {
	switch node.Kind {
	case 0:
		return nil, fmt.Errorf("missing area")
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return map[geometry.Tag]float64{geometry.Ground: v}, nil
	case yaml.MappingNode:
		var raw map[string]float64
		if err := node.Decode(&raw); err != nil {
			return nil, err
		}
		out := make(map[geometry.Tag]float64, len(raw))
		for k, v := range raw {
			out[geometry.Tag(k)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("area must be a number or a {tag: area} mapping")
	}
}

// decodeRectangle parses a [x, y, w, h] or [x, y, w, h, tag] entry.
func decodeRectangle(entry []any) (geometry.Rectangle, error) {
	if len(entry) != 4 && len(entry) != 5 {
		return geometry.Rectangle{}, fmt.Errorf("expected [x, y, w, h] or [x, y, w, h, tag], got %d elements", len(entry))
	}
	x, ok := toFloat(entry[0])
	if !ok {
		return geometry.Rectangle{}, fmt.Errorf("x is not a number")
	}
	y, ok := toFloat(entry[1])
	if !ok {
		return geometry.Rectangle{}, fmt.Errorf("y is not a number")
	}
	w, ok := toFloat(entry[2])
	if !ok {
		return geometry.Rectangle{}, fmt.Errorf("w is not a number")
	}
	h, ok := toFloat(entry[3])
	if !ok {
		return geometry.Rectangle{}, fmt.Errorf("h is not a number")
	}
	shape, err := geometry.NewShape(w, h)
	if err != nil {
		return geometry.Rectangle{}, err
	}
	r := geometry.NewRectangle(geometry.PointFromPair(x, y), shape)
	if len(entry) == 5 {
		tag, ok := entry[4].(string)
		if !ok {
			return geometry.Rectangle{}, fmt.Errorf("tag is not a string")
		}
		r.Region = geometry.Tag(tag)
	}
	return r, nil
}

// decodeNet parses a [name_1, ..., name_k] or [name_1, ..., name_k,
// weight] entry; weight defaults to 1.
func decodeNet(entry []any) ([]string, float64, error) {
	if len(entry) < 2 {
		return nil, 0, fmt.Errorf("expected at least 2 elements, got %d", len(entry))
	}
	weight := 1.0
	last := entry[len(entry)-1]
	names := entry
	if v, ok := toFloat(last); ok {
		weight = v
		names = entry[:len(entry)-1]
	}
	out := make([]string, len(names))
	for i, raw := range names {
		name, ok := raw.(string)
		if !ok {
			return nil, 0, fmt.Errorf("module name at position %d is not a string", i)
		}
		out[i] = name
	}
	return out, weight, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// WriteNetlist writes n to path as a netlist document. Modules are keyed by
// name in a YAML mapping, which is emitted with sorted keys, so the file
// lists them alphabetically rather than in netlist.Order; hyperedges keep
// their order.
func WriteNetlist(path string, n *netlist.Netlist) error {
	doc := netlistDoc{Modules: make(map[string]moduleDoc, len(n.Order))}
	for _, m := range n.OrderedModules() {
		doc.Modules[m.Name] = encodeModule(m)
	}
	for _, e := range n.HyperEdges {
		net := make([]any, 0, len(e.Modules)+1)
		for _, name := range e.Modules {
			net = append(net, name)
		}
		if e.Weight != 1 {
			net = append(net, e.Weight)
		}
		doc.Nets = append(doc.Nets, net)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("ioformat: marshaling netlist: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ioformat: writing netlist file: %w", err)
	}
	return nil
}

func encodeModule(m *netlist.Module) moduleDoc {
	var doc moduleDoc
	if len(m.AreaPerRegion) == 1 {
		if area, ok := m.AreaPerRegion[geometry.Ground]; ok {
			areaNode := yaml.Node{}
			_ = areaNode.Encode(area)
			doc.Area = areaNode
		}
	}
	if doc.Area.Kind == 0 {
		raw := make(map[string]float64, len(m.AreaPerRegion))
		for tag, area := range m.AreaPerRegion {
			raw[string(tag)] = area
		}
		areaNode := yaml.Node{}
		_ = areaNode.Encode(raw)
		doc.Area = areaNode
	}
	if m.Center != nil {
		doc.Center = []float64{m.Center.X, m.Center.Y}
	}
	if m.MinShape != nil {
		doc.MinShape = []float64{m.MinShape.W, m.MinShape.H}
	}
	doc.Fixed = m.Fixed
	doc.Hard = m.Hard && !m.Fixed
	for _, r := range m.Rectangles {
		entry := []any{r.Center.X, r.Center.Y, r.Shape.W, r.Shape.H}
		if r.Region != geometry.Ground {
			entry = append(entry, string(r.Region))
		}
		doc.Rectangles = append(doc.Rectangles, entry)
	}
	return doc
}
