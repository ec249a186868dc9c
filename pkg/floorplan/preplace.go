// Package floorplan implements the global floorplanner (C5): Fruchterman-
// Reingold pre-placement of module centroids, and the alternating
// optimize/refine loop that turns an initial allocation into a converged
// one.
package floorplan

import (
	"crypto/sha256"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/rng"
)

// PreplaceConfig controls the Fruchterman-Reingold pass.
type PreplaceConfig struct {
	// MaxIterations bounds the simulation. The source tool defaults this
	// to 100.
	MaxIterations int

	// Seed derives the RNG used to scatter modules that start without a
	// Center, so two coincident starting points don't stay coincident
	// (their repulsion force's unit vector is zero regardless of
	// distance). Runs with the same Seed and MaxIterations produce the
	// same pre-placement.
	Seed uint64
}

// DefaultPreplaceConfig returns the source tool's default iteration
// budget.
func DefaultPreplaceConfig() PreplaceConfig {
	return PreplaceConfig{MaxIterations: 100, Seed: 1}
}

// Hash computes a deterministic hash of the configuration, used to derive
// the pre-placement RNG's seed.
func (c PreplaceConfig) Hash() []byte {
	data, err := yaml.Marshal(c)
	if err != nil {
		data = []byte(fmt.Sprintf("%d", c.MaxIterations))
	}
	h := sha256.Sum256(data)
	return h[:]
}

type vec struct{ x, y float64 }

func (v vec) add(o vec) vec   { return vec{v.x + o.x, v.y + o.y} }
func (v vec) sub(o vec) vec   { return vec{v.x - o.x, v.y - o.y} }
func (v vec) scale(s float64) vec { return vec{v.x * s, v.y * s} }
func (v vec) norm() float64   { return math.Sqrt(v.x*v.x + v.y*v.y) }

// Preplace runs Fruchterman-Reingold force layout over a netlist's soft and
// hard modules, writing each non-fixed module's Center in place. Modules
// already carrying a Center are used as their starting position (shifted
// to be centered on the die's origin); modules without one are scattered
// at a random angle and radius around the die's center, seeded by
// cfg.Seed, so that two uninitialized modules never start at the exact
// same point (which would leave the repulsion force between them zero
// forever). Fixed modules never move.
//
// Repulsion between every pair of modules is k²·area_v/d; attraction
// between modules sharing a hyperedge is d²/(k·area_v), where
// k = √(dieArea/N). A multi-module hyperedge expands to all of its
// pairwise combinations, matching the source tool's clique expansion.
func Preplace(n *netlist.Netlist, dieW, dieH float64, cfg PreplaceConfig) error {
	if n == nil {
		return fmt.Errorf("floorplan: preplace: netlist is nil")
	}
	order := n.OrderedModules()
	if len(order) == 0 {
		return fmt.Errorf("floorplan: preplace: netlist has no modules")
	}
	if dieW <= 0 || dieH <= 0 {
		return fmt.Errorf("floorplan: preplace: die dimensions must be positive, got %gx%g", dieW, dieH)
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultPreplaceConfig().MaxIterations
	}

	n0 := float64(len(order))
	k := math.Sqrt(dieW * dieH / n0)
	t := math.Max(dieW, dieH) * 0.1
	dt := t / float64(maxIter+1)

	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultPreplaceConfig().Seed
	}
	placer := rng.NewRNG(seed, "preplace", cfg.Hash())

	pos := make(map[string]vec, len(order))
	for _, m := range order {
		if m.Center != nil {
			pos[m.Name] = vec{m.Center.X - dieW/2, m.Center.Y - dieH/2}
			continue
		}
		angle := placer.Float64() * 2 * math.Pi
		radius := placer.Float64() * k
		pos[m.Name] = vec{radius * math.Cos(angle), radius * math.Sin(angle)}
	}

	fAtt := func(d, area float64) float64 { return d * d / (k * area) }
	fRep := func(d, area float64) float64 { return k * k * area / d }

	for iter := 0; iter < maxIter; iter++ {
		disp := make(map[string]vec, len(order))
		for _, m := range order {
			disp[m.Name] = vec{}
		}

		for i, v := range order {
			for j, u := range order {
				if i == j {
					continue
				}
				diff := pos[v.Name].sub(pos[u.Name])
				d := math.Max(diff.norm(), 0.01)
				unit := diff.scale(1 / d)
				disp[v.Name] = disp[v.Name].add(unit.scale(fRep(d, v.Area())))
			}
		}

		for _, e := range n.HyperEdges {
			for a := 0; a < len(e.Modules); a++ {
				for b := a + 1; b < len(e.Modules); b++ {
					vName, uName := e.Modules[a], e.Modules[b]
					vMod, uMod := n.Modules[vName], n.Modules[uName]
					diff := pos[vName].sub(pos[uName])
					d := math.Max(diff.norm(), 0.01)
					unit := diff.scale(1 / d)
					disp[vName] = disp[vName].sub(unit.scale(fAtt(d, vMod.Area())))
					disp[uName] = disp[uName].add(unit.scale(fAtt(d, uMod.Area())))
				}
			}
		}

		for _, m := range order {
			if m.Fixed {
				continue
			}
			dv := disp[m.Name]
			dn := math.Max(dv.norm(), 0.01)
			np := pos[m.Name].add(dv.scale(math.Min(dn, t) / dn))
			np.x = math.Min(dieW/2, math.Max(-dieW/2, np.x))
			np.y = math.Min(dieH/2, math.Max(-dieH/2, np.y))
			pos[m.Name] = np
		}

		t -= dt
	}

	for _, m := range order {
		if m.Fixed {
			continue
		}
		p := pos[m.Name].add(vec{dieW / 2, dieH / 2})
		center := geometry.PointFromPair(p.x, p.y)
		m.Center = &center
	}
	return nil
}
