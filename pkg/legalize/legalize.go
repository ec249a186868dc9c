// Package legalize implements the legalizer (C6): it builds a nonlinear
// model over each module's skeleton (a trunk rectangle plus cardinal
// satellite rectangles) and solves it for a set of legal, non-overlapping
// axis-aligned rectangles satisfying aspect-ratio, area, attachment, and
// boundary constraints. The model's objective and constraints are
// accumulated through an expression DAG (pkg/expr) so the backend never
// sees anything but a flat decision vector and residual functions.
package legalize

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/frameflow/pkg/expr"
	"github.com/dshills/frameflow/pkg/geometry"
	"github.com/dshills/frameflow/pkg/netlist"
	"github.com/dshills/frameflow/pkg/solver"
)

// Config controls the legalizer's nonlinear model.
type Config struct {
	// MaxRatio is the maximum allowable rectangle aspect ratio, r > 1.
	MaxRatio float64
	// MaxIterations bounds the solver. Defaults to 1000.
	MaxIterations int
	// MaxExprSize bounds the subtree size of any single expression node
	// built for the model; 0 means unbounded. Guards against oversized
	// objective and constraint expressions (pairwise non-overlap alone
	// emits O(modules^2 * rects^2) constraints).
	MaxExprSize int
	// Backend solves the assembled nonlinear program. Defaults to a
	// gonum-backed solver if nil.
	Backend solver.Backend
}

// DefaultConfig returns the source tool's default max aspect ratio of 2.0
// with a generous iteration and expression-size budget.
func DefaultConfig() Config {
	return Config{MaxRatio: 2.0, MaxIterations: 1000, MaxExprSize: 200000}
}

const minRectSize = 1e-3

// modelVars names one rectangle's four decision variables by their flat
// index into the solver's decision vector.
type modelVars struct {
	xi, yi, wi, hi int
}

// moduleModel is one module's slice of the flat model: its trunk and
// satellites, the per-direction ordering fixed at build time (Open
// Question (b)), and the centroid expression nodes used by the
// objective.
type moduleModel struct {
	module   *netlist.Module
	trunk    modelVars
	sats     map[netlist.Cardinal][]modelVars
	satOrder map[netlist.Cardinal][]int // indices into sats[dir], sorted by free coordinate
	all      []modelVars                // trunk + satellites, skeleton.Rectangles() order

	area *expr.Node // sum_r w_r*h_r
	mux  *expr.Node // area-weighted centroid x
	muy  *expr.Node // area-weighted centroid y
}

// builder assembles the flat decision vector and the shared expression
// DAG that every constraint and the objective are built from. Node
// construction errors (size-bound overflow, bad folding) accumulate in
// err rather than panicking, in the style of Go's errWriter pattern, so
// the model-construction code below can read as a flat sequence of
// arithmetic instead of threading an error return through every call.
type builder struct {
	names []string
	lower []float64
	upper []float64
	guess []float64

	expr *expr.Builder
	err  error
}

func (b *builder) alloc(lo, hi, init float64) int {
	i := len(b.names)
	b.names = append(b.names, fmt.Sprintf("v%d", i))
	b.lower = append(b.lower, lo)
	b.upper = append(b.upper, hi)
	b.guess = append(b.guess, init)
	return i
}

func (b *builder) allocRect(r geometry.Rectangle, dieW, dieH float64) modelVars {
	return modelVars{
		xi: b.alloc(0, dieW, r.Center.X),
		yi: b.alloc(0, dieH, r.Center.Y),
		wi: b.alloc(minRectSize, dieW, r.Shape.W),
		hi: b.alloc(minRectSize, dieH, r.Shape.H),
	}
}

func (b *builder) x(v modelVars) *expr.Node { return b.expr.Var(b.names[v.xi]) }
func (b *builder) y(v modelVars) *expr.Node { return b.expr.Var(b.names[v.yi]) }
func (b *builder) w(v modelVars) *expr.Node { return b.expr.Var(b.names[v.wi]) }
func (b *builder) h(v modelVars) *expr.Node { return b.expr.Var(b.names[v.hi]) }

func (b *builder) c(v float64) *expr.Node { return b.expr.Const(v) }

func (b *builder) bin(op expr.BinaryOp, a, x *expr.Node) *expr.Node {
	if b.err != nil || a == nil || x == nil {
		return nil
	}
	n, err := b.expr.Binary(op, a, x)
	if err != nil {
		b.err = err
		return nil
	}
	return n
}

func (b *builder) un(op expr.UnaryOp, a *expr.Node) *expr.Node {
	if b.err != nil || a == nil {
		return nil
	}
	n, err := b.expr.Unary(op, a)
	if err != nil {
		b.err = err
		return nil
	}
	return n
}

func (b *builder) sum(terms []*expr.Node) *expr.Node {
	if b.err != nil {
		return nil
	}
	n, err := b.expr.Sum(terms)
	if err != nil {
		b.err = err
		return nil
	}
	return n
}

func (b *builder) sq(a *expr.Node) *expr.Node { return b.bin(expr.Mul, a, a) }

// thin is the smooth aspect-ratio measure w*h/(w^2+h^2): monotone in
// aspect, maximized at w == h.
func (b *builder) thin(w, h *expr.Node) *expr.Node {
	return b.bin(expr.Div, b.bin(expr.Mul, w, h), b.bin(expr.Add, b.sq(w), b.sq(h)))
}

// smax is the differentiable approximation to max(a, b).
func (b *builder) smax(a, x *expr.Node, tau float64) *expr.Node {
	root := b.un(expr.Sqrt, b.bin(expr.Add, b.sq(b.bin(expr.Sub, a, x)), b.c(4*tau*tau)))
	return b.bin(expr.Mul, b.c(0.5), b.bin(expr.Add, b.bin(expr.Add, a, x), root))
}

// le turns the constraint "lhs <= rhs" into a solver.Constraint: the
// residual is lhs-rhs, satisfied (<=0) exactly when the inequality holds.
func (b *builder) le(lhs, rhs *expr.Node) solver.Constraint {
	return b.residual(b.bin(expr.Sub, lhs, rhs))
}

// eq turns the constraint "lhs == rhs" into a solver.Constraint: the
// residual is lhs-rhs, satisfied (==0) exactly when the equality holds.
func (b *builder) eq(lhs, rhs *expr.Node) solver.Constraint {
	return b.residual(b.bin(expr.Sub, lhs, rhs))
}

func (b *builder) residual(node *expr.Node) solver.Constraint {
	version := 0
	return func(x []float64) float64 {
		if node == nil {
			return 0
		}
		version++
		env := make(map[string]float64, len(b.names))
		for i, name := range b.names {
			env[name] = x[i]
		}
		v, err := node.Eval(env, version)
		if err != nil {
			return 1e12
		}
		return v
	}
}

var directions = [4]netlist.Cardinal{netlist.North, netlist.South, netlist.East, netlist.West}

// Legalize builds and solves the legalizer's nonlinear model for every
// module in n, using skeletons for each module's trunk and cardinal
// satellites as both the model's structure and its initial guess. On
// return, each module's Rectangles are overwritten with the solved
// geometry and its Center is set to its trunk's solved position; Fixed
// and Hard flags are left as given, since they already describe which
// degree of constraint the model enforced for that module.
//
// A non-converged Result is not an error: the caller decides whether to
// accept a partial solve, per the solver-failure error kind.
func Legalize(n *netlist.Netlist, skeletons map[string]*netlist.Skeleton, dieW, dieH float64, cfg Config) (solver.Result, error) {
	if cfg.MaxRatio <= 1 {
		return solver.Result{}, fmt.Errorf("legalize: max ratio must exceed 1, got %g", cfg.MaxRatio)
	}
	if dieW <= 0 || dieH <= 0 {
		return solver.Result{}, fmt.Errorf("legalize: die dimensions must be positive, got %gx%g", dieW, dieH)
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultConfig().MaxIterations
	}
	backend := cfg.Backend
	if backend == nil {
		backend = solver.NewGonumBackend()
	}

	order := n.OrderedModules()
	if len(order) == 0 {
		return solver.Result{}, fmt.Errorf("legalize: netlist has no modules")
	}

	b := &builder{expr: expr.NewBuilder(cfg.MaxExprSize)}

	models := make([]*moduleModel, 0, len(order))
	byName := make(map[string]*moduleModel, len(order))
	for _, m := range order {
		sk, ok := skeletons[m.Name]
		if !ok {
			return solver.Result{}, fmt.Errorf("legalize: module %s has no skeleton", m.Name)
		}
		mm := &moduleModel{
			module:   m,
			sats:     make(map[netlist.Cardinal][]modelVars, 4),
			satOrder: make(map[netlist.Cardinal][]int, 4),
		}
		mm.trunk = b.allocRect(sk.Trunk, dieW, dieH)
		mm.all = append(mm.all, mm.trunk)

		for _, dir := range directions {
			rects := sk.Satellites[dir]
			vs := make([]modelVars, len(rects))
			for i, r := range rects {
				vs[i] = b.allocRect(r, dieW, dieH)
			}
			mm.sats[dir] = vs
			mm.all = append(mm.all, vs...)

			idx := make([]int, len(vs))
			for i := range idx {
				idx[i] = i
			}
			sort.Slice(idx, func(p, q int) bool {
				return satCoord(b, vs, dir, idx[p]) < satCoord(b, vs, dir, idx[q])
			})
			mm.satOrder[dir] = idx
		}

		models = append(models, mm)
		byName[m.Name] = mm
	}

	N := float64(len(order))
	tau := 0.01 * math.Min(dieW, dieH) / N

	var equalities []solver.Constraint
	var inequalities []solver.Constraint

	for _, mm := range models {
		addRectConstraints(b, mm, dieW, dieH, cfg.MaxRatio, &inequalities)
		addAttachmentConstraints(b, mm, &equalities, &inequalities)
		addOrderingConstraints(b, mm, &inequalities)
		addAreaConstraint(b, mm, &inequalities)
		addFixingConstraints(b, mm, &equalities)
	}

	for i := 0; i < len(models); i++ {
		for j := i + 1; j < len(models); j++ {
			addNonOverlapConstraints(b, models[i], models[j], tau, &inequalities)
		}
	}

	objective := buildObjective(b, n, byName, tau)

	if b.err != nil {
		return solver.Result{}, fmt.Errorf("legalize: %w", b.err)
	}

	problem := solver.Problem{
		LowerBounds:   b.lower,
		UpperBounds:   b.upper,
		InitialGuess:  b.guess,
		Objective:     objective,
		Equalities:    equalities,
		Inequalities:  inequalities,
		MaxIterations: maxIter,
	}
	result, err := backend.Solve(problem)
	if err != nil {
		return solver.Result{}, fmt.Errorf("legalize: %w", err)
	}

	materialize(models, result.X)

	return result, nil
}

// satCoord returns the free coordinate's initial value used to sort
// satellites once, at build time: x for north/south, y for east/west.
func satCoord(b *builder, vs []modelVars, dir netlist.Cardinal, i int) float64 {
	if dir == netlist.North || dir == netlist.South {
		return b.guess[vs[i].xi]
	}
	return b.guess[vs[i].yi]
}

// addRectConstraints emits, for every rectangle of mm (trunk and
// satellites), the die-containment and aspect-ratio inequalities.
func addRectConstraints(b *builder, mm *moduleModel, dieW, dieH, maxRatio float64, inequalities *[]solver.Constraint) {
	thinR := b.thin(b.c(maxRatio), b.c(1))
	two := b.c(2)
	for _, rv := range mm.all {
		x, y, w, h := b.x(rv), b.y(rv), b.w(rv), b.h(rv)
		*inequalities = append(*inequalities,
			b.le(b.bin(expr.Div, w, two), x),
			b.le(b.bin(expr.Div, h, two), y),
			b.le(b.bin(expr.Add, x, b.bin(expr.Div, w, two)), b.c(dieW)),
			b.le(b.bin(expr.Add, y, b.bin(expr.Div, h, two)), b.c(dieH)),
			b.le(thinR, b.thin(w, h)),
		)
	}
}

// addAttachmentConstraints emits, for every satellite of mm, the
// attachment equality that keeps it flush against its trunk edge and the
// inequality range that keeps it within the trunk's orthogonal extent.
func addAttachmentConstraints(b *builder, mm *moduleModel, equalities, inequalities *[]solver.Constraint) {
	two := b.c(2)
	tx, ty, tw, th := b.x(mm.trunk), b.y(mm.trunk), b.w(mm.trunk), b.h(mm.trunk)

	for _, dir := range directions {
		for _, rv := range mm.sats[dir] {
			x, y, w, h := b.x(rv), b.y(rv), b.w(rv), b.h(rv)
			switch dir {
			case netlist.North:
				*equalities = append(*equalities, b.eq(y, b.bin(expr.Add, b.bin(expr.Add, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))))
				lo := b.bin(expr.Add, b.bin(expr.Sub, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))
				hi := b.bin(expr.Sub, b.bin(expr.Add, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))
				*inequalities = append(*inequalities, b.le(lo, x), b.le(x, hi))
			case netlist.South:
				*equalities = append(*equalities, b.eq(y, b.bin(expr.Sub, b.bin(expr.Sub, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))))
				lo := b.bin(expr.Add, b.bin(expr.Sub, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))
				hi := b.bin(expr.Sub, b.bin(expr.Add, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))
				*inequalities = append(*inequalities, b.le(lo, x), b.le(x, hi))
			case netlist.East:
				*equalities = append(*equalities, b.eq(x, b.bin(expr.Add, b.bin(expr.Add, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))))
				lo := b.bin(expr.Add, b.bin(expr.Sub, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))
				hi := b.bin(expr.Sub, b.bin(expr.Add, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))
				*inequalities = append(*inequalities, b.le(lo, y), b.le(y, hi))
			case netlist.West:
				*equalities = append(*equalities, b.eq(x, b.bin(expr.Sub, b.bin(expr.Sub, tx, b.bin(expr.Div, tw, two)), b.bin(expr.Div, w, two))))
				lo := b.bin(expr.Add, b.bin(expr.Sub, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))
				hi := b.bin(expr.Sub, b.bin(expr.Add, ty, b.bin(expr.Div, th, two)), b.bin(expr.Div, h, two))
				*inequalities = append(*inequalities, b.le(lo, y), b.le(y, hi))
			}
		}
	}
}

// addOrderingConstraints emits, per direction, the adjacent-pair
// non-overlap inequality along the satellites' free coordinate: x/w for
// north/south, y/h for east/west. Order was fixed once at build time
// (Open Question (b)).
func addOrderingConstraints(b *builder, mm *moduleModel, inequalities *[]solver.Constraint) {
	two := b.c(2)
	for _, dir := range directions {
		vs := mm.sats[dir]
		order := mm.satOrder[dir]
		coord := func(v modelVars) *expr.Node {
			if dir == netlist.North || dir == netlist.South {
				return b.x(v)
			}
			return b.y(v)
		}
		size := func(v modelVars) *expr.Node {
			if dir == netlist.North || dir == netlist.South {
				return b.w(v)
			}
			return b.h(v)
		}
		for i := 0; i+1 < len(order); i++ {
			a, c := vs[order[i]], vs[order[i+1]]
			lhs := b.bin(expr.Add, coord(a), b.bin(expr.Div, size(a), two))
			rhs := b.bin(expr.Sub, coord(c), b.bin(expr.Div, size(c), two))
			*inequalities = append(*inequalities, b.le(lhs, rhs))
		}
	}
}

// addAreaConstraint emits the per-module minimum-area inequality
// Σ w_r*h_r >= target, where target is the module's total declared area.
func addAreaConstraint(b *builder, mm *moduleModel, inequalities *[]solver.Constraint) {
	terms := make([]*expr.Node, len(mm.all))
	for i, rv := range mm.all {
		terms[i] = b.bin(expr.Mul, b.w(rv), b.h(rv))
	}
	mm.area = b.sum(terms)
	target := mm.module.Area()
	*inequalities = append(*inequalities, b.le(b.c(target), mm.area))

	var xsum, ysum []*expr.Node
	for _, rv := range mm.all {
		wh := b.bin(expr.Mul, b.w(rv), b.h(rv))
		xsum = append(xsum, b.bin(expr.Mul, b.x(rv), wh))
		ysum = append(ysum, b.bin(expr.Mul, b.y(rv), wh))
	}
	mm.mux = b.bin(expr.Div, b.sum(xsum), mm.area)
	mm.muy = b.bin(expr.Div, b.sum(ysum), mm.area)
}

// addFixingConstraints applies the fixing policy: a fixed module has its
// trunk position and every rectangle's shape equality-constrained, plus
// every satellite's position relative to the trunk; a hard (non-fixed)
// module has only every rectangle's shape equality-constrained.
func addFixingConstraints(b *builder, mm *moduleModel, equalities *[]solver.Constraint) {
	if mm.module.Fixed {
		*equalities = append(*equalities,
			b.eq(b.x(mm.trunk), b.c(b.guess[mm.trunk.xi])),
			b.eq(b.y(mm.trunk), b.c(b.guess[mm.trunk.yi])),
		)
	}
	if mm.module.Fixed || mm.module.Hard {
		for _, rv := range mm.all {
			*equalities = append(*equalities,
				b.eq(b.w(rv), b.c(b.guess[rv.wi])),
				b.eq(b.h(rv), b.c(b.guess[rv.hi])),
			)
		}
	}
	if mm.module.Fixed {
		for _, dir := range directions {
			for _, rv := range mm.sats[dir] {
				if dir == netlist.North || dir == netlist.South {
					offset := b.guess[rv.xi] - b.guess[mm.trunk.xi]
					*equalities = append(*equalities, b.eq(b.bin(expr.Sub, b.x(rv), b.x(mm.trunk)), b.c(offset)))
				} else {
					offset := b.guess[rv.yi] - b.guess[mm.trunk.yi]
					*equalities = append(*equalities, b.eq(b.bin(expr.Sub, b.y(rv), b.y(mm.trunk)), b.c(offset)))
				}
			}
		}
	}
}

// addNonOverlapConstraints emits, for every rectangle pair across the two
// (distinct) modules, the smooth-max disjunctive separation inequality.
func addNonOverlapConstraints(b *builder, m, n *moduleModel, tau float64, inequalities *[]solver.Constraint) {
	quarter := b.c(0.25)
	zero := b.c(0)
	for _, ri := range m.all {
		xi, yi, wi, hi := b.x(ri), b.y(ri), b.w(ri), b.h(ri)
		for _, rj := range n.all {
			xj, yj, wj, hj := b.x(rj), b.y(rj), b.w(rj), b.h(rj)
			t1 := b.bin(expr.Sub, b.sq(b.bin(expr.Sub, xi, xj)), b.bin(expr.Mul, quarter, b.sq(b.bin(expr.Add, wi, wj))))
			t2 := b.bin(expr.Sub, b.sq(b.bin(expr.Sub, yi, yj)), b.bin(expr.Mul, quarter, b.sq(b.bin(expr.Add, hi, hj))))
			sm := b.smax(t1, t2, tau)
			*inequalities = append(*inequalities, b.le(zero, sm))
		}
	}
}

// buildObjective assembles the centroid-based dispersion objective,
// weighted by weight^2 per hyperedge, plus tau as a constant term.
func buildObjective(b *builder, n *netlist.Netlist, byName map[string]*moduleModel, tau float64) func(x []float64) float64 {
	var terms []*expr.Node
	for _, e := range n.HyperEdges {
		k := b.c(float64(len(e.Modules)))
		var muexTerms, mueyTerms []*expr.Node
		for _, name := range e.Modules {
			mm := byName[name]
			muexTerms = append(muexTerms, mm.mux)
			mueyTerms = append(mueyTerms, mm.muy)
		}
		muex := b.bin(expr.Div, b.sum(muexTerms), k)
		muey := b.bin(expr.Div, b.sum(mueyTerms), k)

		weight2 := b.c(e.Weight * e.Weight)
		for _, name := range e.Modules {
			mm := byName[name]
			var rectTerms []*expr.Node
			for _, rv := range mm.all {
				dx := b.bin(expr.Sub, b.x(rv), mm.mux)
				dy := b.bin(expr.Sub, b.y(rv), mm.muy)
				rectTerms = append(rectTerms, b.bin(expr.Add, b.sq(dx), b.sq(dy)))
			}
			rectSum := b.sum(rectTerms)
			dmux := b.bin(expr.Sub, mm.mux, muex)
			dmuy := b.bin(expr.Sub, mm.muy, muey)
			moduleDist := b.bin(expr.Add, b.sq(dmux), b.sq(dmuy))
			moduleTerm := b.bin(expr.Add, rectSum, moduleDist)
			terms = append(terms, b.bin(expr.Mul, weight2, moduleTerm))
		}
	}
	terms = append(terms, b.c(tau))
	objNode := b.sum(terms)
	return b.residual(objNode)
}

// materialize writes the solved geometry back into each module's
// Rectangles and sets its Center to the trunk's solved position.
func materialize(models []*moduleModel, x []float64) {
	for _, mm := range models {
		rects := make([]geometry.Rectangle, len(mm.all))
		for i, rv := range mm.all {
			rects[i] = geometry.Rectangle{
				Center: geometry.PointFromPair(x[rv.xi], x[rv.yi]),
				Shape:  geometry.Shape{W: x[rv.wi], H: x[rv.hi]},
				Region: geometry.Ground,
				Fixed:  mm.module.Fixed,
				Hard:   mm.module.Hard,
			}
		}
		mm.module.Rectangles = rects
		center := geometry.PointFromPair(x[mm.trunk.xi], x[mm.trunk.yi])
		mm.module.Center = &center
	}
}
