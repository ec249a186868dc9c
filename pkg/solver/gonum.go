package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// GonumBackend solves a Problem by folding its equality and inequality
// constraints, plus its box bounds, into a single penalized objective and
// handing that to gonum's derivative-free Nelder-Mead method. Constraints
// are never exact with this approach; callers validate feasibility
// afterward (P8) and treat a non-converged result as a warning, not a
// fatal error, per the error-handling design.
type GonumBackend struct {
	// PenaltyWeight scales the contribution of constraint and bound
	// violations in the folded objective. Larger values converge to a
	// feasible point more aggressively, at the cost of a harder-to-navigate
	// objective surface.
	PenaltyWeight float64
}

// NewGonumBackend returns a backend with a sensible default penalty
// weight.
func NewGonumBackend() *GonumBackend {
	return &GonumBackend{PenaltyWeight: 1e6}
}

func (g *GonumBackend) penalizedObjective(p Problem) func(x []float64) float64 {
	weight := g.PenaltyWeight
	if weight <= 0 {
		weight = 1e6
	}
	return func(x []float64) float64 {
		val := p.Objective(x)
		for i, lb := range p.LowerBounds {
			if x[i] < lb {
				d := lb - x[i]
				val += weight * d * d
			}
		}
		for i, ub := range p.UpperBounds {
			if x[i] > ub {
				d := x[i] - ub
				val += weight * d * d
			}
		}
		for _, c := range p.Equalities {
			r := c(x)
			val += weight * r * r
		}
		for _, c := range p.Inequalities {
			r := c(x)
			if r > 0 {
				val += weight * r * r
			}
		}
		return val
	}
}

// Solve implements Backend.
func (g *GonumBackend) Solve(p Problem) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	objective := g.penalizedObjective(p)

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{MajorIterations: p.MaxIterations}
	method := &optimize.NelderMead{}

	x0 := make([]float64, len(p.InitialGuess))
	copy(x0, p.InitialGuess)

	res, err := optimize.Minimize(problem, x0, settings, method)
	if err != nil && res == nil {
		return Result{}, fmt.Errorf("solver: gonum minimize failed: %w", err)
	}

	x := clamp(res.X, p.LowerBounds, p.UpperBounds)
	converged := res.Status == optimize.Success
	iterations := 0
	if res.Stats.MajorIterations > 0 {
		iterations = res.Stats.MajorIterations
	}

	return Result{
		X:              x,
		Converged:      converged,
		Iterations:     iterations,
		FinalObjective: p.Objective(x),
	}, nil
}

func clamp(x, lower, upper []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		if i < len(lower) && v < lower[i] {
			v = lower[i]
		}
		if i < len(upper) && v > upper[i] {
			v = upper[i]
		}
		out[i] = v
	}
	return out
}

// feasibilityResidual sums the magnitude of every constraint's violation,
// useful for diagnostics and for TestProperty-style convergence checks.
func feasibilityResidual(p Problem, x []float64) float64 {
	var total float64
	for _, c := range p.Equalities {
		total += math.Abs(c(x))
	}
	for _, c := range p.Inequalities {
		if r := c(x); r > 0 {
			total += r
		}
	}
	return total
}
