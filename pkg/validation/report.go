package validation

import (
	"fmt"
	"strings"
)

// Constraint names one checked property and its severity.
type Constraint struct {
	Kind     string
	Severity string // "hard" or "soft"
	Expr     string
}

// ConstraintResult is the outcome of evaluating one Constraint.
type ConstraintResult struct {
	Constraint *Constraint
	Satisfied  bool
	Score      float64 // 1.0/0.0 for hard constraints; continuous for soft
	Details    string
}

// NewHardConstraintResult builds a pass/fail result: score is 1.0 when
// satisfied, 0.0 otherwise.
func NewHardConstraintResult(kind, exprStr string, satisfied bool, details string) ConstraintResult {
	score := 0.0
	if satisfied {
		score = 1.0
	}
	return ConstraintResult{
		Constraint: &Constraint{Kind: kind, Severity: "hard", Expr: exprStr},
		Satisfied:  satisfied,
		Score:      score,
		Details:    details,
	}
}

// NewSoftConstraintResult builds a continuously-scored result; satisfied
// is score > 0.5.
func NewSoftConstraintResult(kind, exprStr string, score float64, details string) ConstraintResult {
	return ConstraintResult{
		Constraint: &Constraint{Kind: kind, Severity: "soft", Expr: exprStr},
		Satisfied:  score > 0.5,
		Score:      score,
		Details:    details,
	}
}

// Report accumulates constraint results across a validation run.
type Report struct {
	Passed   bool
	Hard     []ConstraintResult
	Soft     []ConstraintResult
	Warnings []string
	Errors   []string
}

// NewReport returns an empty, passing report.
func NewReport() *Report {
	return &Report{Passed: true}
}

// Add appends result to the report. A failed hard constraint demotes
// Passed to false and records an error; a failed soft constraint only
// records a warning.
func (r *Report) Add(result ConstraintResult) {
	if result.Constraint.Severity == "soft" {
		r.Soft = append(r.Soft, result)
		if !result.Satisfied {
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", result.Constraint.Kind, result.Details))
		}
		return
	}
	r.Hard = append(r.Hard, result)
	if !result.Satisfied {
		r.Passed = false
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", result.Constraint.Kind, result.Details))
	}
}

// Summary renders a human-readable report.
func Summary(r *Report) string {
	var b strings.Builder
	b.WriteString("=== Validation Report ===\n\n")
	if r.Passed {
		b.WriteString("Status: PASSED\n")
	} else {
		b.WriteString("Status: FAILED\n")
	}

	passedHard := 0
	for _, result := range r.Hard {
		if result.Satisfied {
			passedHard++
		}
	}
	fmt.Fprintf(&b, "\n=== Hard Constraints ===\nPassed: %d/%d\n", passedHard, len(r.Hard))
	for i, result := range r.Hard {
		status := "PASS"
		if !result.Satisfied {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %d. [%s] %s: %s\n", i+1, status, result.Constraint.Kind, result.Details)
	}

	if len(r.Soft) > 0 {
		b.WriteString("\n=== Soft Constraints ===\n")
		for i, result := range r.Soft {
			fmt.Fprintf(&b, "  %d. %s (score: %.2f): %s\n", i+1, result.Constraint.Kind, result.Score, result.Details)
		}
	}
	if len(r.Errors) > 0 {
		b.WriteString("\n=== Errors ===\n")
		for i, e := range r.Errors {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, e)
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n=== Warnings ===\n")
		for i, w := range r.Warnings {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, w)
		}
	}
	return b.String()
}

// HasErrors reports whether the report recorded any hard-constraint
// failure.
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether the report recorded any soft-constraint
// failure.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// FailedConstraints returns every hard constraint result that did not
// pass.
func (r *Report) FailedConstraints() []ConstraintResult {
	var out []ConstraintResult
	for _, result := range r.Hard {
		if !result.Satisfied {
			out = append(out, result)
		}
	}
	return out
}
