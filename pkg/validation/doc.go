// Package validation implements the testable properties (P1-P9): die
// coverage and non-overlap, ground maximality, allocation area
// conservation and cell bounds, refinement and split invariants, and
// legalizer feasibility and idempotence. Every check returns a
// ConstraintResult; a Report collects whichever checks the caller's
// inputs allow.
//
// The die decomposer builds its ground regions so that P1 and P2 hold,
// while allocation.New accepts any cells without checking P4 or P5. This
// package verifies those properties against artifacts built elsewhere —
// loaded from YAML, produced by an older binary, or hand-constructed in
// a test — where no constructor has already guaranteed them.
//
// # Usage
//
//	report := validation.NewReport()
//	report.Add(validation.CheckDieCoverage(d))
//	report.Add(validation.CheckAllocationAreaConservation(n, alloc))
//	if !report.Passed {
//	    fmt.Println(validation.Summary(report))
//	}
package validation
