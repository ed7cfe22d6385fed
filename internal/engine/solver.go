package engine

import (
	"context"
	"errors"
	"time"
)

// Status is the four-state outcome enumeration the core depends on (spec
// §4.7): optimal, feasible-but-suboptimal (time/gap limited), infeasible,
// or abnormal.
type Status int

const (
	StatusOptimal Status = iota
	StatusFeasibleSuboptimal
	StatusInfeasible
	StatusAbnormal
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasibleSuboptimal:
		return "feasible-suboptimal"
	case StatusInfeasible:
		return "infeasible"
	default:
		return "abnormal"
	}
}

// ErrNilModel is returned when Solve is called with a nil Model.
var ErrNilModel = errors.New("engine: nil model")

// Solution is the result of a Solve call.
type Solution struct {
	Status         Status
	Values         []float64
	Duals          []float64 // one per constraint; LP mode only
	ObjectiveValue float64
}

// Value returns the solution value of a variable by index.
func (s *Solution) Value(varIdx int) float64 {
	if s == nil || varIdx >= len(s.Values) {
		return 0
	}
	return s.Values[varIdx]
}

// Dual returns the dual (shadow price) of a constraint by index. Only
// meaningful for LP solves.
func (s *Solution) Dual(constraintIdx int) float64 {
	if s == nil || constraintIdx >= len(s.Duals) {
		return 0
	}
	return s.Duals[constraintIdx]
}

// SolveOptions bounds a single solve invocation.
type SolveOptions struct {
	// TimeLimit caps wall-clock spent in Solve. Zero means no limit.
	TimeLimit time.Duration
	// Gap is the relative optimality gap at which BranchAndBound may stop
	// with StatusFeasibleSuboptimal instead of continuing to proven
	// optimality. Ignored by TwoPhaseSimplex, which solves LPs to
	// optimality, reports Infeasible/Abnormal, or returns
	// StatusFeasibleSuboptimal when TimeLimit passes first.
	Gap float64
}

// Solver is the minimal capability set the core depends on (spec §4.7).
// Any engine satisfying this surface — this hand-rolled one, an
// open-source branch-and-cut library, or a commercial one — is
// interchangeable behind it.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts SolveOptions) (*Solution, error)
}
