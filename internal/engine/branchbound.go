package engine

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"
)

// BranchAndBound wraps an LP solver (TwoPhaseSimplex in practice) with
// depth-first branch-and-bound over the Model's binary variables: at each
// node it solves the LP relaxation with the node's extra bounds, branches
// on the most fractional such variable, and prunes nodes whose relaxation
// cannot beat the incumbent. Sibling nodes at a given depth are explored on
// a bounded worker pool (spec §5's allowance for internal pricing/master
// parallelism) without changing the result, since nodes are pruned by
// comparison against a shared incumbent rather than by exploration order.
type BranchAndBound struct {
	Relaxation Solver // defaults to TwoPhaseSimplex{} when nil
}

type bbBound struct {
	varIdx int
	lower  float64
	upper  float64
}

type bbNode struct {
	bounds []bbBound
}

// Solve implements Solver. opts.Gap is the relative optimality gap at
// which the incumbent is accepted as FeasibleSuboptimal instead of
// continuing to proven optimality; opts.TimeLimit bounds total wall-clock.
func (bb BranchAndBound) Solve(ctx context.Context, m *Model, opts SolveOptions) (*Solution, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	relax := bb.Relaxation
	if relax == nil {
		relax = TwoPhaseSimplex{}
	}

	deadline := time.Time{}
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}
	if dl, ok := ctx.Deadline(); ok && (deadline.IsZero() || dl.Before(deadline)) {
		deadline = dl
	}

	var binaryVars []int
	for i := 0; i < m.NumVars(); i++ {
		if m.IsBinary(i) {
			binaryVars = append(binaryVars, i)
		}
	}

	root, err := relax.Solve(ctx, applyBounds(m, nil), opts)
	if err != nil {
		return nil, err
	}
	if root.Status == StatusInfeasible {
		return &Solution{Status: StatusInfeasible}, nil
	}
	if root.Status == StatusAbnormal {
		return &Solution{Status: StatusAbnormal}, nil
	}
	if len(binaryVars) == 0 {
		return root, nil
	}

	var (
		mu        sync.Mutex
		incumbent *Solution
		wg        sync.WaitGroup
		sem       = make(chan struct{}, maxInt(1, runtime.NumCPU()))
	)
	var gapReached bool // set once an incumbent is within opts.Gap of the root bound

	// launch spawns a node's exploration in its own goroutine, acquiring
	// its worker-pool slot from inside that goroutine rather than before
	// spawning it — the parent node's own slot is held for its entire
	// lifetime, so acquiring a child's slot synchronously in the parent
	// would deadlock once concurrent demand reaches the pool's capacity.
	var explore func(node bbNode)
	launch := func(node bbNode) {
		wg.Add(1)
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			defer wg.Done()
			explore(node)
		}()
	}

	explore = func(node bbNode) {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return
		}

		relaxed, err := relax.Solve(ctx, applyBounds(m, node.bounds), opts)
		if err != nil || relaxed == nil {
			return
		}
		if relaxed.Status != StatusOptimal && relaxed.Status != StatusFeasibleSuboptimal {
			return
		}

		mu.Lock()
		pruned := gapReached || incumbent != nil && relaxed.ObjectiveValue >= incumbent.ObjectiveValue-simplexEpsilon
		mu.Unlock()
		if pruned {
			return
		}

		branchVar, _ := mostFractional(relaxed, binaryVars)
		if branchVar == -1 {
			mu.Lock()
			if incumbent == nil || relaxed.ObjectiveValue < incumbent.ObjectiveValue-simplexEpsilon {
				incumbent = relaxed
				if opts.Gap > 0 && relativeGap(root.ObjectiveValue, relaxed.ObjectiveValue) <= opts.Gap {
					gapReached = true
				}
			}
			mu.Unlock()
			return
		}

		floorNode := bbNode{bounds: append(append([]bbBound{}, node.bounds...), bbBound{varIdx: branchVar, lower: 0, upper: 0})}
		ceilNode := bbNode{bounds: append(append([]bbBound{}, node.bounds...), bbBound{varIdx: branchVar, lower: 1, upper: 1})}

		launch(floorNode)
		launch(ceilNode)
	}

	launch(bbNode{})
	wg.Wait()

	if incumbent == nil {
		return &Solution{Status: StatusInfeasible}, nil
	}

	status := StatusOptimal
	if !deadline.IsZero() && time.Now().After(deadline) {
		status = StatusFeasibleSuboptimal
	}
	if gapReached && status == StatusOptimal {
		gap := relativeGap(root.ObjectiveValue, incumbent.ObjectiveValue)
		if gap > simplexEpsilon {
			status = StatusFeasibleSuboptimal
		}
	}
	return &Solution{
		Status:         status,
		Values:         incumbent.Values,
		Duals:          nil, // duals are LP-only per spec §4.7; IP solutions don't expose them
		ObjectiveValue: incumbent.ObjectiveValue,
	}, nil
}

func relativeGap(lpBound, ipValue float64) float64 {
	if ipValue == 0 {
		return math.Abs(lpBound - ipValue)
	}
	return math.Abs(ipValue-lpBound) / math.Abs(ipValue)
}

// mostFractional returns the binary variable whose relaxed value is
// furthest from either 0 or 1, or -1 if every binary variable is already
// integral (within tolerance).
func mostFractional(sol *Solution, binaryVars []int) (int, float64) {
	best := -1
	bestDist := simplexEpsilon
	for _, v := range binaryVars {
		val := sol.Value(v)
		dist := math.Min(val, 1-val)
		if dist > bestDist {
			bestDist = dist
			best = v
		}
	}
	return best, bestDist
}

// applyBounds clones m with a node's extra variable bounds intersected
// into the original ones (branch-and-bound never relaxes a bound, only
// tightens it).
func applyBounds(m *Model, extra []bbBound) *Model {
	clone := &Model{minimize: m.minimize, objective: m.objective, constraints: m.constraints}
	clone.vars = make([]variable, len(m.vars))
	copy(clone.vars, m.vars)
	for _, b := range extra {
		v := clone.vars[b.varIdx]
		if b.lower > v.lower {
			v.lower = b.lower
		}
		if b.upper < v.upper {
			v.upper = b.upper
		}
		clone.vars[b.varIdx] = v
	}
	return clone
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
