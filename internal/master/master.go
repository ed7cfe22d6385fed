// Package master builds and solves the restricted set-covering master
// problem (spec §4.4): one variable per route in the pool, one covering
// constraint per customer.
package master

import (
	"context"
	"errors"
	"fmt"

	"cvrptw/internal/cvrp"
	"cvrptw/internal/engine"
)

// ErrInfeasible signals the master LP came back infeasible despite the
// pool supposedly covering every customer — a broken pool invariant,
// fatal per spec §7's MasterInfeasible.
var ErrInfeasible = errors.New("master: infeasible despite covering pool (broken invariant)")

// ErrAbnormal signals the solver returned an abnormal/unknown status.
var ErrAbnormal = errors.New("master: solver returned abnormal status")

// ErrNoFeasibleCover signals the final IP solve found no feasible integer
// selection within its time budget (spec §7's NoFeasibleCover).
var ErrNoFeasibleCover = errors.New("master: no feasible integer cover found")

// Result is a solved master model: the objective value, and for LP mode,
// the dual price of each customer's covering constraint.
type Result struct {
	ObjectiveValue float64
	// Duals maps customer node index -> dual value of its covering
	// constraint. Populated only for LP mode.
	Duals map[int]float64
	// Selected lists the ids of routes with z_r ~= 1. Populated only for
	// IP mode.
	Selected []int
}

// build constructs the Model: one variable per route (continuous [0,1]
// for LP mode, binary for IP mode), one `>=1` constraint per customer in
// ascending node-index order (spec §5's deterministic constraint
// ordering).
func build(in *cvrp.Instance, pool *cvrp.RoutePool, binary bool) (*engine.Model, []int, []int) {
	m := engine.NewModel()
	routes := pool.All()

	routeVar := make([]int, len(routes))
	for i, r := range routes {
		name := fmt.Sprintf("z_%d", i)
		if binary {
			routeVar[i] = m.AddBinaryVar(name)
		} else {
			routeVar[i] = m.AddContinuousVar(name, 0, 1)
		}
		m.SetObjectiveCoeff(routeVar[i], r.Cost)
	}

	customers := in.CustomerIndices()
	customerConstraint := make([]int, 0, len(customers))
	for _, c := range customers {
		coeffs := map[int]float64{}
		for i, r := range routes {
			if r.Covers(c) {
				coeffs[routeVar[i]] = 1
			}
		}
		ci := m.AddConstraint(fmt.Sprintf("cover_%d", c), coeffs, engine.GE, 1)
		customerConstraint = append(customerConstraint, ci)
	}

	return m, routeVar, customerConstraint
}

// SolveLP solves the LP relaxation, returning per-customer duals for use
// by the pricing problem.
func SolveLP(ctx context.Context, in *cvrp.Instance, pool *cvrp.RoutePool, solver engine.Solver) (*Result, error) {
	m, _, customerConstraint := build(in, pool, false)
	customers := in.CustomerIndices()

	sol, err := solver.Solve(ctx, m, engine.SolveOptions{})
	if err != nil {
		return nil, err
	}
	switch sol.Status {
	case engine.StatusInfeasible:
		return nil, ErrInfeasible
	case engine.StatusAbnormal:
		return nil, ErrAbnormal
	}

	duals := make(map[int]float64, len(customers))
	for i, c := range customers {
		duals[c] = sol.Dual(customerConstraint[i])
	}
	return &Result{ObjectiveValue: sol.ObjectiveValue, Duals: duals}, nil
}

// SolveIP solves the final set-covering IP, returning the chosen route ids.
func SolveIP(ctx context.Context, in *cvrp.Instance, pool *cvrp.RoutePool, solver engine.Solver, opts engine.SolveOptions) (*Result, error) {
	m, routeVar, _ := build(in, pool, true)

	sol, err := solver.Solve(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	switch sol.Status {
	case engine.StatusInfeasible:
		return nil, ErrNoFeasibleCover
	case engine.StatusAbnormal:
		return nil, ErrAbnormal
	}

	var selected []int
	routes := pool.All()
	for i := range routes {
		if sol.Value(routeVar[i]) > 0.5 {
			selected = append(selected, i)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoFeasibleCover
	}
	return &Result{ObjectiveValue: sol.ObjectiveValue, Selected: selected}, nil
}
