// Package pricing builds and solves the ESPPRC-like pricing MIP (spec
// §4.5): given master duals, find an elementary depot-to-depot route with
// strictly negative reduced cost, or report that none exists.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cvrptw/internal/cvrp"
	"cvrptw/internal/engine"
)

// ErrDegenerate signals that route recovery could not reconstruct a tour
// from the solver's arc variables (spec §7's PricingDegenerate): the
// iteration aborts but CG may continue with the current pool.
var ErrDegenerate = errors.New("pricing: route recovery degenerate, no outgoing arc above threshold")

// arcThreshold is the x_{i,j} value above which an arc is considered
// selected during route recovery (spec §4.5).
const arcThreshold = 0.9

// Result is a solved pricing MIP.
type Result struct {
	// ReducedCost is the pricing objective value.
	ReducedCost float64
	// HasColumn is true iff ReducedCost < 0 and a route was recovered.
	HasColumn bool
	// Route is the recovered depot-to-depot route; valid only if HasColumn.
	Route cvrp.Route
}

// arcVar indexes the x_{i,j} binary decision variables, i != j, over the
// full node set including the depot.
type arcVar struct {
	i, j int
}

// Solve builds the pricing model from the given master duals (keyed by
// customer node index) and solves it with the given solver under the
// configured time limit and gap.
func Solve(ctx context.Context, in *cvrp.Instance, duals map[int]float64, solver engine.Solver) (*Result, error) {
	n := in.NumNodes()

	m := engine.NewModel()

	xVar := make(map[arcVar]int)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if _, ok := in.Arc(i, j); !ok {
				continue
			}
			xVar[arcVar{i, j}] = m.AddBinaryVar(fmt.Sprintf("x_%d_%d", i, j))
		}
	}

	sVar := make([]int, n)
	for i := 0; i < n; i++ {
		node := in.Node(i)
		sVar[i] = m.AddContinuousVar(fmt.Sprintf("s_%d", i), node.Open, node.Close-node.ServiceTime)
	}

	// Flow conservation: for every node j, inflow == outflow.
	for j := 0; j < n; j++ {
		coeffs := map[int]float64{}
		for i := 0; i < n; i++ {
			if i == j {
				continue
			}
			if v, ok := xVar[arcVar{i, j}]; ok {
				coeffs[v] += 1
			}
			if v, ok := xVar[arcVar{j, i}]; ok {
				coeffs[v] -= 1
			}
		}
		if len(coeffs) > 0 {
			m.AddConstraint(fmt.Sprintf("flow_%d", j), coeffs, engine.EQ, 0)
		}
	}

	// Depot degree: at most one departure from the depot.
	depotOut := map[int]float64{}
	for _, c := range in.CustomerIndices() {
		if v, ok := xVar[arcVar{in.DepotIdx, c}]; ok {
			depotOut[v] = 1
		}
	}
	if len(depotOut) > 0 {
		m.AddConstraint("depot_degree", depotOut, engine.LE, 1)
	}

	// Capacity: total weight of visited customers.
	capacity := map[int]float64{}
	for i := 0; i < n; i++ {
		for _, j := range in.CustomerIndices() {
			if i == j {
				continue
			}
			if v, ok := xVar[arcVar{i, j}]; ok {
				capacity[v] += in.Weight(j)
			}
		}
	}
	if len(capacity) > 0 {
		m.AddConstraint("capacity", capacity, engine.LE, in.Parameters.TruckCapacity)
	}

	// Time propagation (MTZ-style big-M) for every i, every customer j != i.
	bigM := mtzBigM(in)
	for i := 0; i < n; i++ {
		ni := in.Node(i)
		for _, j := range in.CustomerIndices() {
			if i == j {
				continue
			}
			v, ok := xVar[arcVar{i, j}]
			if !ok {
				continue
			}
			// s_i + service(i) + travel(i,j) - M*(1-x_ij) <= s_j
			// => s_i - s_j + M*x_ij <= M - service(i) - travel(i,j)
			coeffs := map[int]float64{
				sVar[i]: 1,
				sVar[j]: -1,
				v:       bigM,
			}
			m.AddConstraint(fmt.Sprintf("mtz_%d_%d", i, j), coeffs, engine.LE, bigM-ni.ServiceTime-in.TravelTime(i, j))
		}
	}

	// Objective: reduced cost = sum cost(i,j)*x_ij - sum dual(j) * sum_i x_ij.
	for av, v := range xVar {
		coeff := in.Cost(av.i, av.j)
		if av.j != in.DepotIdx {
			coeff -= duals[av.j]
		}
		m.SetObjectiveCoeff(v, coeff)
	}

	opts := engine.SolveOptions{
		TimeLimit: in.Parameters.PricingProblemTimeLimit,
		Gap:       in.Parameters.PricingProblemMIPGap,
	}
	sol, err := solver.Solve(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	if sol.Status == engine.StatusInfeasible || sol.Status == engine.StatusAbnormal {
		return &Result{ReducedCost: math.Inf(1), HasColumn: false}, nil
	}

	if sol.ObjectiveValue >= -cvrp.Epsilon {
		return &Result{ReducedCost: sol.ObjectiveValue, HasColumn: false}, nil
	}

	route, err := recoverRoute(in, xVar, sVar, sol)
	if err != nil {
		return nil, err
	}
	return &Result{ReducedCost: sol.ObjectiveValue, HasColumn: true, Route: route}, nil
}

// mtzBigM computes M = 1 + max_{(i,j)} (close(i) + travel(i,j) + service(i) - open(i)),
// per spec §4.5.
func mtzBigM(in *cvrp.Instance) float64 {
	best := 0.0
	n := in.NumNodes()
	for i := 0; i < n; i++ {
		ni := in.Node(i)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if _, ok := in.Arc(i, j); !ok {
				continue
			}
			v := ni.Close + in.TravelTime(i, j) + ni.ServiceTime - ni.Open
			if v > best {
				best = v
			}
		}
	}
	return 1 + best
}

// recoverRoute walks from the depot picking the unique successor with
// x_{cur,j} > arcThreshold, stopping when the depot is revisited.
func recoverRoute(in *cvrp.Instance, xVar map[arcVar]int, sVar []int, sol *engine.Solution) (cvrp.Route, error) {
	cur := in.DepotIdx
	visited := map[int]bool{}
	stops := []cvrp.Stop{{NodeIdx: in.DepotIdx, Arrival: 0}}

	for {
		next := -1
		for j := 0; j < in.NumNodes(); j++ {
			if j == cur {
				continue
			}
			v, ok := xVar[arcVar{cur, j}]
			if !ok {
				continue
			}
			if sol.Value(v) > arcThreshold {
				next = j
				break
			}
		}
		if next == -1 {
			return cvrp.Route{}, ErrDegenerate
		}
		if next == in.DepotIdx {
			// sVar[cur] is cur's service-start time, not its finish time —
			// like every s variable, it excludes the node's own service time
			// (the MTZ rows add it only to the successor's bound), so it has
			// to be added explicitly before the return leg, as
			// feasibility.Arrivals does.
			finish := sol.Value(sVar[cur]) + in.Node(cur).ServiceTime
			stops = append(stops, cvrp.Stop{NodeIdx: in.DepotIdx, Arrival: finish + in.TravelTime(cur, in.DepotIdx)})
			break
		}
		if visited[next] {
			return cvrp.Route{}, ErrDegenerate
		}
		visited[next] = true
		stops = append(stops, cvrp.Stop{NodeIdx: next, Arrival: sol.Value(sVar[next])})
		cur = next
	}

	cost := 0.0
	for k := 1; k < len(stops); k++ {
		cost += in.Cost(stops[k-1].NodeIdx, stops[k].NodeIdx)
	}
	return cvrp.Route{Stops: stops, Cost: cost}, nil
}
