// Package constructor builds the initial pool of feasible routes that
// seeds the master problem (spec §4.3).
package constructor

import (
	"errors"
	"sort"

	"cvrptw/internal/cvrp"
	"cvrptw/internal/feasibility"
	"cvrptw/internal/twmatrix"
)

// ErrConstructionImpossible is returned when some customer cannot be
// placed anywhere admissible. Corresponds to spec §7's ConstructionImpossible.
var ErrConstructionImpossible = errors.New("construction impossible: no admissible placement for a customer")

// workingRoute is a route under construction: customer indices only, depot
// implicit at both ends.
type workingRoute struct {
	customers []int
	weight    float64
}

// Build runs seed selection, insertion, and the merge pass, returning a
// dense-ID route pool covering every customer. Returns
// ErrConstructionImpossible if some customer has no admissible placement.
func Build(in *cvrp.Instance) (*cvrp.RoutePool, *twmatrix.Matrix, error) {
	tw := twmatrix.Build(in)

	customers := in.CustomerIndices()
	seedOrder := sortBySeedValue(tw, customers)

	fleet := in.Parameters.FleetSize
	if fleet > len(seedOrder) {
		fleet = len(seedOrder)
	}

	seeds := seedOrder[:fleet]
	queue := seedOrder[fleet:]

	routes := make([]*workingRoute, 0, len(seeds))
	for _, c := range seeds {
		if in.Weight(c) > in.Parameters.TruckCapacity+cvrp.Epsilon {
			return nil, nil, ErrConstructionImpossible
		}
		routes = append(routes, &workingRoute{customers: []int{c}, weight: in.Weight(c)})
	}

	for _, c := range queue {
		if err := insert(in, tw, routes, c); err != nil {
			return nil, nil, err
		}
	}

	merged := mergePass(in, tw, routes)

	pool := cvrp.NewRoutePool()
	for _, r := range merged {
		stops := feasibility.Arrivals(in, r.customers)
		cost := feasibility.Cost(in, r.customers)
		pool.Add(cvrp.Route{Stops: stops, Cost: cost})
	}
	return pool, tw, nil
}

// sortBySeedValue orders customer indices ascending by seed_value, the
// "outliers first" ordering from spec §4.3.
func sortBySeedValue(tw *twmatrix.Matrix, customers []int) []int {
	out := make([]int, len(customers))
	copy(out, customers)
	sort.SliceStable(out, func(i, j int) bool {
		return tw.SeedValue(out[i]) < tw.SeedValue(out[j])
	})
	return out
}

// insertion position kinds, matching spec §4.3's canonical enumeration
// (head, strictly-middle, tail) — collapsing the original source's
// "middle and tail overlap when customer_index == len(route)-1" quirk.
type placement struct {
	routeIdx int
	position int // index at which to insert into customers slice
	cost     float64
}

func insert(in *cvrp.Instance, tw *twmatrix.Matrix, routes []*workingRoute, c int) error {
	best := placement{routeIdx: -1, cost: 0}
	found := false

	for ri, r := range routes {
		if r.weight+in.Weight(c) > in.Parameters.TruckCapacity+cvrp.Epsilon {
			continue
		}

		n := len(r.customers)
		for pos := 0; pos <= n; pos++ {
			candidateCost, admissible := evaluatePlacement(in, tw, r.customers, pos, c)
			if !admissible {
				continue
			}
			if !found || candidateCost < best.cost-cvrp.Epsilon ||
				(floatEq(candidateCost, best.cost) && ri < best.routeIdx) {
				best = placement{routeIdx: ri, position: pos, cost: candidateCost}
				found = true
			}
		}
	}

	if !found {
		return ErrConstructionImpossible
	}

	r := routes[best.routeIdx]
	seq := make([]int, 0, len(r.customers)+1)
	seq = append(seq, r.customers[:best.position]...)
	seq = append(seq, c)
	seq = append(seq, r.customers[best.position:]...)
	r.customers = seq
	r.weight += in.Weight(c)
	return nil
}

// evaluatePlacement computes the insertion cost of placing c at index pos
// in customers, and whether doing so is admissible per spec §4.3:
// capacity (checked by the caller), finite TW on every adjacent pair in
// the prospective sequence, and time_feasible on the whole result.
func evaluatePlacement(in *cvrp.Instance, tw *twmatrix.Matrix, customers []int, pos, c int) (float64, bool) {
	n := len(customers)
	serviceTime := in.Node(c).ServiceTime

	var cost float64
	var twOK bool

	switch {
	case n == 0:
		// Singleton route: depot -> c -> depot. Always admissible if the
		// oracle agrees (capacity already checked by caller).
		cost = in.Cost(in.DepotIdx, c) + serviceTime + in.Cost(c, in.DepotIdx)
		twOK = true

	case pos == 0:
		first := customers[0]
		cost = in.Cost(in.DepotIdx, c) + serviceTime + in.Cost(c, first) - in.Cost(in.DepotIdx, first)
		twOK = tw.Compatible(c, first)

	case pos == n:
		last := customers[n-1]
		cost = in.Cost(last, c) + serviceTime
		twOK = tw.Compatible(last, c)

	default:
		prev, next := customers[pos-1], customers[pos]
		cost = in.Cost(prev, c) + in.Cost(c, next) - in.Cost(prev, next) + serviceTime
		twOK = tw.Compatible(prev, c) && tw.Compatible(c, next)
	}

	if !twOK {
		return 0, false
	}

	prospective := make([]int, 0, n+1)
	prospective = append(prospective, customers[:pos]...)
	prospective = append(prospective, c)
	prospective = append(prospective, customers[pos:]...)

	if !feasibility.TimeFeasible(in, prospective) {
		return 0, false
	}
	return cost, true
}

// mergePass greedily concatenates route pairs per spec §4.3: for each
// ordered pair (A,B) not already merged this pass, try A+B then B+A.
func mergePass(in *cvrp.Instance, tw *twmatrix.Matrix, routes []*workingRoute) []*workingRoute {
	merged := make([]bool, len(routes))
	var result []*workingRoute
	var pendingMerges [][2]int

	for i := range routes {
		if merged[i] {
			continue
		}
		for j := range routes {
			if i == j || merged[i] || merged[j] {
				continue
			}
			a, b := routes[i], routes[j]
			if tw.Compatible(last(a), first(b)) && feasible(in, a, b) {
				pendingMerges = append(pendingMerges, [2]int{i, j})
				merged[i], merged[j] = true, true
				break
			} else if tw.Compatible(last(b), first(a)) && feasible(in, b, a) {
				pendingMerges = append(pendingMerges, [2]int{j, i})
				merged[i], merged[j] = true, true
				break
			}
		}
	}

	for _, pair := range pendingMerges {
		a, b := routes[pair[0]], routes[pair[1]]
		combined := append(append([]int{}, a.customers...), b.customers...)
		result = append(result, &workingRoute{customers: combined, weight: a.weight + b.weight})
	}
	for i, r := range routes {
		if !merged[i] {
			result = append(result, r)
		}
	}
	return result
}

func last(r *workingRoute) int  { return r.customers[len(r.customers)-1] }
func first(r *workingRoute) int { return r.customers[0] }

func feasible(in *cvrp.Instance, a, b *workingRoute) bool {
	combined := append(append([]int{}, a.customers...), b.customers...)
	return feasibility.Feasible(in, combined)
}

func floatEq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < cvrp.Epsilon
}
