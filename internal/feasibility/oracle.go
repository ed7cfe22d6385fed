// Package feasibility implements the pure Route Feasibility Oracle from
// spec §4.1: time-window and capacity predicates over an ordered customer
// sequence, with the depot implicit at both ends.
package feasibility

import "cvrptw/internal/cvrp"

// TimeFeasible walks the sequence from the depot and reports whether every
// stop, including the return-to-depot arc, finishes by its close time.
//
//	finish(c_i) = max(finish(c_i-1) + travel(c_i-1, c_i), open(c_i)) + service_time(c_i)
//
// with finish(depot) = 0.
func TimeFeasible(in *cvrp.Instance, customers []int) bool {
	if len(customers) == 0 {
		return true
	}
	finish := 0.0
	prev := in.DepotIdx
	for _, c := range customers {
		arrival := finish + in.TravelTime(prev, c)
		node := in.Node(c)
		finish = maxF(arrival, node.Open) + node.ServiceTime
		if finish > node.Close+cvrp.Epsilon {
			return false
		}
		prev = c
	}
	// Return-to-depot arc.
	depot := in.Node(in.DepotIdx)
	finishDepot := finish + in.TravelTime(prev, in.DepotIdx)
	if finishDepot > depot.Close+cvrp.Epsilon {
		return false
	}
	return true
}

// CapacityFeasible reports whether the total order weight of the sequence
// does not exceed the instance's truck capacity.
func CapacityFeasible(in *cvrp.Instance, customers []int) bool {
	var total float64
	for _, c := range customers {
		total += in.Weight(c)
	}
	return total <= in.Parameters.TruckCapacity+cvrp.Epsilon
}

// Feasible is the conjunction of TimeFeasible and CapacityFeasible.
func Feasible(in *cvrp.Instance, customers []int) bool {
	return TimeFeasible(in, customers) && CapacityFeasible(in, customers)
}

// Arrivals recomputes the arrival-time recurrence for a customer sequence
// and returns the full stop list, depot included at both ends, the way
// construction-produced routes get their arrival field (spec §9).
func Arrivals(in *cvrp.Instance, customers []int) []cvrp.Stop {
	stops := make([]cvrp.Stop, 0, len(customers)+2)
	stops = append(stops, cvrp.Stop{NodeIdx: in.DepotIdx, Arrival: 0})

	finish := 0.0
	prev := in.DepotIdx
	for _, c := range customers {
		arrival := finish + in.TravelTime(prev, c)
		node := in.Node(c)
		finish = maxF(arrival, node.Open) + node.ServiceTime
		stops = append(stops, cvrp.Stop{NodeIdx: c, Arrival: finish})
		prev = c
	}
	finishDepot := finish + in.TravelTime(prev, in.DepotIdx)
	stops = append(stops, cvrp.Stop{NodeIdx: in.DepotIdx, Arrival: finishDepot})
	return stops
}

// Cost sums arc costs along the depot-to-depot sequence.
func Cost(in *cvrp.Instance, customers []int) float64 {
	if len(customers) == 0 {
		return 0
	}
	total := in.Cost(in.DepotIdx, customers[0])
	for i := 1; i < len(customers); i++ {
		total += in.Cost(customers[i-1], customers[i])
	}
	total += in.Cost(customers[len(customers)-1], in.DepotIdx)
	return total
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
