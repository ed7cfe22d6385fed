// Package validate runs the primary/foreign-key, range, and reachability
// checks spec §4.9 assigns to a collaborator outside the data model
// itself: Instance catches a malformed instance before it ever reaches
// construction, and Reachability catches one that parses cleanly but
// cannot be served by any vehicle.
package validate

import (
	"fmt"

	"cvrptw/internal/cvrp"
	"cvrptw/internal/feasibility"
	"cvrptw/pkg/apperror"
)

// Instance runs primary/foreign-key and range checks over in, collecting
// every violation rather than stopping at the first. A non-nil error is
// always an *apperror.Error carrying apperror.CodeSchemaInvalid.
func Instance(in *cvrp.Instance) error {
	errs := apperror.NewValidationErrors()

	checkNodes(in, errs)
	checkArcs(in, errs)
	checkOrders(in, errs)
	checkParameters(in, errs)

	if !errs.IsValid() {
		return apperror.New(apperror.CodeSchemaInvalid, schemaMessage(errs))
	}
	return nil
}

func schemaMessage(errs *apperror.ValidationErrors) string {
	if len(errs.Errors) == 1 {
		return errs.Errors[0].Message
	}
	return fmt.Sprintf("%d schema violations, first: %s", len(errs.Errors), errs.Errors[0].Message)
}

// checkNodes verifies index density/uniqueness, exactly one depot, and
// that every node's window can fit its own service time.
func checkNodes(in *cvrp.Instance, errs *apperror.ValidationErrors) {
	seen := make(map[int]bool, len(in.Nodes))
	depots := 0
	for _, n := range in.Nodes {
		if seen[n.Idx] {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("duplicate node index %d", n.Idx), "nodes.idx")
		}
		seen[n.Idx] = true

		if n.Type == cvrp.NodeTypeDepot {
			depots++
		}
		if n.Open+n.ServiceTime > n.Close+cvrp.Epsilon {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("node %d: open (%v) + service_time (%v) exceeds close (%v)",
					n.Idx, n.Open, n.ServiceTime, n.Close), "nodes.close")
		}
		if n.ServiceTime < 0 {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("node %d: negative service_time", n.Idx), "nodes.service_time")
		}
	}

	for idx := 0; idx < len(in.Nodes); idx++ {
		if !seen[idx] {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("node index %d is missing: indices must be dense, 0..n-1", idx), "nodes.idx")
		}
	}

	switch depots {
	case 1:
		// exactly one depot, as required
	case 0:
		errs.AddErrorWithField(apperror.CodeSchemaInvalid, "instance has no depot node", "nodes.type")
	default:
		errs.AddErrorWithField(apperror.CodeSchemaInvalid,
			fmt.Sprintf("instance has %d depot nodes, want exactly one", depots), "nodes.type")
	}

	if len(in.Nodes)-len(in.Orders) != 1 {
		errs.AddErrorWithField(apperror.CodeSchemaInvalid,
			fmt.Sprintf("node count (%d) minus order count (%d) must equal 1 (one order per customer, none for the depot)",
				len(in.Nodes), len(in.Orders)), "orders.node_idx")
	}
}

// checkArcs verifies every arc's endpoints are known nodes and its
// travel time and cost are non-negative.
func checkArcs(in *cvrp.Instance, errs *apperror.ValidationErrors) {
	for key, arc := range in.Arcs {
		if !nodeIndexKnown(in, key.From) {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("arc %s: start_idx %d is not a known node", key, key.From), "arcs.start_idx")
		}
		if !nodeIndexKnown(in, key.To) {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("arc %s: end_idx %d is not a known node", key, key.To), "arcs.end_idx")
		}
		if arc.TravelTime < 0 {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("arc %s: negative travel_time", key), "arcs.travel_time")
		}
		if arc.Cost < 0 {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("arc %s: negative cost", key), "arcs.cost")
		}
	}
}

func nodeIndexKnown(in *cvrp.Instance, idx int) bool {
	return idx >= 0 && idx < len(in.Nodes) && in.Nodes[idx].Idx == idx
}

// checkOrders verifies every order's node reference is a known customer
// and its weight fits within a single truck.
func checkOrders(in *cvrp.Instance, errs *apperror.ValidationErrors) {
	for nodeIdx, order := range in.Orders {
		if !nodeIndexKnown(in, nodeIdx) {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("order references unknown node_idx %d", nodeIdx), "orders.node_idx")
			continue
		}
		if in.Nodes[nodeIdx].Type != cvrp.NodeTypeCustomer {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("order references node %d, which is not a customer", nodeIdx), "orders.node_idx")
		}
		if order.Weight < 0 {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("order for node %d: negative weight", nodeIdx), "orders.weight")
		}
		if order.Weight > in.Parameters.TruckCapacity+cvrp.Epsilon {
			errs.AddErrorWithField(apperror.CodeSchemaInvalid,
				fmt.Sprintf("order for node %d: weight %v exceeds truck_capacity %v",
					nodeIdx, order.Weight, in.Parameters.TruckCapacity), "orders.weight")
		}
	}
}

// checkParameters verifies the knobs the construction and CG stages
// divide by or bound iteration with are sane.
func checkParameters(in *cvrp.Instance, errs *apperror.ValidationErrors) {
	p := in.Parameters
	if p.TruckCapacity <= 0 {
		errs.AddErrorWithField(apperror.CodeSchemaInvalid, "truck_capacity must be positive", "parameters.truck_capacity")
	}
	if p.FleetSize <= 0 {
		errs.AddErrorWithField(apperror.CodeSchemaInvalid, "fleet_size must be positive", "parameters.fleet_size")
	}
	if p.MaxSolveTime <= 0 {
		errs.AddErrorWithField(apperror.CodeSchemaInvalid, "max_solve_time must be positive", "parameters.max_solve_time")
	}
	if p.ColumnGenerationSolveRatio <= 0 || p.ColumnGenerationSolveRatio > 1 {
		errs.AddErrorWithField(apperror.CodeSchemaInvalid,
			"column_generation_solve_ratio must be in (0, 1]", "parameters.column_generation_solve_ratio")
	}
}

// Reachability checks the InstanceInfeasible condition from spec §7/
// Scenario E: every customer must be reachable from the depot and back
// within its own window, alone, as a singleton route — the boundary
// between validation and construction. Instance should be called first;
// Reachability assumes a schema-valid instance.
func Reachability(in *cvrp.Instance) error {
	for _, c := range in.CustomerIndices() {
		if !feasibility.Feasible(in, []int{c}) {
			return apperror.New(apperror.CodeInstanceInfeasible,
				fmt.Sprintf("customer %d is unreachable as a singleton route: no vehicle can visit it "+
					"within its time window and return to the depot without exceeding capacity", c))
		}
	}
	return nil
}
