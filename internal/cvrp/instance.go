// Package cvrp defines the data model for the capacitated vehicle routing
// problem with time windows: nodes, arcs, orders, routes, the route pool,
// and the parameter set that configures a solve.
package cvrp

import (
	"fmt"
	"math"
	"time"
)

// Epsilon is the tolerance used for floating-point comparisons across the
// solver. Mirrors the teacher's domain.Epsilon convention.
const Epsilon = 1e-9

// Infinity stands in for a missing arc's travel time or cost.
const Infinity = math.MaxFloat64

// NodeType distinguishes the single depot from customer nodes.
type NodeType int

const (
	NodeTypeUnspecified NodeType = iota
	NodeTypeDepot
	NodeTypeCustomer
)

// String returns a human-readable representation of the node type.
func (t NodeType) String() string {
	switch t {
	case NodeTypeDepot:
		return "depot"
	case NodeTypeCustomer:
		return "customer"
	default:
		return "unspecified"
	}
}

// Node is a depot or customer location with a hard time window.
type Node struct {
	Idx         int
	Lat         float64
	Long        float64
	Type        NodeType
	Open        float64
	Close       float64
	ServiceTime float64
}

// ArcKey identifies a directed arc by endpoint indices.
type ArcKey struct {
	From int
	To   int
}

// String returns the canonical "from->to" representation of the key.
func (k ArcKey) String() string {
	return fmt.Sprintf("%d->%d", k.From, k.To)
}

// Arc is a directed edge between two distinct nodes.
type Arc struct {
	From       int
	To         int
	TravelTime float64
	Cost       float64
}

// Order is the delivery demand attached to a customer node.
type Order struct {
	NodeIdx int
	Weight  float64
}

// Parameters is the closed, typed set of solve knobs from spec §3. Unknown
// keys have no place to live in this struct, which is the point: the
// compiler enforces the recognized set instead of a generic map.
type Parameters struct {
	TruckCapacity               float64
	FleetSize                   int
	MaxSolveTime                time.Duration
	ColumnGenerationSolveRatio  float64
	MasterProblemMIPGap         float64
	PricingProblemMIPGap        float64
	PricingProblemTimeLimit     time.Duration
	MinColumnGenerationProgress float64
	MaxCountNoImprovements      int
}

// DefaultParameters returns the defaults listed in spec §3.
func DefaultParameters() Parameters {
	return Parameters{
		TruckCapacity:               40000,
		FleetSize:                   3000,
		MaxSolveTime:                60 * time.Second,
		ColumnGenerationSolveRatio:  0.9,
		MasterProblemMIPGap:         0.01,
		PricingProblemMIPGap:        0.1,
		PricingProblemTimeLimit:     1 * time.Second,
		MinColumnGenerationProgress: 0.001,
		MaxCountNoImprovements:      10,
	}
}

// Instance is the immutable, validated graph + orders + parameters for a
// single solve. It is constructed once and never mutated afterwards; the
// Route Pool is the only mutable state the rest of the solver touches.
type Instance struct {
	Nodes      []Node
	Arcs       map[ArcKey]Arc
	Orders     map[int]Order
	Parameters Parameters
	DepotIdx   int
}

// NewInstance builds an Instance from loose slices/maps, resolving the
// depot index. It performs no validation — that is validate.Instance's job.
func NewInstance(nodes []Node, arcs map[ArcKey]Arc, orders map[int]Order, params Parameters) *Instance {
	depot := -1
	for _, n := range nodes {
		if n.Type == NodeTypeDepot {
			depot = n.Idx
			break
		}
	}
	return &Instance{
		Nodes:      nodes,
		Arcs:       arcs,
		Orders:     orders,
		Parameters: params,
		DepotIdx:   depot,
	}
}

// Node returns the node at idx. Panics if idx is out of range, matching
// the "dense arena" design note in spec §9 — indices are never sparse.
func (in *Instance) Node(idx int) Node {
	return in.Nodes[idx]
}

// NumNodes returns the number of nodes, including the depot.
func (in *Instance) NumNodes() int {
	return len(in.Nodes)
}

// Arc returns the arc (i,j), if present. A missing arc is equivalent to a
// prohibitively expensive one per spec §3.
func (in *Instance) Arc(i, j int) (Arc, bool) {
	a, ok := in.Arcs[ArcKey{From: i, To: j}]
	return a, ok
}

// TravelTime returns the travel time for arc (i,j), or Infinity
// (math.MaxFloat64) if absent.
func (in *Instance) TravelTime(i, j int) float64 {
	if a, ok := in.Arc(i, j); ok {
		return a.TravelTime
	}
	return Infinity
}

// Cost returns the cost for arc (i,j), or Infinity (math.MaxFloat64) if
// absent.
func (in *Instance) Cost(i, j int) float64 {
	if a, ok := in.Arc(i, j); ok {
		return a.Cost
	}
	return Infinity
}

// Weight returns the order weight for a customer node, or 0 for the depot.
func (in *Instance) Weight(nodeIdx int) float64 {
	if o, ok := in.Orders[nodeIdx]; ok {
		return o.Weight
	}
	return 0
}

// IsDepot reports whether idx is the depot node.
func (in *Instance) IsDepot(idx int) bool {
	return idx == in.DepotIdx
}

// CustomerIndices returns every non-depot node index, ascending.
func (in *Instance) CustomerIndices() []int {
	out := make([]int, 0, len(in.Nodes)-1)
	for _, n := range in.Nodes {
		if n.Idx != in.DepotIdx {
			out = append(out, n.Idx)
		}
	}
	return out
}
