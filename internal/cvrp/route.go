package cvrp

import "sync"

// Stop is one visited node on a route, carrying the arrival time. Field
// names follow spec §6's external wire shape (node_idx, arrival).
type Stop struct {
	NodeIdx int     `json:"node_idx"`
	Arrival float64 `json:"arrival"`
}

// Route is an ordered sequence (depot, c1, ..., ck, depot). Stops[0] and
// Stops[len(Stops)-1] are always the depot. Routes are immutable once
// inserted into a RoutePool.
type Route struct {
	ID    int     `json:"id"`
	Stops []Stop  `json:"stops"`
	Cost  float64 `json:"cost"`
}

// Customers returns the customer node indices on the route, excluding the
// depot at either end.
func (r Route) Customers() []int {
	if len(r.Stops) <= 2 {
		return nil
	}
	out := make([]int, 0, len(r.Stops)-2)
	for _, s := range r.Stops[1 : len(r.Stops)-1] {
		out = append(out, s.NodeIdx)
	}
	return out
}

// Weight returns the total order weight carried on the route.
func (r Route) Weight(in *Instance) float64 {
	var total float64
	for _, c := range r.Customers() {
		total += in.Weight(c)
	}
	return total
}

// Covers reports whether the route visits the given customer node.
func (r Route) Covers(nodeIdx int) bool {
	for _, c := range r.Customers() {
		if c == nodeIdx {
			return true
		}
	}
	return false
}

// RoutePool is the monotonically growing, thread-owned collection of known
// routes. IDs are dense and assigned on insertion; nothing is ever removed
// (spec §3 "Route pool").
type RoutePool struct {
	mu     sync.Mutex
	routes []Route
}

// NewRoutePool returns an empty pool.
func NewRoutePool() *RoutePool {
	return &RoutePool{}
}

// Add assigns the next dense ID to route and inserts it, returning the ID.
func (p *RoutePool) Add(route Route) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	route.ID = len(p.routes)
	p.routes = append(p.routes, route)
	return route.ID
}

// Len returns the number of routes currently in the pool.
func (p *RoutePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.routes)
}

// Get returns the route with the given ID.
func (p *RoutePool) Get(id int) (Route, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id < 0 || id >= len(p.routes) {
		return Route{}, false
	}
	return p.routes[id], true
}

// All returns a snapshot copy of every route currently in the pool, ordered
// by ID.
func (p *RoutePool) All() []Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Route, len(p.routes))
	copy(out, p.routes)
	return out
}

// Summary holds the headline numbers of a solve, matching spec §6's
// external `summary` mapping (cost, routes).
type Summary struct {
	Cost   float64 `json:"cost"`
	Routes int     `json:"routes"`
}

// Solution is the final output: the chosen routes and summary statistics.
type Solution struct {
	Summary Summary `json:"summary"`
	Routes  []Route `json:"routes"`
}
