// Package twmatrix precomputes the pairwise time-window compatibility
// matrix used by the initial route constructor (spec §4.2).
package twmatrix

import "cvrptw/internal/cvrp"

// NegInf is the sentinel for an incompatible (i,j) pair. Kept as a
// dedicated constant rather than math.Inf so callers can compare with
// plain equality the way spec §9 asks: "a reserved floating value
// consistently checked."
const NegInf = -1e18

// Matrix is the n x n slack matrix keyed by node index.
type Matrix struct {
	n          int
	values     []float64
	maxFiniteV float64
}

// Build computes TW per spec §4.2:
//
//	ae_j = open(i) + service_time(i) + travel(i,j)
//	al_j = close(j) + travel(i,j)
//	e_j  = open(j)
//	l_j  = close(j) - service_time(j)
//	TW[i,i] = -1
//	if l_j - ae_j > 0: TW[i,j] = min(l_j, al_j) - max(e_j, ae_j)
//	else:              TW[i,j] = -Inf
func Build(in *cvrp.Instance) *Matrix {
	n := in.NumNodes()
	m := &Matrix{n: n, values: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		ni := in.Node(i)
		for j := 0; j < n; j++ {
			if i == j {
				m.set(i, j, -1)
				continue
			}
			nj := in.Node(j)
			travel := in.TravelTime(i, j)
			aeJ := ni.Open + ni.ServiceTime + travel
			alJ := nj.Close + travel
			eJ := nj.Open
			lJ := nj.Close - nj.ServiceTime

			if lJ-aeJ > 0 {
				m.set(i, j, minF(lJ, alJ)-maxF(eJ, aeJ))
			} else {
				m.set(i, j, NegInf)
			}
		}
	}
	m.maxFiniteV = m.computeMaxFinite()
	return m
}

func (m *Matrix) idx(i, j int) int { return i*m.n + j }

func (m *Matrix) set(i, j int, v float64) { m.values[m.idx(i, j)] = v }

// At returns TW[i,j].
func (m *Matrix) At(i, j int) float64 {
	return m.values[m.idx(i, j)]
}

// Compatible reports whether TW[i,j] is finite (spec §9's "finite TW"
// reading of the merge/insertion admissibility check — the open question
// resolved in favor of "!= -Inf" throughout).
func (m *Matrix) Compatible(i, j int) bool {
	return m.At(i, j) != NegInf
}

// SeedValue computes seed_value(i) = sum_{j != i} (2*TW'[i,j] + TW'[j,i]),
// where TW' replaces -Inf with -big (big = 100 * max finite TW value).
func (m *Matrix) SeedValue(i int) float64 {
	big := m.maxFiniteV * 100
	var total float64
	for j := 0; j < m.n; j++ {
		if j == i {
			continue
		}
		total += 2*m.substituted(i, j, big) + m.substituted(j, i, big)
	}
	return total
}

func (m *Matrix) substituted(i, j int, big float64) float64 {
	v := m.At(i, j)
	if v == NegInf {
		return -big
	}
	return v
}

func (m *Matrix) computeMaxFinite() float64 {
	max := 0.0
	found := false
	for _, v := range m.values {
		if v == NegInf {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return 0
	}
	return max
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
