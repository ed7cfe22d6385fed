package engine

import (
	"context"
	"math"
	"time"
)

const simplexEpsilon = 1e-9

// TwoPhaseSimplex solves the LP relaxation of a Model with a dense-tableau
// two-phase primal simplex: phase one drives any artificial variables to
// zero to find a basic feasible solution, phase two optimizes the real
// objective from there. Bland's rule is used throughout (lowest index among
// ties, both entering and leaving) rather than Dantzig's largest-coefficient
// rule, trading a few extra pivots for the deterministic, cycle-free
// behavior spec §5 requires of the whole pipeline.
type TwoPhaseSimplex struct{}

// Solve implements Solver.
func (TwoPhaseSimplex) Solve(ctx context.Context, m *Model, opts SolveOptions) (*Solution, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline := time.Time{}
	if opts.TimeLimit > 0 {
		deadline = time.Now().Add(opts.TimeLimit)
	}

	if dl, ok := ctx.Deadline(); ok && (deadline.IsZero() || dl.Before(deadline)) {
		deadline = dl
	}

	sf := buildStandardForm(m)
	t := newTableau(sf)

	forbidden := make([]bool, t.cols)

	if len(sf.artificialCols) > 0 {
		phaseObj := make([]float64, t.cols)
		for _, col := range sf.artificialCols {
			phaseObj[col] = 1
		}
		status := t.optimize(phaseObj, forbidden, deadline)
		if status == StatusAbnormal {
			return &Solution{Status: StatusAbnormal}, nil
		}
		if t.objectiveValue(phaseObj) > 1e-6 {
			return &Solution{Status: StatusInfeasible}, nil
		}
		t.expelBasicArtificials(sf.artificialCols)
		for _, col := range sf.artificialCols {
			forbidden[col] = true
		}
	}

	realObj := make([]float64, t.cols)
	for varIdx, coeff := range m.objective {
		realObj[sf.varCol[varIdx]] = coeff
	}

	status := t.optimize(realObj, forbidden, deadline)

	sol := &Solution{Status: status}
	if status != StatusOptimal && status != StatusFeasibleSuboptimal {
		return sol, nil
	}

	sol.Values = make([]float64, m.NumVars())
	for varIdx := 0; varIdx < m.NumVars(); varIdx++ {
		col := sf.varCol[varIdx]
		sol.Values[varIdx] = t.columnValue(col) + m.vars[varIdx].lower
	}

	priceRow := t.reducedCosts(realObj)
	sol.Duals = make([]float64, m.NumConstraints())
	for ci := 0; ci < m.NumConstraints(); ci++ {
		sol.Duals[ci] = sf.dualOf(priceRow, ci)
	}

	obj := 0.0
	for varIdx, coeff := range m.objective {
		obj += coeff * sol.Values[varIdx]
	}
	sol.ObjectiveValue = obj
	return sol, nil
}

// standardForm is a Model rewritten into `A y = b, y >= 0` with the
// original variables shifted to y_i = x_i - lower_i and bounded-above
// variables given an explicit upper-bound row. Each original constraint
// contributes exactly one row, in order, followed by one row per finite
// variable upper bound — callers that need to map a constraint index back
// to its row rely on that ordering.
type standardForm struct {
	rows           []stdRow
	numCols        int
	varCol         []int // original var index -> column in y-space (identity today, kept for clarity)
	artificialCols []int
	numConstraints int
}

type stdRow struct {
	coeffs   []float64 // length numCols+1, last slot is RHS
	identCol int        // column holding this row's +1 identity entry (slack or artificial)
	flipped  bool       // true if the row was negated during normalization (original rhs was negative)
}

func buildStandardForm(m *Model) *standardForm {
	n := m.NumVars()
	varCol := make([]int, n)
	for i := range varCol {
		varCol[i] = i
	}

	type rawRow struct {
		coeffs map[int]float64
		sense  Sense
		rhs    float64
	}
	var raw []rawRow

	for _, c := range m.constraints {
		coeffs := make(map[int]float64, len(c.coeffs))
		rhs := c.rhs
		for varIdx, coeff := range c.coeffs {
			coeffs[varCol[varIdx]] = coeff
			rhs -= coeff * m.vars[varIdx].lower
		}
		raw = append(raw, rawRow{coeffs: coeffs, sense: c.sense, rhs: rhs})
	}
	numConstraints := len(raw)

	for i, v := range m.vars {
		if !math.IsInf(v.upper, 1) {
			raw = append(raw, rawRow{
				coeffs: map[int]float64{varCol[i]: 1},
				sense:  LE,
				rhs:    v.upper - v.lower,
			})
		}
	}

	extraCols := 0
	for _, r := range raw {
		sense := r.sense
		if r.rhs < 0 {
			sense = flipSense(sense)
		}
		switch sense {
		case LE:
			extraCols++
		case GE:
			extraCols += 2
		case EQ:
			extraCols++
		}
	}

	numCols := n + extraCols
	sf := &standardForm{numCols: numCols, varCol: varCol, numConstraints: numConstraints}

	nextCol := n
	for _, r := range raw {
		rhs := r.rhs
		sense := r.sense
		flipped := false
		coeffs := make([]float64, numCols+1)
		for col, coeff := range r.coeffs {
			coeffs[col] = coeff
		}
		if rhs < 0 {
			for col := 0; col < numCols; col++ {
				coeffs[col] = -coeffs[col]
			}
			rhs = -rhs
			sense = flipSense(sense)
			flipped = true
		}
		coeffs[numCols] = rhs

		var identCol int
		switch sense {
		case LE:
			slack := nextCol
			nextCol++
			coeffs[slack] = 1
			identCol = slack
		case GE:
			surplus := nextCol
			nextCol++
			artificial := nextCol
			nextCol++
			coeffs[surplus] = -1
			coeffs[artificial] = 1
			identCol = artificial
			sf.artificialCols = append(sf.artificialCols, artificial)
		case EQ:
			artificial := nextCol
			nextCol++
			coeffs[artificial] = 1
			identCol = artificial
			sf.artificialCols = append(sf.artificialCols, artificial)
		}

		sf.rows = append(sf.rows, stdRow{coeffs: coeffs, identCol: identCol, flipped: flipped})
	}
	return sf
}

// dualOf reads constraint ci's shadow price off a final price row (reduced
// costs under the real objective, cost 0 at every slack/artificial column).
// For row i's identity column (coefficient +1 in the row as actually built),
// reduced[identCol] = cost[identCol] - z = 0 - y_i = -y_i, where y_i is the
// simplex multiplier for that row as built. If the row was negated during
// normalization (original rhs was negative), the row actually built is the
// negation of the original constraint, so its multiplier is the negation of
// the original constraint's dual; undo both negations accordingly.
func (sf *standardForm) dualOf(priceRow []float64, ci int) float64 {
	if ci >= sf.numConstraints {
		return 0
	}
	row := sf.rows[ci]
	y := -priceRow[row.identCol]
	if row.flipped {
		return -y
	}
	return y
}

func flipSense(s Sense) Sense {
	switch s {
	case LE:
		return GE
	case GE:
		return LE
	default:
		return EQ
	}
}

// tableau is the dense m x (cols+1) working array: each row holds the
// current coefficients for all columns plus the RHS in the last slot.
type tableau struct {
	rows  [][]float64
	basis []int
	cols  int // does not include the RHS slot
}

func newTableau(sf *standardForm) *tableau {
	t := &tableau{cols: sf.numCols}
	t.rows = make([][]float64, len(sf.rows))
	t.basis = make([]int, len(sf.rows))
	for i, r := range sf.rows {
		row := make([]float64, len(r.coeffs))
		copy(row, r.coeffs)
		t.rows[i] = row
		t.basis[i] = r.identCol
	}
	return t
}

func (t *tableau) rhs(row int) float64 { return t.rows[row][t.cols] }

// columnValue returns the current basic value of a column (0 if
// non-basic).
func (t *tableau) columnValue(col int) float64 {
	for r, b := range t.basis {
		if b == col {
			return t.rhs(r)
		}
	}
	return 0
}

// optimize runs primal simplex minimizing the given dense cost vector
// (length t.cols) against the current basis, using Bland's rule, until no
// improving column remains, the problem is found unbounded, or the
// deadline passes. Columns marked in forbidden are never chosen as
// entering (used to keep phase-one artificials out of phase two while
// still letting their reduced cost be read for duals).
func (t *tableau) optimize(cost []float64, forbidden []bool, deadline time.Time) Status {
	for iter := 0; ; iter++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return StatusFeasibleSuboptimal
		}
		reduced := t.reducedCosts(cost)

		entering := -1
		for col := 0; col < t.cols; col++ {
			if forbidden != nil && forbidden[col] {
				continue
			}
			if reduced[col] < -simplexEpsilon {
				entering = col
				break // Bland's rule: lowest index
			}
		}
		if entering == -1 {
			return StatusOptimal
		}

		leaving := -1
		bestRatio := math.Inf(1)
		for r := 0; r < len(t.rows); r++ {
			a := t.rows[r][entering]
			if a <= simplexEpsilon {
				continue
			}
			ratio := t.rhs(r) / a
			if ratio < bestRatio-simplexEpsilon ||
				(math.Abs(ratio-bestRatio) <= simplexEpsilon && (leaving == -1 || t.basis[r] < t.basis[leaving])) {
				bestRatio = ratio
				leaving = r
			}
		}
		if leaving == -1 {
			return StatusAbnormal // unbounded
		}

		t.pivot(leaving, entering)

		if iter > 20000 {
			return StatusAbnormal
		}
	}
}

// reducedCosts computes, for every column, cost[j] - c_B^T B^-1 A_j. The
// tableau's current rows already equal B^-1 A for every column, since each
// pivot maintains that invariant.
func (t *tableau) reducedCosts(cost []float64) []float64 {
	cB := make([]float64, len(t.rows))
	for r, b := range t.basis {
		cB[r] = cost[b]
	}
	reduced := make([]float64, t.cols)
	for col := 0; col < t.cols; col++ {
		z := 0.0
		for r := 0; r < len(t.rows); r++ {
			z += cB[r] * t.rows[r][col]
		}
		reduced[col] = cost[col] - z
	}
	return reduced
}

func (t *tableau) pivot(row, col int) {
	pv := t.rows[row][col]
	for j := range t.rows[row] {
		t.rows[row][j] /= pv
	}
	for r := range t.rows {
		if r == row {
			continue
		}
		factor := t.rows[r][col]
		if factor == 0 {
			continue
		}
		for j := range t.rows[r] {
			t.rows[r][j] -= factor * t.rows[row][j]
		}
	}
	t.basis[row] = col
}

func (t *tableau) objectiveValue(cost []float64) float64 {
	total := 0.0
	for r, b := range t.basis {
		total += cost[b] * t.rhs(r)
	}
	return total
}

// expelBasicArtificials pivots any artificial variable still basic at
// value zero out of the basis, preferring the lowest-index real column
// with a nonzero coefficient in that row. A row where no such column
// exists is a redundant constraint; its artificial is left in place — its
// value is zero so it contributes nothing once forbidden from phase two.
func (t *tableau) expelBasicArtificials(artificialCols []int) {
	isArtificial := make(map[int]bool, len(artificialCols))
	for _, c := range artificialCols {
		isArtificial[c] = true
	}
	for r, b := range t.basis {
		if !isArtificial[b] {
			continue
		}
		for col := 0; col < t.cols; col++ {
			if isArtificial[col] {
				continue
			}
			if math.Abs(t.rows[r][col]) > simplexEpsilon {
				t.pivot(r, col)
				break
			}
		}
	}
}
