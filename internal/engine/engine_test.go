package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwoPhaseSimplex_SimpleCoveringLP(t *testing.T) {
	// minimize 2x + 3y s.t. x + y >= 4, 0 <= x,y <= 10.
	// Optimal at x=4, y=0 (cheaper variable takes the full slack), obj=8,
	// and the >= constraint's shadow price equals the cheaper unit cost, 2.
	m := NewModel()
	x := m.AddContinuousVar("x", 0, 10)
	y := m.AddContinuousVar("y", 0, 10)
	m.AddConstraint("cover", map[int]float64{x: 1, y: 1}, GE, 4)
	m.SetObjectiveCoeff(x, 2)
	m.SetObjectiveCoeff(y, 3)

	sol, err := TwoPhaseSimplex{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	require.InDelta(t, 8, sol.ObjectiveValue, 1e-6)
	require.InDelta(t, 4, sol.Value(x), 1e-6)
	require.InDelta(t, 0, sol.Value(y), 1e-6)
	require.InDelta(t, 2, sol.Dual(0), 1e-6)
}

func TestTwoPhaseSimplex_SetCoveringDual(t *testing.T) {
	// Mirrors the master LP's shape (spec §4.4): two route variables in
	// [0,1], one covering constraint, minimize route cost.
	m := NewModel()
	z1 := m.AddContinuousVar("z1", 0, 1)
	z2 := m.AddContinuousVar("z2", 0, 1)
	m.AddConstraint("cover_customer", map[int]float64{z1: 1, z2: 1}, GE, 1)
	m.SetObjectiveCoeff(z1, 5)
	m.SetObjectiveCoeff(z2, 3)

	sol, err := TwoPhaseSimplex{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	require.InDelta(t, 3, sol.ObjectiveValue, 1e-6)
	require.InDelta(t, 1, sol.Value(z2), 1e-6)
	require.InDelta(t, 3, sol.Dual(0), 1e-6)
}

func TestTwoPhaseSimplex_Infeasible(t *testing.T) {
	// x <= 1 and x >= 2 can never both hold.
	m := NewModel()
	x := m.AddContinuousVar("x", 0, 1)
	m.AddConstraint("lower", map[int]float64{x: 1}, GE, 2)
	m.SetObjectiveCoeff(x, 1)

	sol, err := TwoPhaseSimplex{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, sol.Status)
}

func TestTwoPhaseSimplex_EqualityConstraint(t *testing.T) {
	// x + y = 5, minimize x + 2y -> x=5, y=0.
	m := NewModel()
	x := m.AddContinuousVar("x", 0, 10)
	y := m.AddContinuousVar("y", 0, 10)
	m.AddConstraint("eq", map[int]float64{x: 1, y: 1}, EQ, 5)
	m.SetObjectiveCoeff(x, 1)
	m.SetObjectiveCoeff(y, 2)

	sol, err := TwoPhaseSimplex{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	require.InDelta(t, 5, sol.ObjectiveValue, 1e-6)
	require.InDelta(t, 5, sol.Value(x), 1e-6)
}

func TestBranchAndBound_BinaryCovering(t *testing.T) {
	// minimize 2x + 3y s.t. x + y >= 1, x,y binary. LP relaxation could
	// split fractionally; the IP optimum must pick x=1, y=0, obj=2.
	m := NewModel()
	x := m.AddBinaryVar("x")
	y := m.AddBinaryVar("y")
	m.AddConstraint("cover", map[int]float64{x: 1, y: 1}, GE, 1)
	m.SetObjectiveCoeff(x, 2)
	m.SetObjectiveCoeff(y, 3)

	sol, err := BranchAndBound{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, sol.Status)
	require.InDelta(t, 2, sol.ObjectiveValue, 1e-6)
	require.InDelta(t, 1, sol.Value(x), 1e-6)
	require.InDelta(t, 0, sol.Value(y), 1e-6)
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	m := NewModel()
	x := m.AddBinaryVar("x")
	m.AddConstraint("impossible", map[int]float64{x: 1}, GE, 2)
	m.SetObjectiveCoeff(x, 1)

	sol, err := BranchAndBound{}.Solve(context.Background(), m, SolveOptions{})
	require.NoError(t, err)
	require.Equal(t, StatusInfeasible, sol.Status)
}
