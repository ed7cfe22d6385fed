package twmatrix

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cvrptw/internal/cvrp"
)

func smallInstance() *cvrp.Instance {
	nodes := []cvrp.Node{
		{Idx: 0, Type: cvrp.NodeTypeDepot, Open: 0, Close: 100, ServiceTime: 0},
		{Idx: 1, Type: cvrp.NodeTypeCustomer, Open: 0, Close: 10, ServiceTime: 1},
		{Idx: 2, Type: cvrp.NodeTypeCustomer, Open: 50, Close: 60, ServiceTime: 1},
	}
	arcs := map[cvrp.ArcKey]cvrp.Arc{
		{From: 0, To: 1}: {From: 0, To: 1, TravelTime: 2, Cost: 2},
		{From: 1, To: 0}: {From: 1, To: 0, TravelTime: 2, Cost: 2},
		{From: 0, To: 2}: {From: 0, To: 2, TravelTime: 3, Cost: 3},
		{From: 2, To: 0}: {From: 2, To: 0, TravelTime: 3, Cost: 3},
		{From: 1, To: 2}: {From: 1, To: 2, TravelTime: 5, Cost: 5},
		{From: 2, To: 1}: {From: 2, To: 1, TravelTime: 5, Cost: 5},
	}
	return cvrp.NewInstance(nodes, arcs, nil, cvrp.DefaultParameters())
}

func TestBuild_DiagonalSentinel(t *testing.T) {
	m := Build(smallInstance())
	for i := 0; i < 3; i++ {
		require.Equal(t, -1.0, m.At(i, i))
	}
}

func TestBuild_IncompatiblePairIsNegInf(t *testing.T) {
	// Customer 1 closes at 10 with service 1, so l_j = close - service = 9;
	// arriving from 2 (ae_j = 50+1+5=56) can
	// never make it, so (2,1) must be incompatible.
	m := Build(smallInstance())
	require.False(t, m.Compatible(2, 1))
	require.Equal(t, NegInf, m.At(2, 1))
}

func TestBuild_CompatiblePairHasPositiveSlack(t *testing.T) {
	m := Build(smallInstance())
	require.True(t, m.Compatible(0, 1))
	require.Greater(t, m.At(0, 1), 0.0)
}

func TestSeedValue_NoInfinityLeaksIntoSum(t *testing.T) {
	m := Build(smallInstance())
	for i := 0; i < 3; i++ {
		v := m.SeedValue(i)
		require.False(t, v != v, "seed value must not be NaN")
		require.Greater(t, v, NegInf)
	}
}
