package xlsxsink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cvrptw/internal/cvrp"
)

func toySolution() *cvrp.Solution {
	return &cvrp.Solution{
		Summary: cvrp.Summary{Cost: 696.3, Routes: 1},
		Routes: []cvrp.Route{
			{
				ID: 0,
				Stops: []cvrp.Stop{
					{NodeIdx: 0, Arrival: 0},
					{NodeIdx: 2, Arrival: 8.55},
					{NodeIdx: 1, Arrival: 13},
					{NodeIdx: 0, Arrival: 15.36},
				},
				Cost: 696.3,
			},
		},
	}
}

func TestWrite_ProducesSummaryAndRoutesSheets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Sink{}.Write(&buf, toySolution()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Contains(t, sheets, "Summary")
	require.Contains(t, sheets, "Routes")

	cost, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	require.Equal(t, "696.3", cost)

	routeCount, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	require.Equal(t, "1", routeCount)
}

func TestWrite_RoutesSheetHasOneRowPerStop(t *testing.T) {
	var buf bytes.Buffer
	sol := toySolution()
	require.NoError(t, Sink{}.Write(&buf, sol))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Routes")
	require.NoError(t, err)
	// header + 4 stops
	require.Len(t, rows, len(sol.Routes[0].Stops)+1)
	require.Equal(t, []string{"Route ID", "Stop", "Node", "Arrival", "Route Cost"}, rows[0])
}
