// Package xlsxsink writes a cvrp.Solution as an Excel workbook: a
// "Summary" sheet with the headline numbers and a "Routes" sheet listing
// every chosen route's stop sequence. Styling follows
// report-svc/internal/generator/excel.go's header-row convention.
package xlsxsink

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cvrptw/internal/cvrp"
)

// Sink writes a Solution as a two-sheet .xlsx workbook.
type Sink struct{}

// Write implements resultsink.Sink.
func (Sink) Write(w io.Writer, sol *cvrp.Solution) error {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeSummarySheet(f, sol, headerStyle); err != nil {
		return err
	}
	if err := writeRoutesSheet(f, sol, headerStyle); err != nil {
		return err
	}

	return f.Write(w)
}

func writeSummarySheet(f *excelize.File, sol *cvrp.Solution, headerStyle int) error {
	const sheet = "Summary"
	f.NewSheet(sheet)

	f.SetCellValue(sheet, cellAddr("A", 1), "Solve Summary")
	f.MergeCell(sheet, cellAddr("A", 1), cellAddr("B", 1))

	rows := []struct {
		label string
		value any
	}{
		{"Total Cost", sol.Summary.Cost},
		{"Route Count", sol.Summary.Routes},
	}
	row := 3
	for _, r := range rows {
		f.SetCellValue(sheet, cellAddr("A", row), r.label)
		f.SetCellValue(sheet, cellAddr("B", row), r.value)
		row++
	}
	if err := f.SetCellStyle(sheet, cellAddr("A", 1), cellAddr("B", 1), headerStyle); err != nil {
		return err
	}
	f.SetColWidth(sheet, "A", "B", 20)
	return nil
}

func writeRoutesSheet(f *excelize.File, sol *cvrp.Solution, headerStyle int) error {
	const sheet = "Routes"
	f.NewSheet(sheet)

	headers := []string{"Route ID", "Stop", "Node", "Arrival", "Route Cost"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", headerStyle); err != nil {
		return err
	}

	row := 2
	for _, r := range sol.Routes {
		for stopIdx, s := range r.Stops {
			f.SetCellValue(sheet, cellAddr("A", row), r.ID)
			f.SetCellValue(sheet, cellAddr("B", row), stopIdx)
			f.SetCellValue(sheet, cellAddr("C", row), s.NodeIdx)
			f.SetCellValue(sheet, cellAddr("D", row), s.Arrival)
			f.SetCellValue(sheet, cellAddr("E", row), r.Cost)
			row++
		}
	}
	f.SetColWidth(sheet, "A", "E", 14)
	return nil
}

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
