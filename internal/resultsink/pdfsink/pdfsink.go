// Package pdfsink writes a cvrp.Solution as a one-page PDF run summary:
// headline metrics followed by a route table. Composition follows
// report-svc/internal/generator/pdf.go's maroto v2 page/row/col idiom,
// trimmed to what a solve summary needs.
package pdfsink

import (
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"cvrptw/internal/cvrp"
)

var (
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}

	titleStyle = props.Text{Size: 24, Style: fontstyle.Bold, Align: align.Center, Color: headerBgColor}
	h2Style    = props.Text{Size: 16, Style: fontstyle.Bold, Color: headerBgColor, Top: 5}

	metricValueStyle = props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Center, Color: primaryColor}
	metricLabelStyle = props.Text{Size: 9, Align: align.Center, Color: darkGrayColor}

	tableHeaderTextStyle = props.Text{
		Size: 9, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}, Align: align.Center,
	}
	tableCellTextStyle = props.Text{Size: 9, Align: align.Center}
)

// Sink writes a Solution as a single-page PDF report.
type Sink struct{}

// Write implements resultsink.Sink.
func (Sink) Write(w io.Writer, sol *cvrp.Solution) error {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	addHeader(m)
	addSummary(m, sol)
	addRoutesTable(m, sol)
	addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdfsink: generate: %w", err)
	}

	_, err = w.Write(doc.GetBytes())
	return err
}

func addHeader(m core.Maroto) {
	m.AddRow(15, text.NewCol(12, "Vehicle Routing Solve Report", titleStyle))
	m.AddRow(5, line.NewCol(12))
	m.AddRow(6, text.NewCol(12,
		fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
		props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}))
	m.AddRow(8)
}

func addSummary(m core.Maroto, sol *cvrp.Solution) {
	m.AddRow(10, text.NewCol(12, "Summary", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(5)

	m.AddRow(20,
		col.New(6).Add(
			text.New(fmt.Sprintf("%.2f", sol.Summary.Cost), metricValueStyle),
			text.New("Total Cost", metricLabelStyle),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("%d", sol.Summary.Routes), metricValueStyle),
			text.New("Routes", metricLabelStyle),
		),
	)
}

func addRoutesTable(m core.Maroto, sol *cvrp.Solution) {
	m.AddRow(10, text.NewCol(12, "Routes", h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(5)

	m.AddRow(8,
		text.NewCol(2, "Route", tableHeaderTextStyle),
		text.NewCol(2, "Stop", tableHeaderTextStyle),
		text.NewCol(3, "Node", tableHeaderTextStyle),
		text.NewCol(3, "Arrival", tableHeaderTextStyle),
		text.NewCol(2, "Cost", tableHeaderTextStyle),
	)

	for _, r := range sol.Routes {
		for stopIdx, s := range r.Stops {
			m.AddRow(7,
				text.NewCol(2, fmt.Sprintf("%d", r.ID), tableCellTextStyle),
				text.NewCol(2, fmt.Sprintf("%d", stopIdx), tableCellTextStyle),
				text.NewCol(3, fmt.Sprintf("%d", s.NodeIdx), tableCellTextStyle),
				text.NewCol(3, fmt.Sprintf("%.2f", s.Arrival), tableCellTextStyle),
				text.NewCol(2, fmt.Sprintf("%.2f", r.Cost), tableCellTextStyle),
			)
		}
	}
}

func addFooter(m core.Maroto) {
	m.AddRow(10)
	m.AddRow(2, line.NewCol(12, props.Line{Color: lightGrayColor}))
	m.AddRow(6, text.NewCol(12,
		fmt.Sprintf("Generated by the CVRPTW solver | %s", time.Now().Format("2006-01-02 15:04:05")),
		props.Text{Size: 8, Color: darkGrayColor, Align: align.Center}))
}
