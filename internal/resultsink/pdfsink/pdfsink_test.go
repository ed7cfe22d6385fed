package pdfsink

import (
	"bytes"
	"testing"

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

func TestWrite_ProducesAValidPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := (Sink{}).Write(&buf, toySolution()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	result := buf.Bytes()
	if len(result) < 5 {
		t.Fatal("PDF file too small")
	}
	// PDF signature: %PDF-
	if string(result[:5]) != "%PDF-" {
		t.Error("result doesn't look like a valid PDF file")
	}
}

func TestWrite_EmptySolutionStillProducesAValidPDF(t *testing.T) {
	var buf bytes.Buffer
	empty := &cvrp.Solution{Summary: cvrp.Summary{Cost: 0, Routes: 0}}
	if err := (Sink{}).Write(&buf, empty); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if string(buf.Bytes()[:5]) != "%PDF-" {
		t.Error("result doesn't look like a valid PDF file")
	}
}
