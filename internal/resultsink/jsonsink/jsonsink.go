// Package jsonsink writes a cvrp.Solution as-is to JSON. No library in
// the retrieved pack reaches beyond stdlib encoding/json for plain JSON
// output, so this sink is stdlib only.
package jsonsink

import (
	"encoding/json"
	"io"

	"cvrptw/internal/cvrp"
)

// Sink writes an indented JSON rendering of a Solution.
type Sink struct{}

// Write implements resultsink.Sink.
func (Sink) Write(w io.Writer, sol *cvrp.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sol)
}
