// Package resultsink defines the common surface every output format
// implements (spec §4.10): serializing a finished cvrp.Solution to a
// stream, with no further computation over it.
package resultsink

import (
	"io"

	"cvrptw/internal/cvrp"
)

// Sink writes a Solution to w in some output format.
type Sink interface {
	Write(w io.Writer, sol *cvrp.Solution) error
}
