// Package ingest defines the common surface every instance format reader
// implements (spec §4.8): a pure transformation from raw input bytes to a
// cvrp.Instance, with no validation beyond what parsing itself requires.
package ingest

import (
	"io"

	"cvrptw/internal/cvrp"
)

// Reader turns a raw instance description into a cvrp.Instance. A Reader
// performs no schema or reachability validation — that is
// validate.Instance's and validate.Reachability's job, run by the caller
// immediately afterward.
type Reader interface {
	Read(r io.Reader) (*cvrp.Instance, error)
}
