// Package store persists solve runs to Postgres, keyed by instance
// fingerprint, and exposes the embedded migrations that create its schema.
// The repository shape follows history-svc's calculation repository;
// columns replace flow/max-flow fields with CVRPTW's cost/route/iteration
// counters.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cvrptw/internal/cvrp"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory RunMigrations/Migrator look for files in,
// relative to the embedded filesystem root.
const MigrationsDir = "migrations"

// ErrRunNotFound is returned when a lookup finds no matching solve run.
var ErrRunNotFound = errors.New("solve run not found")

// Run is a persisted solve outcome. SolutionJSON holds the cvrp.Solution
// as compact encoding/json output (the same fields jsonsink emits, without
// its indentation), so a stored run can be replayed to any
// resultsink.Sink without re-running column generation.
type Run struct {
	ID            string
	Fingerprint   string
	NodeCount     int
	CustomerCount int
	Cost          float64
	RouteCount    int
	CGIterations  int
	SolveMs       float64
	SolutionJSON  []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SortOrder selects the ordering of a List call.
type SortOrder string

const (
	SortByCreatedDesc SortOrder = "created_desc"
	SortByCreatedAsc  SortOrder = "created_asc"
	SortByCostAsc     SortOrder = "cost_asc"
)

// ListFilter narrows a List call to runs matching all set fields.
type ListFilter struct {
	MinCost   *float64
	MaxCost   *float64
	StartTime *time.Time
	EndTime   *time.Time
}

// ListOptions paginates and orders a List call.
type ListOptions struct {
	Limit  int
	Offset int
	Filter *ListFilter
	Sort   SortOrder
}

// NewRun builds a Run ready for Save from a solved instance, the CG
// iteration count, and the wall-clock solve duration.
func NewRun(in *cvrp.Instance, sol *cvrp.Solution, cgIterations int, solveDuration time.Duration) (*Run, error) {
	data, err := json.Marshal(sol)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal solution: %w", err)
	}

	return &Run{
		Fingerprint:   in.Fingerprint(),
		NodeCount:     in.NumNodes(),
		CustomerCount: len(in.CustomerIndices()),
		Cost:          sol.Summary.Cost,
		RouteCount:    sol.Summary.Routes,
		CGIterations:  cgIterations,
		SolveMs:       float64(solveDuration.Microseconds()) / 1000.0,
		SolutionJSON:  data,
	}, nil
}

// Solution unmarshals run's stored SolutionJSON back into a cvrp.Solution.
func (r *Run) Solution() (*cvrp.Solution, error) {
	var sol cvrp.Solution
	if err := json.Unmarshal(r.SolutionJSON, &sol); err != nil {
		return nil, fmt.Errorf("failed to unmarshal solution: %w", err)
	}
	return &sol, nil
}

// Repository persists and retrieves solve runs.
type Repository interface {
	// Save upserts run by fingerprint: a resubmission of the same instance
	// and parameters replaces the stored run rather than duplicating it.
	Save(ctx context.Context, run *Run) error

	// GetByFingerprint returns the run stored for the given instance
	// fingerprint, or ErrRunNotFound if none exists.
	GetByFingerprint(ctx context.Context, fingerprint string) (*Run, error)

	// List returns a page of runs matching opts, most recent first unless
	// overridden, along with the total count of matching runs.
	List(ctx context.Context, opts *ListOptions) ([]*Run, int64, error)

	// Delete removes the run with the given ID.
	Delete(ctx context.Context, id string) error
}
