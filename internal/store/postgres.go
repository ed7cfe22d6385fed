package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cvrptw/pkg/database"
	"cvrptw/pkg/telemetry"
)

// PostgresRepository is the Postgres-backed Repository.
type PostgresRepository struct {
	db database.DB
}

// NewPostgresRepository wraps db as a Repository.
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, run *Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.Save")
	defer span.End()

	query := `
		INSERT INTO solve_runs (
			fingerprint, node_count, customer_count, cost, route_count,
			cg_iterations, solve_ms, solution
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (fingerprint) DO UPDATE SET
			node_count     = EXCLUDED.node_count,
			customer_count = EXCLUDED.customer_count,
			cost           = EXCLUDED.cost,
			route_count    = EXCLUDED.route_count,
			cg_iterations  = EXCLUDED.cg_iterations,
			solve_ms       = EXCLUDED.solve_ms,
			solution       = EXCLUDED.solution,
			updated_at     = now()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		run.Fingerprint,
		run.NodeCount,
		run.CustomerCount,
		run.Cost,
		run.RouteCount,
		run.CGIterations,
		run.SolveMs,
		run.SolutionJSON,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save solve run: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByFingerprint(ctx context.Context, fingerprint string) (*Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.GetByFingerprint")
	defer span.End()

	query := `
		SELECT
			id, fingerprint, node_count, customer_count, cost, route_count,
			cg_iterations, solve_ms, solution, created_at, updated_at
		FROM solve_runs
		WHERE fingerprint = $1
	`

	run := &Run{}
	err := r.db.QueryRow(ctx, query, fingerprint).Scan(
		&run.ID,
		&run.Fingerprint,
		&run.NodeCount,
		&run.CustomerCount,
		&run.Cost,
		&run.RouteCount,
		&run.CGIterations,
		&run.SolveMs,
		&run.SolutionJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get solve run: %w", err)
	}

	return run, nil
}

func (r *PostgresRepository) List(ctx context.Context, opts *ListOptions) ([]*Run, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.List")
	defer span.End()

	if opts == nil {
		opts = &ListOptions{Limit: 20, Sort: SortByCreatedDesc}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	where, args := buildWhereClause(opts.Filter)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM solve_runs WHERE %s`, where)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count solve runs: %w", err)
	}

	orderBy := buildOrderBy(opts.Sort)
	selectQuery := fmt.Sprintf(`
		SELECT
			id, fingerprint, node_count, customer_count, cost, route_count,
			cg_iterations, solve_ms, solution, created_at, updated_at
		FROM solve_runs
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list solve runs: %w", err)
	}
	defer rows.Close()

	var results []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(
			&run.ID,
			&run.Fingerprint,
			&run.NodeCount,
			&run.CustomerCount,
			&run.Cost,
			&run.RouteCount,
			&run.CGIterations,
			&run.SolveMs,
			&run.SolutionJSON,
			&run.CreatedAt,
			&run.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan solve run: %w", err)
		}
		results = append(results, run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, total, nil
}

func buildWhereClause(filter *ListFilter) (string, []any) {
	conditions := []string{"TRUE"}
	args := []any{}
	argNum := 1

	if filter != nil {
		if filter.MinCost != nil {
			conditions = append(conditions, fmt.Sprintf("cost >= $%d", argNum))
			args = append(args, *filter.MinCost)
			argNum++
		}
		if filter.MaxCost != nil {
			conditions = append(conditions, fmt.Sprintf("cost <= $%d", argNum))
			args = append(args, *filter.MaxCost)
			argNum++
		}
		if filter.StartTime != nil {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
			args = append(args, *filter.StartTime)
			argNum++
		}
		if filter.EndTime != nil {
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
			args = append(args, *filter.EndTime)
		}
	}

	where := ""
	for i, c := range conditions {
		if i > 0 {
			where += " AND "
		}
		where += c
	}
	return where, args
}

func buildOrderBy(sort SortOrder) string {
	switch sort {
	case SortByCreatedAsc:
		return "created_at ASC"
	case SortByCostAsc:
		return "cost ASC"
	default:
		return "created_at DESC"
	}
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRepository.Delete")
	defer span.End()

	query := `DELETE FROM solve_runs WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete solve run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}

	return nil
}
