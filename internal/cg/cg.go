// Package cg is the column generation loop (spec §4.6): it alternates
// master LP solves with pricing MIP solves, adding one route per
// improving iteration, and hands off to a final master IP solve once no
// iteration finds an improving column, progress stagnates, or the wall
// clock runs out.
package cg

import (
	"context"
	"math"
	"time"

	"cvrptw/internal/cvrp"
	"cvrptw/internal/engine"
	"cvrptw/internal/master"
	"cvrptw/internal/pricing"
	"cvrptw/pkg/apperror"
	"cvrptw/pkg/logger"
	"cvrptw/pkg/metrics"
	"cvrptw/pkg/telemetry"
)

// ExitReason names why the loop stopped generating columns, logged at CG
// exit per spec §6's observability recommendation.
type ExitReason string

const (
	ExitStagnation    ExitReason = "stagnation"
	ExitNoImprovement ExitReason = "no_improving_column"
	ExitDegenerate    ExitReason = "pricing_degenerate"
	ExitTimeRatio     ExitReason = "time_ratio_exhausted"
)

// Run drives the loop to completion starting from the given initial pool,
// then solves the final master IP and returns the resulting Solution.
// solver is shared by the master LP, master IP, and pricing MIP; the spec
// does not require distinct engines for each. initElapsed is the
// wall-clock already spent before Run was called — reading the instance,
// validating it, and building the initial pool (spec §4.6 step 8's
// `init_time`, grounded on original_source/vrp.py's HeuristicVRP.__init__,
// which stamps `self.init_time` from construction finishing before
// `solve()` ever starts the loop) — and is subtracted from
// `max_solve_time` before the CG and IP time budgets are split off it, so
// a slow read or construction shrinks the solve's remaining budget
// instead of silently extending it.
func Run(ctx context.Context, in *cvrp.Instance, pool *cvrp.RoutePool, solver engine.Solver, initElapsed time.Duration) (*cvrp.Solution, error) {
	ctx, span := telemetry.StartSpan(ctx, "cg.Run",
		telemetry.WithAttributes(telemetry.InstanceAttributes(in.Fingerprint(), in.NumNodes(), len(in.CustomerIndices()))...),
	)
	defer span.End()

	fingerprint := in.Fingerprint()
	solveStart := time.Now()

	params := in.Parameters
	initTime := time.Now()

	totalBudget := params.MaxSolveTime - initElapsed
	if totalBudget < 0 {
		totalBudget = 0
	}
	timeLimit := params.ColumnGenerationSolveRatio * totalBudget.Seconds()

	prevObj := math.Inf(1)
	noImprove := 0
	iteration := 0
	reason := ExitNoImprovement

loop:
	for {
		iteration++

		iterCtx, iterSpan := telemetry.StartSpan(ctx, "cg.iteration")

		lpRes, err := master.SolveLP(iterCtx, in, pool, solver)
		if err != nil {
			iterSpan.End()
			telemetry.SetError(ctx, err)
			span.End()
			metrics.Get().RecordSolve("master_infeasible", iteration, time.Since(solveStart), math.NaN(), math.NaN(), fingerprint, 0)
			return nil, wrapMasterErr(err)
		}

		obj := lpRes.ObjectiveValue
		if obj >= (1-params.MinColumnGenerationProgress)*prevObj {
			noImprove++
			if noImprove == params.MaxCountNoImprovements {
				reason = ExitStagnation
				iterSpan.End()
				break loop
			}
		} else {
			noImprove = 0
			prevObj = obj
		}

		pricingRes, err := pricing.Solve(iterCtx, in, lpRes.Duals, solver)
		if err != nil {
			iterSpan.End()
			if err == pricing.ErrDegenerate {
				reason = ExitDegenerate
				break loop
			}
			telemetry.SetError(ctx, err)
			span.End()
			metrics.Get().RecordSolve("solver_abnormal", iteration, time.Since(solveStart), obj, math.NaN(), fingerprint, 0)
			return nil, apperror.Wrap(err, apperror.CodeSolverAbnormal, "pricing solve failed")
		}

		telemetry.SetAttributes(iterCtx, telemetry.CGIterationAttributes(iteration, obj, pricingRes.ReducedCost, 1)...)
		metrics.Get().RecordIteration(fingerprint, obj, pricingRes.ReducedCost)
		iterSpan.End()

		logger.Info("column generation iteration",
			"iteration", iteration,
			"master_objective", obj,
			"pricing_objective", pricingRes.ReducedCost,
			"pool_size", pool.Len(),
		)

		if !pricingRes.HasColumn {
			reason = ExitNoImprovement
			break loop
		}
		pool.Add(pricingRes.Route)

		if time.Since(initTime).Seconds() >= timeLimit {
			reason = ExitTimeRatio
			break loop
		}
	}

	logger.Info("column generation exit", "reason", reason, "iterations", iteration, "pool_size", pool.Len())

	// Spec §4.6 line 108: the final IP's budget is a fixed split of the
	// pre-Run total budget, `(1 − ratio) · (max_solve_time − init_time)`,
	// not whatever wall clock the CG loop happened to leave behind.
	ipTimeLimit := time.Duration((1 - params.ColumnGenerationSolveRatio) * totalBudget.Seconds() * float64(time.Second))
	ipRes, err := master.SolveIP(ctx, in, pool, solver, engine.SolveOptions{
		TimeLimit: ipTimeLimit,
		Gap:       params.MasterProblemMIPGap,
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		metrics.Get().RecordSolve("no_feasible_cover", iteration, time.Since(solveStart), prevObj, math.NaN(), fingerprint, 0)
		return nil, wrapMasterIPErr(err)
	}

	routes := make([]cvrp.Route, 0, len(ipRes.Selected))
	for _, id := range ipRes.Selected {
		r, ok := pool.Get(id)
		if !ok {
			continue
		}
		routes = append(routes, r)
	}

	logger.Info("column generation final cover", "cost", ipRes.ObjectiveValue, "routes", len(routes))
	metrics.Get().RecordSolve(string(reason), iteration, time.Since(solveStart), prevObj, ipRes.ObjectiveValue, fingerprint, len(routes))

	return &cvrp.Solution{
		Summary: cvrp.Summary{Cost: ipRes.ObjectiveValue, Routes: len(routes)},
		Routes:  routes,
	}, nil
}

func wrapMasterErr(err error) error {
	switch err {
	case master.ErrInfeasible:
		return apperror.Wrap(err, apperror.CodeMasterInfeasible, "master LP infeasible despite covering pool")
	case master.ErrAbnormal:
		return apperror.Wrap(err, apperror.CodeSolverAbnormal, "master LP solver returned abnormal status")
	default:
		return err
	}
}

func wrapMasterIPErr(err error) error {
	switch err {
	case master.ErrNoFeasibleCover:
		return apperror.Wrap(err, apperror.CodeNoFeasibleCover, "final master IP found no feasible integer cover")
	case master.ErrAbnormal:
		return apperror.Wrap(err, apperror.CodeSolverAbnormal, "master IP solver returned abnormal status")
	default:
		return err
	}
}
