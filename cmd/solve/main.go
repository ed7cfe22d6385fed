// Command solve is the CVRPTW batch entrypoint (spec §6): read an instance,
// validate it, build an initial route pool, run column generation to
// convergence, and write the resulting Solution. No RPC front end — this
// is a single process that runs one solve and exits.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"cvrptw/internal/cg"
	"cvrptw/internal/constructor"
	"cvrptw/internal/cvrp"
	"cvrptw/internal/engine"
	"cvrptw/internal/ingest"
	"cvrptw/internal/ingest/csvset"
	"cvrptw/internal/ingest/solomon"
	"cvrptw/internal/resultsink"
	"cvrptw/internal/resultsink/jsonsink"
	"cvrptw/internal/resultsink/pdfsink"
	"cvrptw/internal/resultsink/xlsxsink"
	"cvrptw/internal/store"
	"cvrptw/internal/validate"
	"cvrptw/pkg/apperror"
	"cvrptw/pkg/cache"
	"cvrptw/pkg/config"
	"cvrptw/pkg/database"
	"cvrptw/pkg/logger"
	"cvrptw/pkg/metrics"
	"cvrptw/pkg/telemetry"
)

func main() {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	//
	// Load resolves, in priority order:
	//   1. Environment variables (CVRPTW_* prefix)
	//   2. Config files (config.yaml in standard locations)
	//   3. Defaults from pkg/config/loader.go (mirrors cvrp.DefaultParameters)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	// Every log line from here on carries a run ID, so a solve's output can
	// be grepped out of a shared log stream even when several runs
	// interleave (e.g. concurrent invocations writing to the same file).
	runID := uuid.New().String()
	logger.Log = logger.WithRequestID(runID)

	ctx := context.Background()

	// =========================================================================
	// Telemetry Initialization (OpenTelemetry)
	// =========================================================================
	//
	// Spans traced: cg.Run (the whole solve) and cg.iteration (one per CG
	// iteration, covering that iteration's master LP and pricing MIP solve).
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("failed to init telemetry", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Log.Warn("failed to shutdown telemetry", "error", err)
				}
			}()
			logger.Log.Info("telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// cg_iterations, cg_master_objective, cg_pricing_objective,
	// solve_duration_seconds, solve_outcome_total, route_count (spec §6),
	// plus a RuntimeCollector for process-level goroutine/memory gauges
	// and a service_info gauge stamped with the running build.
	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)
	prometheus.MustRegister(metrics.NewRuntimeCollector(cfg.Metrics.Namespace, cfg.App.Name))
	metrics.Get().SetServiceInfo(cfg.App.Version, cfg.App.Environment)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	// =========================================================================
	// Solve Cache
	// =========================================================================
	//
	// Keyed by instance fingerprint (spec §3's canonical hash). A hit
	// skips column generation entirely. The solve continues without a
	// cache if backend initialization fails.
	var solveCache *cache.SolveCache
	if cfg.Solve.UseCache && cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("failed to create cache, continuing without cache", "error", err)
		} else {
			solveCache = cache.NewSolveCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("solve cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
		}
	}

	// =========================================================================
	// Run Persistence (optional)
	// =========================================================================
	//
	// Each solve run is saved keyed by fingerprint, replayable to any
	// resultsink.Sink without re-running column generation.
	var repo store.Repository
	if cfg.Solve.PersistRuns {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Log.Warn("failed to connect to database, continuing without persistence", "error", err)
		} else {
			if cfg.Database.AutoMigrate {
				if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, store.Migrations, store.MigrationsDir); err != nil {
					logger.Log.Warn("failed to run migrations, continuing without persistence", "error", err)
					db.Close()
					db = nil
				}
			}
			if db != nil {
				repo = store.NewPostgresRepository(db)
			}
		}
	}

	// =========================================================================
	// Instance Ingestion
	// =========================================================================
	//
	// initStart marks the beginning of the work spec §4.6 step 8 calls
	// init_time: everything that runs before the CG loop itself (reading,
	// validating, and building the initial pool). That elapsed duration is
	// threaded into cg.Run so it comes out of max_solve_time before the
	// CG/IP split, instead of being solved for free.
	initStart := time.Now()
	in, err := readInstance(cfg)
	if err != nil {
		fatal("failed to read instance", err)
	}

	logger.Info("instance loaded",
		"fingerprint", in.Fingerprint(),
		"nodes", in.NumNodes(),
		"customers", len(in.CustomerIndices()),
		"input_format", cfg.Solve.InputFormat,
	)

	// =========================================================================
	// Cache Lookup
	// =========================================================================
	if solveCache != nil {
		if sol, hit, err := solveCache.Get(ctx, in); err != nil {
			logger.Log.Warn("cache lookup failed", "error", err)
		} else if hit {
			logger.Info("cache hit, skipping column generation", "fingerprint", in.Fingerprint())
			if err := writeSolution(cfg, sol); err != nil {
				fatal("failed to write cached solution", err)
			}
			return
		}
	}

	// =========================================================================
	// Validation
	// =========================================================================
	if err := validate.Instance(in); err != nil {
		fatal("instance schema invalid", err)
	}
	if err := validate.Reachability(in); err != nil {
		fatal("instance unreachable", err)
	}

	// =========================================================================
	// Initial Route Pool Construction
	// =========================================================================
	pool, _, err := constructor.Build(in)
	if err != nil {
		fatal("route pool construction failed", err)
	}
	logger.Info("initial route pool built", "routes", pool.Len())

	initElapsed := time.Since(initStart)

	// =========================================================================
	// Column Generation
	// =========================================================================
	solveStart := time.Now()
	sol, err := cg.Run(ctx, in, pool, engine.BranchAndBound{}, initElapsed)
	if err != nil {
		fatal("column generation failed", err)
	}
	solveDuration := time.Since(solveStart)

	logger.Info("solve complete",
		"cost", sol.Summary.Cost,
		"routes", sol.Summary.Routes,
		"duration", solveDuration,
	)

	// =========================================================================
	// Persistence and Caching of the New Result
	// =========================================================================
	if repo != nil {
		run, err := store.NewRun(in, sol, 0, solveDuration)
		if err != nil {
			logger.Log.Warn("failed to build run record", "error", err)
		} else if err := repo.Save(ctx, run); err != nil {
			logger.Log.Warn("failed to persist run", "error", err)
		}
	}
	if solveCache != nil {
		if err := solveCache.Set(ctx, in, sol, cfg.Cache.DefaultTTL); err != nil {
			logger.Log.Warn("failed to cache result", "error", err)
		}
	}

	// =========================================================================
	// Output
	// =========================================================================
	if err := writeSolution(cfg, sol); err != nil {
		fatal("failed to write solution", err)
	}
}

// exitCode maps an apperror.ErrorCode to a distinct process exit code, so
// a caller scripting this binary can distinguish failure causes without
// parsing log output. Codes with no domain meaning here (CodeInternal and
// unrecognized errors) fall back to 1.
func exitCode(err error) int {
	switch apperror.Code(err) {
	case apperror.CodeSchemaInvalid:
		return 2
	case apperror.CodeInstanceInfeasible:
		return 3
	case apperror.CodeConstructionImpossible:
		return 4
	case apperror.CodeMasterInfeasible:
		return 5
	case apperror.CodePricingDegenerate:
		return 6
	case apperror.CodeNoFeasibleCover:
		return 7
	case apperror.CodeSolverAbnormal:
		return 8
	default:
		return 1
	}
}

// fatal logs err with its apperror code (if any) and exits with the
// matching process exit code.
func fatal(msg string, err error) {
	logger.Log.Error(msg, "error", err, "code", apperror.Code(err))
	os.Exit(exitCode(err))
}

// readInstance selects a Reader by cfg.Solve.InputFormat and reads the
// configured input path. csvset ignores the io.Reader argument and reads
// from its FS instead; solomon reads the opened file directly.
func readInstance(cfg *config.Config) (*cvrp.Instance, error) {
	var r ingest.Reader
	var body io.Reader

	switch cfg.Solve.InputFormat {
	case "csvset":
		r = csvset.Reader{FS: os.DirFS(cfg.Solve.InputPath)}
	case "solomon":
		f, err := os.Open(cfg.Solve.InputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		body = f
		r = solomon.Reader{}
	default:
		return nil, fmt.Errorf("unknown input format: %s", cfg.Solve.InputFormat)
	}

	in, err := r.Read(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse instance: %w", err)
	}
	return in, nil
}

// writeSolution selects a Sink by cfg.Solve.OutputFormat and writes sol to
// cfg.Solve.OutputPath, or to stdout if unset.
func writeSolution(cfg *config.Config, sol *cvrp.Solution) error {
	var sink resultsink.Sink
	switch cfg.Solve.OutputFormat {
	case "json", "":
		sink = jsonsink.Sink{}
	case "xlsx":
		sink = xlsxsink.Sink{}
	case "pdf":
		sink = pdfsink.Sink{}
	default:
		return fmt.Errorf("unknown output format: %s", cfg.Solve.OutputFormat)
	}

	w := os.Stdout
	if cfg.Solve.OutputPath != "" {
		f, err := os.Create(cfg.Solve.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		return sink.Write(f, sol)
	}
	return sink.Write(w, sol)
}
