package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cvrptw/internal/cvrp"
)

// SolveCache is a specialized cache for CG solve results, keyed by
// instance fingerprint (spec §4.11). cvrp.Instance.Fingerprint already
// folds the Parameters table into its canonical bytes, so no separate
// parameters hash is appended to the key.
type SolveCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewSolveCache wraps a generic Cache with the solve-result key scheme.
func NewSolveCache(cache Cache, defaultTTL time.Duration) *SolveCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolveCache{cache: cache, defaultTTL: defaultTTL}
}

func solveKey(fingerprint string) string {
	return fmt.Sprintf("solve:%s", fingerprint)
}

// Get returns the cached Solution for in, if one exists. The boolean
// result is false on a cache miss; it is not an error.
func (sc *SolveCache) Get(ctx context.Context, in *cvrp.Instance) (*cvrp.Solution, bool, error) {
	data, err := sc.cache.Get(ctx, solveKey(in.Fingerprint()))
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var sol cvrp.Solution
	if err := json.Unmarshal(data, &sol); err != nil {
		// Corrupt cache entry; evict it and report a miss rather than
		// surfacing a deserialization error to the caller.
		_ = sc.cache.Delete(ctx, solveKey(in.Fingerprint())) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}
	return &sol, true, nil
}

// Set stores sol under in's fingerprint. ttl <= 0 uses the cache's
// default TTL.
func (sc *SolveCache) Set(ctx context.Context, in *cvrp.Instance, sol *cvrp.Solution, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	data, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	return sc.cache.Set(ctx, solveKey(in.Fingerprint()), data, ttl)
}

// Invalidate removes the cached solution for in, if any.
func (sc *SolveCache) Invalidate(ctx context.Context, in *cvrp.Instance) error {
	return sc.cache.Delete(ctx, solveKey(in.Fingerprint()))
}

// InvalidateAll removes every cached solve result.
func (sc *SolveCache) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, "solve:*")
}
