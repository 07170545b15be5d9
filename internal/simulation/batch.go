package simulation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RunBatch plays independent simulations concurrently, at most workers at a
// time (GOMAXPROCS when workers <= 0). Every configuration is validated
// before the first run starts. Results are returned in input order; the first
// failing run cancels the others.
//
// Each run owns its agents and its random source, so batch results are
// identical to sequential runs with the same seeds. Options are shared by all
// runs, so an observer passed with WithObserver must be safe for concurrent use.
func RunBatch(ctx context.Context, cfgs []Config, workers int, opts ...Option) ([]*Result, error) {
	drivers := make([]*Driver, len(cfgs))
	for i, cfg := range cfgs {
		d, err := New(cfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("batch config %d: %w", i, err)
		}
		drivers[i] = d
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(drivers))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, d := range drivers {
		g.Go(func() error {
			res, err := d.Run(ctx)
			if err != nil {
				return fmt.Errorf("batch run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Replicates returns n copies of cfg seeded base, base+1, ..., base+n-1.
func Replicates(cfg Config, n int, base int64) []Config {
	out := make([]Config, n)
	for i := range out {
		out[i] = cfg.WithSeed(base + int64(i))
	}
	return out
}
