package simulation

import (
	"context"
	"testing"

	"github.com/nvandessel/ratingsim/internal/models"
)

// DefaultScenarioSeed seeds scenarios that do not set one.
const DefaultScenarioSeed int64 = 20200318

// Runner executes scenarios inside a test, failing it on any error.
type Runner struct {
	t *testing.T
}

// NewRunner creates a scenario runner bound to t.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run validates and plays the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) ScenarioResult {
	r.t.Helper()

	cfg := scenario.Config
	if cfg.Seed == nil {
		cfg = cfg.WithSeed(DefaultScenarioSeed)
	}

	var out ScenarioResult
	opts := append([]Option{}, scenario.Options...)
	opts = append(opts, WithObserver(func(m models.Match) {
		out.Played = append(out.Played, m)
		if scenario.AfterMatch != nil {
			scenario.AfterMatch(m)
		}
	}))

	d, err := New(cfg, opts...)
	if err != nil {
		r.t.Fatalf("Run(%s): invalid config: %v", scenario.Name, err)
	}
	res, err := d.Run(context.Background())
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}
	out.Result = res
	return out
}
