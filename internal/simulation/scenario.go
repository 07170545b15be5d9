package simulation

import "github.com/nvandessel/ratingsim/internal/models"

// Scenario defines a complete rating experiment for the test harness.
type Scenario struct {
	Name string

	// Config is the run configuration. A nil Seed is replaced by the
	// runner's default seed so scenarios stay reproducible.
	Config Config

	// Options are passed through to New.
	Options []Option

	// AfterMatch, when non-nil, is called with every match in play order.
	// Use this to inspect intermediate ratings or phase boundaries.
	AfterMatch func(m models.Match)
}

// ScenarioResult pairs the run result with the matches it produced.
type ScenarioResult struct {
	*Result

	// Played holds every match in play order.
	Played []models.Match
}

// MatchesIn returns the matches played in the given phase.
func (r ScenarioResult) MatchesIn(phase models.Phase) []models.Match {
	var out []models.Match
	for _, m := range r.Played {
		if m.Phase == phase {
			out = append(out, m)
		}
	}
	return out
}
