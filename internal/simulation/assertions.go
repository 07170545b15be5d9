package simulation

import (
	"math"
	"testing"
)

// AssertHistoryInvariant asserts that every agent's history holds its
// starting rating followed by one entry per match, ending at its current
// rating, and that its record counts the same number of matches.
func AssertHistoryInvariant(t *testing.T, result *Result) {
	t.Helper()
	for _, a := range result.Agents {
		h := a.History()
		if len(h) != a.MatchesPlayed()+1 {
			t.Errorf("AssertHistoryInvariant: %s: history length %d, matches %d", a.Name, len(h), a.MatchesPlayed())
			continue
		}
		if h[0] != result.Config.StartingRating {
			t.Errorf("AssertHistoryInvariant: %s: history starts at %.4f, want %.4f", a.Name, h[0], result.Config.StartingRating)
		}
		if h[len(h)-1] != a.Rating() {
			t.Errorf("AssertHistoryInvariant: %s: history ends at %.4f, rating is %.4f", a.Name, h[len(h)-1], a.Rating())
		}
		if rec := a.Record(); rec.Total() != a.MatchesPlayed() {
			t.Errorf("AssertHistoryInvariant: %s: record counts %d matches, history %d", a.Name, rec.Total(), a.MatchesPlayed())
		}
	}
}

// AssertGamesPerAgent asserts that every agent played exactly want matches.
func AssertGamesPerAgent(t *testing.T, result *Result, want int) {
	t.Helper()
	for _, a := range result.Agents {
		if got := a.MatchesPlayed(); got != want {
			t.Errorf("AssertGamesPerAgent: %s played %d matches, want %d", a.Name, got, want)
		}
	}
}

// AssertPopulationMeanStable asserts that the mean rating of a standard run
// equals the starting rating within tolerance. Zero-sum updates between
// members of the population cannot move it.
func AssertPopulationMeanStable(t *testing.T, result *Result, tolerance float64) {
	t.Helper()
	mean := result.MeanRating()
	if math.Abs(mean-result.Config.StartingRating) > tolerance {
		t.Errorf("AssertPopulationMeanStable: mean rating %.9f drifted from %.4f (tolerance %g)", mean, result.Config.StartingRating, tolerance)
	}
}

// AssertWinRate asserts that the named agent's realised win rate lies within
// tolerance of want.
func AssertWinRate(t *testing.T, result *Result, name string, want, tolerance float64) {
	t.Helper()
	a := result.Agent(name)
	if a == nil {
		t.Fatalf("AssertWinRate: no agent %s", name)
	}
	got := a.Record().WinRate()
	if math.Abs(got-want) > tolerance {
		t.Errorf("AssertWinRate: %s won %.4f of %d matches, want %.4f ± %.4f", name, got, a.MatchesPlayed(), want, tolerance)
	}
}

// AssertRatingDrifts asserts that every agent finished at least minGain
// points above its starting rating.
func AssertRatingDrifts(t *testing.T, result *Result, minGain float64) {
	t.Helper()
	for _, a := range result.Agents {
		gain := a.Rating() - result.Config.StartingRating
		if gain < minGain {
			t.Errorf("AssertRatingDrifts: %s gained %.2f points, want at least %.2f", a.Name, gain, minGain)
		}
	}
}

// AssertRatingsOrderedBySkill asserts that final ratings increase with skill
// across the population. Only meaningful for long standard runs.
func AssertRatingsOrderedBySkill(t *testing.T, result *Result) {
	t.Helper()
	for i := 1; i < len(result.Agents); i++ {
		prev, cur := result.Agents[i-1], result.Agents[i]
		if cur.Skill > prev.Skill && cur.Rating() <= prev.Rating() {
			t.Errorf("AssertRatingsOrderedBySkill: %s (skill %g) rated %.2f, not above %s (skill %g) at %.2f",
				cur.Name, cur.Skill, cur.Rating(), prev.Name, prev.Skill, prev.Rating())
		}
	}
}

// AssertIdenticalHistories asserts that two runs produced bit-identical
// rating histories for every agent.
func AssertIdenticalHistories(t *testing.T, a, b *Result) {
	t.Helper()
	if len(a.Agents) != len(b.Agents) {
		t.Fatalf("AssertIdenticalHistories: %d agents vs %d", len(a.Agents), len(b.Agents))
	}
	for i := range a.Agents {
		ha, hb := a.Agents[i].History(), b.Agents[i].History()
		if len(ha) != len(hb) {
			t.Errorf("AssertIdenticalHistories: %s: history length %d vs %d", a.Agents[i].Name, len(ha), len(hb))
			continue
		}
		for j := range ha {
			if math.Float64bits(ha[j]) != math.Float64bits(hb[j]) {
				t.Errorf("AssertIdenticalHistories: %s: entry %d differs: %v vs %v", a.Agents[i].Name, j, ha[j], hb[j])
				break
			}
		}
	}
}

// RatingVariance returns the population variance of the final ratings.
func RatingVariance(result *Result) float64 {
	ratings := make([]float64, len(result.Agents))
	for i, a := range result.Agents {
		ratings[i] = a.Rating()
	}
	return variance(ratings)
}

// variance computes the population variance of a float64 slice.
func variance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	sum := 0.0
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(vals))
}
