package schedule

import (
	"context"
	"errors"
	"math"
	"testing"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/rating"
)

// alwaysWin makes the first-listed agent win every match.
type alwaysWin struct{ calls int }

func (g *alwaysWin) Play(_, _ *models.Agent) models.Score {
	g.calls++
	return models.Win
}

func roster(t *testing.T, n int) []*models.Agent {
	t.Helper()
	agents := make([]*models.Agent, n)
	for i := range agents {
		a, err := models.NewAgent(string(rune('A'+i)), float64(10+i), 1500, 40)
		if err != nil {
			t.Fatalf("NewAgent: %v", err)
		}
		agents[i] = a
	}
	return agents
}

func TestJourney_Order(t *testing.T) {
	got := Journey(4)
	want := []Pairing{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}
	if len(got) != len(want) {
		t.Fatalf("Journey(4) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Journey(4)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestJourney_EveryPairOnce(t *testing.T) {
	for n := 0; n <= 12; n++ {
		pairs := Journey(n)
		if len(pairs) != MatchesPerJourney(n) {
			t.Errorf("n=%d: %d pairings, want %d", n, len(pairs), MatchesPerJourney(n))
		}
		seen := make(map[Pairing]bool)
		perAgent := make([]int, n)
		for _, p := range pairs {
			if p.A >= p.B {
				t.Errorf("n=%d: pairing %v is not ascending", n, p)
			}
			if seen[p] {
				t.Errorf("n=%d: pairing %v repeated", n, p)
			}
			seen[p] = true
			perAgent[p.A]++
			perAgent[p.B]++
		}
		for i, c := range perAgent {
			if c != n-1 {
				t.Errorf("n=%d: agent %d plays %d games per journey, want %d", n, i, c, n-1)
			}
		}
	}
}

func TestJourneysFor(t *testing.T) {
	tests := []struct {
		name      string
		games     int
		n         int
		want      int
		wantGames int
	}{
		{"placement rounds up", 2, 4, 1, 3},
		{"exact multiple", 6, 4, 2, 6},
		{"one over a multiple", 7, 4, 3, 9},
		{"zero games", 0, 4, 0, 0},
		{"two agents", 5, 2, 5, 5},
		{"large roster", 20, 10, 3, 27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JourneysFor(tt.games, tt.n)
			if err != nil {
				t.Fatalf("JourneysFor(%d, %d): %v", tt.games, tt.n, err)
			}
			if got != tt.want {
				t.Errorf("JourneysFor(%d, %d) = %d, want %d", tt.games, tt.n, got, tt.want)
			}
			if g := GamesPerAgent(got, tt.n); g != tt.wantGames {
				t.Errorf("GamesPerAgent = %d, want %d", g, tt.wantGames)
			}
			if GamesPerAgent(got, tt.n) < tt.games {
				t.Error("journeys rounded down")
			}
		})
	}
}

func TestJourneysFor_Errors(t *testing.T) {
	tests := []struct {
		name     string
		games, n int
		wantCode apperrors.Code
	}{
		{"single agent", 10, 1, apperrors.CodeDivisionGuard},
		{"no agents", 10, 0, apperrors.CodeDivisionGuard},
		{"negative games", -1, 4, apperrors.CodeInvalidGames},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JourneysFor(tt.games, tt.n)
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q", got, tt.wantCode)
			}
			if !apperrors.IsConfiguration(err) {
				t.Error("expected a configuration error")
			}
		})
	}
}

func TestNew_Validation(t *testing.T) {
	agents := roster(t, 3)
	if _, err := New(agents[:1], &alwaysWin{}, rating.Default); apperrors.CodeOf(err) != apperrors.CodeInvalidAgentCount {
		t.Errorf("one agent: err = %v", err)
	}
	dup := []*models.Agent{agents[0], agents[1], agents[0]}
	if _, err := New(dup, &alwaysWin{}, rating.Default); apperrors.CodeOf(err) != apperrors.CodeSameAgent {
		t.Errorf("duplicate agent: err = %v", err)
	}
}

func TestPlayJourneys_TwoAgentsOneMatchPerJourney(t *testing.T) {
	agents := roster(t, 2)
	gen := &alwaysWin{}
	s, err := New(agents, gen, rating.Default)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var matches []models.Match
	if err := s.PlayJourneys(context.Background(), models.PhasePlacement, 1, func(m models.Match) {
		matches = append(matches, m)
	}); err != nil {
		t.Fatalf("PlayJourneys: %v", err)
	}
	if len(matches) != 1 || gen.calls != 1 {
		t.Fatalf("played %d matches (%d generator calls), want 1", len(matches), gen.calls)
	}
	if matches[0].Player != "A" || matches[0].Opponent != "B" {
		t.Errorf("match = %+v, want A vs B", matches[0])
	}
}

func TestPlayJourneys_RatingsNotFrozen(t *testing.T) {
	agents := roster(t, 3)
	s, err := New(agents, &alwaysWin{}, rating.Default)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var matches []models.Match
	if err := s.PlayJourneys(context.Background(), models.PhasePlacement, 1, func(m models.Match) {
		matches = append(matches, m)
	}); err != nil {
		t.Fatalf("PlayJourneys: %v", err)
	}
	// A beat B at 1500/1500 (+20), so A faces C as the favourite.
	if matches[0].Delta != 20 {
		t.Errorf("first delta = %v, want 20", matches[0].Delta)
	}
	wantExpected := rating.Default.Expected(1520, 1500)
	if math.Abs(matches[1].Expected-wantExpected) > 1e-12 {
		t.Errorf("second match expected = %v, want %v", matches[1].Expected, wantExpected)
	}
	for i, m := range matches {
		if m.Sequence != i {
			t.Errorf("match %d has sequence %d", i, m.Sequence)
		}
	}
}

func TestPlayJourneys_HistoryLengths(t *testing.T) {
	agents := roster(t, 5)
	s, err := New(agents, &alwaysWin{}, rating.Default)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.PlayJourneys(context.Background(), models.PhaseSteady, 3, nil); err != nil {
		t.Fatalf("PlayJourneys: %v", err)
	}
	for _, a := range agents {
		if got := len(a.History()); got != a.MatchesPlayed()+1 || a.MatchesPlayed() != 12 {
			t.Errorf("%s: history %d, matches %d, want 13 and 12", a.Name, got, a.MatchesPlayed())
		}
	}
	if s.Played() != 3*MatchesPerJourney(5) {
		t.Errorf("Played() = %d, want %d", s.Played(), 3*MatchesPerJourney(5))
	}
}

func TestPlayJourneys_UsesLowerIndexKFactor(t *testing.T) {
	agents := roster(t, 2)
	if err := agents[0].SetKFactor(10); err != nil {
		t.Fatalf("SetKFactor: %v", err)
	}
	s, _ := New(agents, &alwaysWin{}, rating.Default)
	var got models.Match
	_ = s.PlayJourneys(context.Background(), models.PhaseSteady, 1, func(m models.Match) { got = m })
	if got.K != 10 || got.Delta != 5 {
		t.Errorf("match K = %v delta = %v, want 10 and 5", got.K, got.Delta)
	}
}

func TestPlayJourneys_Cancelled(t *testing.T) {
	agents := roster(t, 3)
	s, _ := New(agents, &alwaysWin{}, rating.Default)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.PlayJourneys(ctx, models.PhasePlacement, 2, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.Played() != 0 {
		t.Errorf("Played() = %d after cancellation, want 0", s.Played())
	}
}
