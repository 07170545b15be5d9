package rating

import (
	"math"
	"testing"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
)

func newAgent(t *testing.T, name string, rating float64) *models.Agent {
	t.Helper()
	a, err := models.NewAgent(name, 10, rating, 40)
	if err != nil {
		t.Fatalf("NewAgent(%s): %v", name, err)
	}
	return a
}

func TestExpected_Symmetric(t *testing.T) {
	ratings := []float64{0, 800, 1199.5, 1500, 1520, 2200, 3100}
	for _, a := range ratings {
		for _, b := range ratings {
			sum := Default.Expected(a, b) + Default.Expected(b, a)
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("Expected(%v,%v)+Expected(%v,%v) = %v, want 1", a, b, b, a, sum)
			}
		}
	}
}

func TestExpected_KnownValues(t *testing.T) {
	tests := []struct {
		name        string
		self, other float64
		want        float64
	}{
		{"equal ratings", 1500, 1500, 0.5},
		{"400 above is ten to one", 1900, 1500, 10.0 / 11.0},
		{"400 below", 1500, 1900, 1.0 / 11.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Default.Expected(tt.self, tt.other)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected(%v, %v) = %v, want %v", tt.self, tt.other, got, tt.want)
			}
			if got <= 0 || got >= 1 {
				t.Errorf("Expected(%v, %v) = %v, want in (0,1)", tt.self, tt.other, got)
			}
		})
	}
}

func TestUpdate_EqualRatingsWin(t *testing.T) {
	a := newAgent(t, "A", 1500)
	b := newAgent(t, "B", 1500)

	delta, err := Default.Update(a, b, models.Win, 40)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if delta != 20 {
		t.Errorf("delta = %v, want 20", delta)
	}
	if a.Rating() != 1520 {
		t.Errorf("A rating = %v, want 1520", a.Rating())
	}
	if b.Rating() != 1480 {
		t.Errorf("B rating = %v, want 1480", b.Rating())
	}
	if a.Record().Wins != 1 || b.Record().Losses != 1 {
		t.Errorf("records = %+v / %+v", a.Record(), b.Record())
	}
}

func TestUpdate_ZeroSum(t *testing.T) {
	a := newAgent(t, "A", 1613.25)
	b := newAgent(t, "B", 1387.5)

	scores := []models.Score{models.Win, models.Loss, models.Draw, models.Loss, models.Win}
	for i, s := range scores {
		beforeA, beforeB := a.Rating(), b.Rating()
		delta, err := Default.Update(a, b, s, 32)
		if err != nil {
			t.Fatalf("match %d: Update: %v", i, err)
		}
		deltaA := a.Rating() - beforeA
		deltaB := b.Rating() - beforeB
		if math.Abs(deltaA-delta) > 1e-9 {
			t.Errorf("match %d: deltaA = %v, returned %v", i, deltaA, delta)
		}
		if deltaB != -deltaA {
			t.Errorf("match %d: deltaB = %v, want exactly %v", i, deltaB, -deltaA)
		}
		hA, hB := a.History(), b.History()
		stepA := hA[len(hA)-1] - hA[len(hA)-2]
		stepB := hB[len(hB)-1] - hB[len(hB)-2]
		if math.Abs(stepA+stepB) > 1e-9 {
			t.Errorf("match %d: history steps %v and %v are not opposite", i, stepA, stepB)
		}
	}
	if len(a.History()) != len(scores)+1 || len(b.History()) != len(scores)+1 {
		t.Errorf("history lengths = %d/%d, want %d", len(a.History()), len(b.History()), len(scores)+1)
	}
	if math.Abs(a.Rating()+b.Rating()-(1613.25+1387.5)) > 1e-9 {
		t.Errorf("rating sum drifted to %v", a.Rating()+b.Rating())
	}
}

func TestUpdate_UsesCurrentRatings(t *testing.T) {
	a := newAgent(t, "A", 1500)
	b := newAgent(t, "B", 1500)
	if _, err := Default.Update(a, b, models.Win, 40); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Second win is worth less now that A is the favourite.
	delta, err := Default.Update(a, b, models.Win, 40)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := 40 * (1 - Default.Expected(1520, 1480))
	if math.Abs(delta-want) > 1e-12 {
		t.Errorf("delta = %v, want %v", delta, want)
	}
	if delta >= 20 {
		t.Errorf("delta = %v, want less than 20", delta)
	}
}

func TestUpdate_RejectsBeforeMutation(t *testing.T) {
	tests := []struct {
		name     string
		score    models.Score
		k        float64
		same     bool
		wantCode apperrors.Code
	}{
		{"invalid score", models.Score(0.3), 40, false, apperrors.CodeInvalidScore},
		{"zero k", models.Win, 0, false, apperrors.CodeInvalidKFactor},
		{"NaN k", models.Win, math.NaN(), false, apperrors.CodeInvalidKFactor},
		{"self match", models.Win, 40, true, apperrors.CodeSameAgent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAgent(t, "A", 1500)
			b := newAgent(t, "B", 1500)
			if tt.same {
				b = a
			}
			_, err := Default.Update(a, b, tt.score, tt.k)
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q", got, tt.wantCode)
			}
			if a.MatchesPlayed() != 0 || b.MatchesPlayed() != 0 || a.Rating() != 1500 {
				t.Error("agents were mutated by a rejected update")
			}
		})
	}
}

func TestExpectedWinRate(t *testing.T) {
	if got := Default.ExpectedWinRate(0); got != 0.5 {
		t.Errorf("ExpectedWinRate(0) = %v, want 0.5", got)
	}
	if got := Default.ExpectedWinRate(400); math.Abs(got-10.0/11.0) > 1e-12 {
		t.Errorf("ExpectedWinRate(400) = %v, want 10/11", got)
	}
	prev := 0.0
	for d := -800.0; d <= 800; d += 50 {
		got := Default.ExpectedWinRate(d)
		if got <= prev {
			t.Fatalf("ExpectedWinRate not increasing at %v: %v <= %v", d, got, prev)
		}
		prev = got
	}
}

func TestElo_Validate(t *testing.T) {
	if err := Default.Validate(); err != nil {
		t.Errorf("Default.Validate() = %v", err)
	}
	if err := (Elo{}).Validate(); err == nil {
		t.Error("expected zero divider to be rejected")
	}
}
