package models

import (
	"math"
	"testing"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
)

func TestNewAgent_Validation(t *testing.T) {
	tests := []struct {
		name     string
		skill    float64
		rating   float64
		kFactor  float64
		wantCode apperrors.Code
	}{
		{"valid", 10, 1500, 40, ""},
		{"zero skill", 0, 1500, 40, apperrors.CodeInvalidSkill},
		{"negative skill", -3, 1500, 40, apperrors.CodeInvalidSkill},
		{"NaN skill", math.NaN(), 1500, 40, apperrors.CodeInvalidSkill},
		{"zero k", 10, 1500, 0, apperrors.CodeInvalidKFactor},
		{"negative k", 10, 1500, -20, apperrors.CodeInvalidKFactor},
		{"infinite rating", 10, math.Inf(1), 40, apperrors.CodeInvalidRating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAgent("P1", tt.skill, tt.rating, tt.kFactor)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if a == nil {
					t.Fatal("expected agent")
				}
				return
			}
			if got := apperrors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %q, want %q (err=%v)", got, tt.wantCode, err)
			}
			if a != nil {
				t.Error("expected nil agent on error")
			}
		})
	}
}

func TestAgent_HistorySeededWithStartingRating(t *testing.T) {
	a, err := NewAgent("P1", 10, 1200, 25)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	h := a.History()
	if len(h) != 1 || h[0] != 1200 {
		t.Fatalf("History() = %v, want [1200]", h)
	}
	if a.MatchesPlayed() != 0 {
		t.Errorf("MatchesPlayed() = %d, want 0", a.MatchesPlayed())
	}
}

func TestAgent_ApplyKeepsHistoryInvariant(t *testing.T) {
	a, _ := NewAgent("P1", 10, 1500, 40)
	a.Apply(20, Win)
	a.Apply(-5, Loss)
	a.Apply(0, Draw)

	if got := a.Rating(); got != 1515 {
		t.Errorf("Rating() = %v, want 1515", got)
	}
	want := []float64{1500, 1520, 1515, 1515}
	h := a.History()
	if len(h) != len(want) {
		t.Fatalf("History() = %v, want %v", h, want)
	}
	for i := range want {
		if h[i] != want[i] {
			t.Errorf("History()[%d] = %v, want %v", i, h[i], want[i])
		}
	}
	if len(h) != a.MatchesPlayed()+1 {
		t.Errorf("len(History()) = %d, MatchesPlayed() = %d", len(h), a.MatchesPlayed())
	}
	rec := a.Record()
	if rec.Wins != 1 || rec.Losses != 1 || rec.Draws != 1 {
		t.Errorf("Record() = %+v, want 1/1/1", rec)
	}
	if rec.Total() != a.MatchesPlayed() {
		t.Errorf("Record().Total() = %d, want %d", rec.Total(), a.MatchesPlayed())
	}
}

func TestAgent_HistoryIsACopy(t *testing.T) {
	a, _ := NewAgent("P1", 10, 1500, 40)
	h := a.History()
	h[0] = 0
	if a.History()[0] != 1500 {
		t.Fatal("mutating History() result changed the agent")
	}
}

func TestAgent_SetKFactor(t *testing.T) {
	a, _ := NewAgent("P1", 10, 1500, 40)
	if err := a.SetKFactor(20); err != nil {
		t.Fatalf("SetKFactor(20): %v", err)
	}
	if a.KFactor() != 20 {
		t.Errorf("KFactor() = %v, want 20", a.KFactor())
	}
	if err := a.SetKFactor(0); apperrors.CodeOf(err) != apperrors.CodeInvalidKFactor {
		t.Errorf("SetKFactor(0) err = %v, want invalid k-factor", err)
	}
	if a.KFactor() != 20 {
		t.Errorf("failed SetKFactor changed K to %v", a.KFactor())
	}
}

func TestNewShadow_MirrorsCurrentRating(t *testing.T) {
	a, _ := NewAgent("P1", 10, 1500, 25)
	a.Apply(12.5, Win)

	s := NewShadow(a)
	if s.Rating() != a.Rating() {
		t.Errorf("shadow rating = %v, want %v", s.Rating(), a.Rating())
	}
	if s.KFactor() != a.KFactor() || s.Skill != a.Skill {
		t.Errorf("shadow = %v, want same skill and K as %v", s, a)
	}
	if s.MatchesPlayed() != 0 {
		t.Errorf("shadow MatchesPlayed() = %d, want 0", s.MatchesPlayed())
	}
	if s.Name == a.Name {
		t.Error("shadow must not reuse the agent's name")
	}
}

func TestAsInter(t *testing.T) {
	a, _ := NewAgent("P1", 10, 1500, 25, AsInter(true))
	if !a.IsInter() {
		t.Error("expected IsInter() = true")
	}
	b, _ := NewAgent("P2", 10, 1500, 25)
	if b.IsInter() {
		t.Error("expected IsInter() = false by default")
	}
}

func TestRecord_WinRate(t *testing.T) {
	tests := []struct {
		name string
		r    Record
		want float64
	}{
		{"empty", Record{}, 0},
		{"all wins", Record{Wins: 4}, 1},
		{"half", Record{Wins: 2, Losses: 2}, 0.5},
		{"draws count half", Record{Wins: 1, Draws: 2, Losses: 1}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.WinRate(); got != tt.want {
				t.Errorf("WinRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAgent_Snapshot(t *testing.T) {
	a, _ := NewAgent("P3", 12, 1500, 40)
	a.Apply(-7, Loss)
	s := a.Snapshot()
	if s.Name != "P3" || s.FinalRating != 1493 || len(s.RatingHistory) != 2 {
		t.Errorf("Snapshot() = %+v", s)
	}
	if s.Record.Losses != 1 {
		t.Errorf("Snapshot().Record = %+v, want one loss", s.Record)
	}
}
