package models

import "testing"

func TestScore_Valid(t *testing.T) {
	tests := []struct {
		s    Score
		want bool
	}{
		{Loss, true},
		{Draw, true},
		{Win, true},
		{Score(0.25), false},
		{Score(-1), false},
		{Score(2), false},
	}
	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			if got := tt.s.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_Opposite(t *testing.T) {
	if Win.Opposite() != Loss || Loss.Opposite() != Win || Draw.Opposite() != Draw {
		t.Fatal("Opposite() must mirror win and loss and keep draw")
	}
}

func TestMatch_Fields(t *testing.T) {
	m := Match{
		Sequence: 3,
		Phase:    PhaseSteady,
		Player:   "P1",
		Opponent: "P2",
		Score:    Win,
		Expected: 0.5,
		K:        20,
		Delta:    10,
	}
	f := m.Fields()
	if f["phase"] != "steady" || f["score"] != 1.0 || f["delta"] != 10.0 {
		t.Errorf("Fields() = %v", f)
	}
}
