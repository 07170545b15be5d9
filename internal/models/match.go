package models

import "fmt"

// Score is the result of a match from one side's point of view.
type Score float64

const (
	Loss Score = 0   // The player lost
	Draw Score = 0.5 // Neither side won
	Win  Score = 1   // The player won
)

// Valid reports whether s is one of Loss, Draw or Win.
func (s Score) Valid() bool {
	return s == Loss || s == Draw || s == Win
}

// Opposite returns the score seen from the other side.
func (s Score) Opposite() Score {
	return 1 - s
}

// String implements fmt.Stringer.
func (s Score) String() string {
	switch s {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	default:
		return fmt.Sprintf("Score(%g)", float64(s))
	}
}

// Phase identifies which part of a simulation a match belongs to.
type Phase string

const (
	PhasePlacement Phase = "placement" // High K-factor, ratings converge fast
	PhaseSteady    Phase = "steady"    // Reduced K-factor
)

// Match records a single played match. It is emitted to observers after both
// ratings have been updated and is never read back by the engine.
type Match struct {
	// Sequence is the 0-based index of the match within its run.
	Sequence int `json:"sequence"`

	// Phase is the phase the match was played in.
	Phase Phase `json:"phase"`

	// Journey is the 0-based round-robin pass within the phase.
	// In elo-hell mode it is the 0-based game index of the player within the phase.
	Journey int `json:"journey"`

	Player   string `json:"player"`
	Opponent string `json:"opponent"`

	// Score is the result from Player's point of view.
	Score Score `json:"score"`

	// Expected is Player's expected score before the match.
	Expected float64 `json:"expected"`

	// K is the K-factor the update was computed with.
	K float64 `json:"k"`

	// Delta is the rating change applied to Player; Opponent received -Delta.
	Delta float64 `json:"delta"`

	PlayerRating   float64 `json:"player_rating"`
	OpponentRating float64 `json:"opponent_rating"`
}

// Fields returns the match as a flat map for structured logs.
func (m Match) Fields() map[string]any {
	return map[string]any{
		"sequence":        m.Sequence,
		"phase":           string(m.Phase),
		"journey":         m.Journey,
		"player":          m.Player,
		"opponent":        m.Opponent,
		"score":           float64(m.Score),
		"expected":        m.Expected,
		"k":               m.K,
		"delta":           m.Delta,
		"player_rating":   m.PlayerRating,
		"opponent_rating": m.OpponentRating,
	}
}
