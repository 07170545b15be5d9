// Package models defines the agents and matches of a rating simulation.
package models

import (
	"fmt"
	"math"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
)

// Agent is a competitor with a hidden skill and a visible rating.
//
// The rating can only change through Apply, which appends the new value to
// the history in the same step, so len(History()) == MatchesPlayed()+1 holds
// at all times.
type Agent struct {
	// Name is the stable identifier of the agent within a run.
	Name string

	// Skill is the hidden strength that drives true win probability.
	// Only meaningful relative to the other agents of the same run.
	Skill float64

	kFactor float64
	inter   bool

	rating  float64
	history []float64
	record  Record
}

// Record counts the results of the matches an agent has played.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

// Total returns the number of matches in the record.
func (r Record) Total() int {
	return r.Wins + r.Losses + r.Draws
}

// WinRate returns the share of points scored, counting draws as half.
// Returns 0 for an empty record.
func (r Record) WinRate() float64 {
	total := r.Total()
	if total == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Draws)) / float64(total)
}

// AgentOption configures optional Agent attributes.
type AgentOption func(*Agent)

// AsInter flags the agent as disruptive to its own team.
// The flag cannot be changed after creation.
func AsInter(inter bool) AgentOption {
	return func(a *Agent) {
		a.inter = inter
	}
}

// NewAgent creates an agent with a history seeded by its starting rating.
// Skill and K-factor must be positive and the rating finite.
func NewAgent(name string, skill, rating, kFactor float64, opts ...AgentOption) (*Agent, error) {
	if !(skill > 0) || math.IsInf(skill, 0) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidSkill,
			fmt.Sprintf("agent %s: skill must be positive, got %v", name, skill),
			map[string]string{"agent": name, "skill": fmt.Sprint(skill)})
	}
	if !(kFactor > 0) || math.IsInf(kFactor, 0) {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidKFactor,
			fmt.Sprintf("agent %s: k-factor must be positive, got %v", name, kFactor),
			map[string]string{"agent": name, "k_factor": fmt.Sprint(kFactor)})
	}
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return nil, apperrors.Newf(apperrors.CodeInvalidRating, "agent %s: rating must be finite, got %v", name, rating)
	}

	a := &Agent{
		Name:    name,
		Skill:   skill,
		kFactor: kFactor,
		rating:  rating,
		history: []float64{rating},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewShadow creates an ephemeral opponent that mirrors a: same skill, same
// K-factor and, crucially, the same current rating, so the expected score
// between the two is exactly 0.5.
func NewShadow(a *Agent) *Agent {
	return &Agent{
		Name:    a.Name + "~shadow",
		Skill:   a.Skill,
		kFactor: a.kFactor,
		rating:  a.rating,
		history: []float64{a.rating},
	}
}

// Rating returns the current rating.
func (a *Agent) Rating() float64 {
	return a.rating
}

// KFactor returns the current K-factor.
func (a *Agent) KFactor() float64 {
	return a.kFactor
}

// SetKFactor replaces the K-factor, e.g. at the end of the placement phase.
func (a *Agent) SetKFactor(k float64) error {
	if !(k > 0) || math.IsInf(k, 0) {
		return apperrors.Newf(apperrors.CodeInvalidKFactor, "agent %s: k-factor must be positive, got %v", a.Name, k)
	}
	a.kFactor = k
	return nil
}

// IsInter reports whether the agent sabotages its own team.
func (a *Agent) IsInter() bool {
	return a.inter
}

// History returns a copy of the rating history, oldest first.
func (a *Agent) History() []float64 {
	out := make([]float64, len(a.history))
	copy(out, a.history)
	return out
}

// MatchesPlayed returns the number of matches applied to this agent.
func (a *Agent) MatchesPlayed() int {
	return len(a.history) - 1
}

// Record returns the win/loss/draw counts.
func (a *Agent) Record() Record {
	return a.record
}

// Apply adds delta to the rating, appends the new rating to the history and
// counts the score. It is the only way a rating changes.
func (a *Agent) Apply(delta float64, score Score) {
	a.rating += delta
	a.history = append(a.history, a.rating)
	switch score {
	case Win:
		a.record.Wins++
	case Loss:
		a.record.Losses++
	default:
		a.record.Draws++
	}
}

// Snapshot is the output shape handed to visualization and export.
type Snapshot struct {
	Name          string    `json:"name"`
	Skill         float64   `json:"skill"`
	FinalRating   float64   `json:"final_rating"`
	Record        Record    `json:"record"`
	RatingHistory []float64 `json:"rating_history"`
}

// Snapshot captures the agent's current state.
func (a *Agent) Snapshot() Snapshot {
	return Snapshot{
		Name:          a.Name,
		Skill:         a.Skill,
		FinalRating:   a.rating,
		Record:        a.record,
		RatingHistory: a.History(),
	}
}

// String implements fmt.Stringer.
func (a *Agent) String() string {
	return fmt.Sprintf("Agent{%s skill=%g rating=%.2f k=%g matches=%d}",
		a.Name, a.Skill, a.rating, a.kFactor, a.MatchesPlayed())
}
