// Package schedule organises agents into round-robin journeys.
//
// A journey is one complete round-robin pass in which every unordered pair
// of agents meets exactly once, so each agent plays n-1 games. Requested game
// counts are always rounded up to whole journeys; a journey is never cut
// short.
package schedule

import (
	"context"
	"fmt"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/outcome"
	"github.com/nvandessel/ratingsim/internal/rating"
)

// Pairing is a scheduled match between the agents at indices A and B, A < B.
type Pairing struct {
	A int
	B int
}

// Journey returns the pairings of one round-robin pass over n agents in
// ascending (A, B) order: (0,1), (0,2), ..., (1,2), ... It has n*(n-1)/2 entries.
func Journey(n int) []Pairing {
	if n < 2 {
		return nil
	}
	pairs := make([]Pairing, 0, n*(n-1)/2)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			pairs = append(pairs, Pairing{A: a, B: b})
		}
	}
	return pairs
}

// JourneysFor returns how many journeys are needed so that each of n agents
// plays at least games games: ceil(games / (n-1)).
//
// The result rounds up to whole journeys, so the games actually played per
// agent (GamesPerAgent) may exceed the request. Fewer than two agents would
// divide by zero and is reported as a configuration error instead.
func JourneysFor(games, n int) (int, error) {
	if n < 2 {
		return 0, apperrors.WithMetadata(apperrors.CodeDivisionGuard,
			fmt.Sprintf("round-robin needs at least 2 agents, got %d", n),
			map[string]string{"agent_count": fmt.Sprint(n)})
	}
	if games < 0 {
		return 0, apperrors.Newf(apperrors.CodeInvalidGames, "games must be non-negative, got %d", games)
	}
	perJourney := n - 1
	return (games + perJourney - 1) / perJourney, nil
}

// GamesPerAgent returns the games each agent plays over the given journeys.
func GamesPerAgent(journeys, n int) int {
	if n < 2 {
		return 0
	}
	return journeys * (n - 1)
}

// MatchesPerJourney returns n*(n-1)/2.
func MatchesPerJourney(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Observer receives every match after both ratings have been updated.
type Observer func(models.Match)

// Scheduler plays journeys over a fixed roster of agents.
//
// Matches run strictly in order. Ratings are not frozen per journey: each
// match sees the ratings left by the previous one.
type Scheduler struct {
	agents    []*models.Agent
	pairs     []Pairing
	generator outcome.Generator
	formula   rating.Elo
	played    int
}

// New creates a scheduler over agents, which must hold at least two distinct agents.
func New(agents []*models.Agent, gen outcome.Generator, formula rating.Elo) (*Scheduler, error) {
	if len(agents) < 2 {
		return nil, apperrors.Newf(apperrors.CodeInvalidAgentCount, "scheduler needs at least 2 agents, got %d", len(agents))
	}
	seen := make(map[*models.Agent]bool, len(agents))
	for _, a := range agents {
		if a == nil {
			return nil, apperrors.New(apperrors.CodeInvalidAgentCount, "scheduler roster contains a nil agent")
		}
		if seen[a] {
			return nil, apperrors.Newf(apperrors.CodeSameAgent, "agent %s appears twice in the roster", a.Name)
		}
		seen[a] = true
	}
	if err := formula.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		agents:    agents,
		pairs:     Journey(len(agents)),
		generator: gen,
		formula:   formula,
	}, nil
}

// Played returns the number of matches played so far across all phases.
func (s *Scheduler) Played() int {
	return s.played
}

// PlayJourneys plays count full journeys tagged with phase. Each match uses
// the K-factor of the lower-index agent. ctx is checked between journeys.
func (s *Scheduler) PlayJourneys(ctx context.Context, phase models.Phase, count int, observe Observer) error {
	for j := 0; j < count; j++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s journey %d: %w", phase, j, err)
		}
		for _, p := range s.pairs {
			m, err := s.play(phase, j, p)
			if err != nil {
				return fmt.Errorf("%s journey %d: %w", phase, j, err)
			}
			if observe != nil {
				observe(m)
			}
		}
	}
	return nil
}

func (s *Scheduler) play(phase models.Phase, journey int, p Pairing) (models.Match, error) {
	self, other := s.agents[p.A], s.agents[p.B]

	k := self.KFactor()
	expected := s.formula.Expected(self.Rating(), other.Rating())
	score := s.generator.Play(self, other)

	delta, err := s.formula.Update(self, other, score, k)
	if err != nil {
		return models.Match{}, err
	}

	m := models.Match{
		Sequence:       s.played,
		Phase:          phase,
		Journey:        journey,
		Player:         self.Name,
		Opponent:       other.Name,
		Score:          score,
		Expected:       expected,
		K:              k,
		Delta:          delta,
		PlayerRating:   self.Rating(),
		OpponentRating: other.Rating(),
	}
	s.played++
	return m, nil
}
