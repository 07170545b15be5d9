package simulation

import (
	"fmt"
	"math"

	"github.com/nvandessel/ratingsim/internal/constants"
	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/outcome"
	"github.com/nvandessel/ratingsim/internal/schedule"
)

// Mode selects how matches are generated.
type Mode string

const (
	// ModeStandard plays round-robin journeys with skill-based outcomes.
	ModeStandard Mode = "standard"

	// ModeEloHell has every agent play same-rated synthetic opponents with a
	// fixed win rate, independent of skill.
	ModeEloHell Mode = "elo-hell"
)

// ParseMode maps a mode name to a Mode. The empty string means standard.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeEloHell:
		return ModeEloHell, nil
	default:
		return "", apperrors.Newf(apperrors.CodeInvalidMode, "invalid mode: %s (valid: standard, elo-hell)", s)
	}
}

// Config describes one simulation run. It is validated in full before any
// agent is created.
type Config struct {
	// Mode is ModeStandard (default) or ModeEloHell.
	Mode Mode `json:"mode" yaml:"mode"`

	// AgentCount is the population size. At least 2 in standard mode, at
	// least 1 in elo-hell mode where agents never meet each other.
	AgentCount int `json:"agent_count" yaml:"agent_count"`

	// TotalGames is the requested number of games per agent, placement included.
	TotalGames int `json:"total_games" yaml:"total_games"`

	// PlacementGames is the requested number of placement games per agent.
	// Range: 0 to TotalGames.
	PlacementGames int `json:"placement_games" yaml:"placement_games"`

	// MinSkill is the skill of agent 0; agent i has MinSkill + i*SkillStep.
	MinSkill float64 `json:"min_skill" yaml:"min_skill"`

	// SkillStep may be zero (equal skills) or negative as long as every
	// derived skill stays positive.
	SkillStep float64 `json:"skill_step" yaml:"skill_step"`

	// StartingRating is every agent's initial rating.
	StartingRating float64 `json:"starting_rating" yaml:"starting_rating"`

	// PlacementKFactor is the K-factor during the placement phase.
	PlacementKFactor float64 `json:"placement_k_factor" yaml:"placement_k_factor"`

	// SteadyKFactor replaces PlacementKFactor for every agent once placement ends.
	SteadyKFactor float64 `json:"steady_k_factor" yaml:"steady_k_factor"`

	// ForcedWinRate is the fixed win probability of elo-hell mode, in (0, 1).
	// Ignored in standard mode.
	ForcedWinRate float64 `json:"forced_win_rate" yaml:"forced_win_rate"`

	// Seed makes a run reproducible. When nil a random seed is drawn and
	// reported in Result.Seed.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// DefaultConfig returns a standard-mode configuration.
func DefaultConfig() Config {
	return Config{
		Mode:             ModeStandard,
		AgentCount:       constants.DefaultAgentCount,
		TotalGames:       constants.DefaultTotalGames,
		PlacementGames:   constants.DefaultPlacementGames,
		MinSkill:         constants.DefaultMinSkill,
		SkillStep:        constants.DefaultSkillStep,
		StartingRating:   constants.DefaultStartingRating,
		PlacementKFactor: constants.DefaultPlacementKFactor,
		SteadyKFactor:    constants.DefaultSteadyKFactor,
		ForcedWinRate:    constants.DefaultForcedWinRate,
	}
}

// DefaultEloHellConfig returns an elo-hell configuration: a single agent,
// starting at 1200, with the win rate implied by the team model.
func DefaultEloHellConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeEloHell
	cfg.AgentCount = 1
	cfg.StartingRating = constants.EloHellStartingRating
	cfg.PlacementKFactor = constants.EloHellPlacementKFactor
	cfg.SteadyKFactor = constants.EloHellSteadyKFactor
	return cfg
}

// WithSeed returns a copy of c with the given seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = &seed
	return c
}

// Skill returns the skill of agent i.
func (c Config) Skill(i int) float64 {
	return c.MinSkill + float64(i)*c.SkillStep
}

// Validate checks every field. The first violation is returned as a
// configuration error.
func (c Config) Validate() error {
	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		return err
	}

	minAgents := 2
	if mode == ModeEloHell {
		minAgents = 1
	}
	if c.AgentCount < minAgents {
		return apperrors.WithMetadata(apperrors.CodeInvalidAgentCount,
			fmt.Sprintf("%s mode needs at least %d agents, got %d", mode, minAgents, c.AgentCount),
			map[string]string{"agent_count": fmt.Sprint(c.AgentCount), "mode": string(mode)})
	}

	if c.TotalGames < 0 {
		return apperrors.Newf(apperrors.CodeInvalidGames, "total_games must be non-negative, got %d", c.TotalGames)
	}
	if c.PlacementGames < 0 || c.PlacementGames > c.TotalGames {
		return apperrors.WithMetadata(apperrors.CodeInvalidGames,
			fmt.Sprintf("placement_games must be between 0 and total_games (%d), got %d", c.TotalGames, c.PlacementGames),
			map[string]string{"placement_games": fmt.Sprint(c.PlacementGames), "total_games": fmt.Sprint(c.TotalGames)})
	}

	if !(c.MinSkill > 0) || math.IsInf(c.MinSkill, 0) {
		return apperrors.Newf(apperrors.CodeInvalidSkill, "min_skill must be positive, got %v", c.MinSkill)
	}
	if math.IsNaN(c.SkillStep) || math.IsInf(c.SkillStep, 0) {
		return apperrors.Newf(apperrors.CodeInvalidSkill, "skill_step must be finite, got %v", c.SkillStep)
	}
	// Skills are linear in i, so checking the last agent covers a negative step.
	if last := c.Skill(c.AgentCount - 1); !(last > 0) || math.IsInf(last, 0) {
		return apperrors.Newf(apperrors.CodeInvalidSkill,
			"skill of agent %d would be %v; min_skill + (agent_count-1)*skill_step must stay positive", c.AgentCount, last)
	}

	if math.IsNaN(c.StartingRating) || math.IsInf(c.StartingRating, 0) {
		return apperrors.Newf(apperrors.CodeInvalidRating, "starting_rating must be finite, got %v", c.StartingRating)
	}

	if !(c.PlacementKFactor > 0) || math.IsInf(c.PlacementKFactor, 0) {
		return apperrors.Newf(apperrors.CodeInvalidKFactor, "placement_k_factor must be positive, got %v", c.PlacementKFactor)
	}
	if !(c.SteadyKFactor > 0) || math.IsInf(c.SteadyKFactor, 0) {
		return apperrors.Newf(apperrors.CodeInvalidKFactor, "steady_k_factor must be positive, got %v", c.SteadyKFactor)
	}

	if mode == ModeEloHell {
		return outcome.ValidateWinRate(c.ForcedWinRate)
	}

	// Explicit guard on the n-1 divisor of the journey computation.
	if _, err := schedule.JourneysFor(c.PlacementGames, c.AgentCount); err != nil {
		return err
	}
	if _, err := schedule.JourneysFor(c.TotalGames-c.PlacementGames, c.AgentCount); err != nil {
		return err
	}
	return nil
}

// Plan is the number of journeys and games per agent of each phase.
type Plan struct {
	Placement PhasePlan `json:"placement"`
	Steady    PhasePlan `json:"steady"`
}

// PhasePlan describes one phase of a run.
type PhasePlan struct {
	// Journeys is the number of round-robin passes. Zero in elo-hell mode.
	Journeys int `json:"journeys"`

	// GamesPerAgent is the number of games each agent actually plays.
	GamesPerAgent int `json:"games_per_agent"`

	// KFactor is the K-factor used throughout the phase.
	KFactor float64 `json:"k_factor"`
}

// Plan computes the schedule of a valid configuration without playing it.
// Standard mode rounds each phase up to whole journeys; elo-hell plays the
// literal requested counts.
func (c Config) Plan() (Plan, error) {
	if err := c.Validate(); err != nil {
		return Plan{}, err
	}
	steadyGames := c.TotalGames - c.PlacementGames

	mode, _ := ParseMode(string(c.Mode))
	if mode == ModeEloHell {
		return Plan{
			Placement: PhasePlan{GamesPerAgent: c.PlacementGames, KFactor: c.PlacementKFactor},
			Steady:    PhasePlan{GamesPerAgent: steadyGames, KFactor: c.SteadyKFactor},
		}, nil
	}

	pj, err := schedule.JourneysFor(c.PlacementGames, c.AgentCount)
	if err != nil {
		return Plan{}, err
	}
	sj, err := schedule.JourneysFor(steadyGames, c.AgentCount)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Placement: PhasePlan{
			Journeys:      pj,
			GamesPerAgent: schedule.GamesPerAgent(pj, c.AgentCount),
			KFactor:       c.PlacementKFactor,
		},
		Steady: PhasePlan{
			Journeys:      sj,
			GamesPerAgent: schedule.GamesPerAgent(sj, c.AgentCount),
			KFactor:       c.SteadyKFactor,
		},
	}, nil
}
