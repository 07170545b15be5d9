// Package experiment holds the auxiliary models that feed or explain the
// rating engine: the team-composition model behind the elo-hell win rate, a
// point-by-point duel and the expected win rate curve.
package experiment

import (
	"context"
	"fmt"

	"github.com/nvandessel/ratingsim/internal/constants"
	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
	"github.com/nvandessel/ratingsim/internal/outcome"
)

// TeamConfig describes the team-composition model. The player of interest is
// always on the own team, so OwnSize counts only teammates and the opposing
// team is one player larger by default.
type TeamConfig struct {
	OwnSize            int     `json:"own_size" yaml:"own_size"`
	OpponentSize       int     `json:"opponent_size" yaml:"opponent_size"`
	InterferenceChance float64 `json:"interference_chance" yaml:"interference_chance"`
}

// DefaultTeamConfig returns the 4 teammates vs 5 opponents model with a 10%
// chance of any player sabotaging their own team.
func DefaultTeamConfig() TeamConfig {
	return TeamConfig{
		OwnSize:            constants.DefaultOwnTeamSize,
		OpponentSize:       constants.DefaultOpponentTeamSize,
		InterferenceChance: constants.DefaultInterfereProbability,
	}
}

// Validate checks team sizes and the interference probability.
func (c TeamConfig) Validate() error {
	if c.OwnSize < 0 || c.OpponentSize < 0 || c.OwnSize+c.OpponentSize == 0 {
		return apperrors.Newf(apperrors.CodeInvalidAgentCount,
			"team sizes must be non-negative and not both zero, got %d vs %d", c.OwnSize, c.OpponentSize)
	}
	if !(c.InterferenceChance >= 0 && c.InterferenceChance <= 1) {
		return apperrors.WithMetadata(apperrors.CodeInvalidWinRate,
			fmt.Sprintf("interference chance must be in [0, 1], got %v", c.InterferenceChance),
			map[string]string{"interference_chance": fmt.Sprint(c.InterferenceChance)})
	}
	return nil
}

// DrawTeam creates size players named prefix1..prefixN, each disruptive with
// probability p.
func DrawTeam(src outcome.Source, prefix string, size int, p float64) ([]*models.Agent, error) {
	team := make([]*models.Agent, size)
	for i := range team {
		a, err := models.NewAgent(fmt.Sprintf("%s%d", prefix, i+1),
			constants.DefaultMinSkill, constants.EloHellStartingRating, constants.EloHellSteadyKFactor,
			models.AsInter(outcome.Bernoulli(src, p)))
		if err != nil {
			return nil, err
		}
		team[i] = a
	}
	return team, nil
}

// CountInters returns how many members of team are disruptive.
func CountInters(team []*models.Agent) int {
	n := 0
	for _, a := range team {
		if a.IsInter() {
			n++
		}
	}
	return n
}

// TeamMatch decides a match between two drawn teams from the own team's point
// of view: fewer disruptive players wins, a tie is a coin flip. The second
// return value reports whether the coin was flipped.
func TeamMatch(src outcome.Source, own, opponents []*models.Agent) (models.Score, bool) {
	return decide(src, CountInters(own), CountInters(opponents))
}

// SimulateTeamMatch draws both teams and plays one match.
func SimulateTeamMatch(src outcome.Source, ownSize, oppSize int, p float64) models.Score {
	score, _ := decide(src, countDraws(src, ownSize, p), countDraws(src, oppSize, p))
	return score
}

func countDraws(src outcome.Source, size int, p float64) int {
	n := 0
	for i := 0; i < size; i++ {
		if outcome.Bernoulli(src, p) {
			n++
		}
	}
	return n
}

func decide(src outcome.Source, ownInters, oppInters int) (models.Score, bool) {
	switch {
	case ownInters < oppInters:
		return models.Win, false
	case ownInters > oppInters:
		return models.Loss, false
	}
	if outcome.CoinFlip(src) {
		return models.Win, true
	}
	return models.Loss, true
}

// TeamReport summarises a win rate estimate.
type TeamReport struct {
	Config    TeamConfig `json:"config"`
	Trials    int        `json:"trials"`
	Wins      int        `json:"wins"`
	Losses    int        `json:"losses"`
	CoinFlips int        `json:"coin_flips"`
	WinRate   float64    `json:"win_rate"`
}

// EstimateTeamWinRate plays trials independent team matches and reports the
// realised win rate of the own team. ctx is checked every few thousand trials.
func EstimateTeamWinRate(ctx context.Context, src outcome.Source, trials int, cfg TeamConfig) (TeamReport, error) {
	if trials <= 0 {
		return TeamReport{}, apperrors.Newf(apperrors.CodeInvalidTrials, "trials must be positive, got %d", trials)
	}
	if err := cfg.Validate(); err != nil {
		return TeamReport{}, err
	}

	report := TeamReport{Config: cfg, Trials: trials}
	for i := 0; i < trials; i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return TeamReport{}, fmt.Errorf("team trial %d: %w", i, err)
			}
		}
		own := countDraws(src, cfg.OwnSize, cfg.InterferenceChance)
		opp := countDraws(src, cfg.OpponentSize, cfg.InterferenceChance)
		score, flipped := decide(src, own, opp)
		if flipped {
			report.CoinFlips++
		}
		if score == models.Win {
			report.Wins++
		} else {
			report.Losses++
		}
	}
	report.WinRate = float64(report.Wins) / float64(trials)
	return report, nil
}
