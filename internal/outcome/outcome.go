// Package outcome decides who wins a match.
//
// Two interchangeable strategies exist: SkillBased derives the win
// probability from the hidden skills of both agents, Forced uses a fixed
// probability and ignores both agents entirely. Ratings are never consulted;
// the gap between skill and rating is what the rating update tracks.
//
// All randomness flows through an injected Source so a seeded *rand.Rand
// reproduces every result.
package outcome

import (
	"fmt"
	"math"

	"github.com/nvandessel/ratingsim/internal/constants"
	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
)

// Source is the subset of *math/rand.Rand used by the generators.
type Source interface {
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
}

// Precision is the number of buckets of a uniform draw.
const Precision = constants.DrawPrecision

// Bernoulli draws an integer uniformly in [0, Precision] and reports whether
// it falls below Precision*p. Probabilities are therefore resolved with a
// granularity of 1e-4.
func Bernoulli(src Source, p float64) bool {
	r := src.Intn(Precision + 1)
	return float64(r) < Precision*p
}

// CoinFlip returns true with probability one half.
func CoinFlip(src Source) bool {
	return src.Intn(2) == 1
}

// Generator produces the result of a match from self's point of view.
type Generator interface {
	Play(self, other *models.Agent) models.Score
}

// SkillBased wins for self with probability skill_self / (skill_self + skill_other).
type SkillBased struct {
	Source Source
}

// NewSkillBased creates a skill-driven generator.
func NewSkillBased(src Source) *SkillBased {
	return &SkillBased{Source: src}
}

// WinProbability returns the true probability that self beats other.
func WinProbability(self, other *models.Agent) float64 {
	return self.Skill / (self.Skill + other.Skill)
}

// Play implements Generator.
func (g *SkillBased) Play(self, other *models.Agent) models.Score {
	if Bernoulli(g.Source, WinProbability(self, other)) {
		return models.Win
	}
	return models.Loss
}

// Forced wins for self with a fixed probability regardless of who plays.
type Forced struct {
	Source  Source
	WinRate float64
}

// NewForced creates a fixed-probability generator. winRate must lie in (0, 1).
func NewForced(src Source, winRate float64) (*Forced, error) {
	if err := ValidateWinRate(winRate); err != nil {
		return nil, err
	}
	return &Forced{Source: src, WinRate: winRate}, nil
}

// Play implements Generator.
func (g *Forced) Play(_, _ *models.Agent) models.Score {
	if Bernoulli(g.Source, g.WinRate) {
		return models.Win
	}
	return models.Loss
}

// ValidateWinRate checks that p is a probability strictly between 0 and 1.
func ValidateWinRate(p float64) error {
	if !(p > 0 && p < 1) || math.IsNaN(p) {
		return apperrors.WithMetadata(apperrors.CodeInvalidWinRate,
			fmt.Sprintf("forced win rate must be in (0, 1), got %v", p),
			map[string]string{"forced_win_rate": fmt.Sprint(p)})
	}
	return nil
}
