// Package rating implements the Elo rating formula.
//
// Expected scores are computed on a logistic curve of base 10 scaled by a
// divider: a player Divider points above the opponent is expected to win ten
// times as often. Updates are zero-sum across the two players of a match.
package rating

import (
	"fmt"
	"math"

	"github.com/nvandessel/ratingsim/internal/constants"
	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/models"
)

// Elo is an instance of the Elo rating system.
type Elo struct {
	// Divider is the rating difference that gives 10-to-1 odds.
	Divider float64
}

// Default is the classic Elo system with a 400-point divider.
var Default = Elo{Divider: constants.EloDivider}

// Expected returns the expected score of a player rated self against a
// player rated other, in (0, 1).
//
// Expected(a, b) + Expected(b, a) == 1 up to floating-point rounding.
func (e Elo) Expected(self, other float64) float64 {
	return 1 / (1 + math.Pow(10, (other-self)/e.Divider))
}

// Update plays the score of self against other into both ratings and returns
// the delta applied to self. other receives exactly -delta and both histories
// grow by one entry.
//
// k is the K-factor of self. The score, k and the pairing are validated before
// either agent is touched.
func (e Elo) Update(self, other *models.Agent, score models.Score, k float64) (float64, error) {
	if self == nil || other == nil {
		return 0, apperrors.New(apperrors.CodeSameAgent, "update requires two agents")
	}
	if self == other {
		return 0, apperrors.Newf(apperrors.CodeSameAgent, "agent %s cannot play itself", self.Name)
	}
	if !score.Valid() {
		return 0, apperrors.Newf(apperrors.CodeInvalidScore, "score must be 0, 0.5 or 1, got %v", float64(score))
	}
	if !(k > 0) || math.IsInf(k, 0) {
		return 0, apperrors.Newf(apperrors.CodeInvalidKFactor, "k-factor must be positive, got %v", k)
	}

	expected := e.Expected(self.Rating(), other.Rating())
	delta := k * (float64(score) - expected)

	self.Apply(delta, score)
	other.Apply(-delta, score.Opposite())
	return delta, nil
}

// ExpectedWinRate returns the expected score of a player ratingDelta points
// above the opponent.
func (e Elo) ExpectedWinRate(ratingDelta float64) float64 {
	return e.Expected(ratingDelta, 0)
}

// Validate checks the divider.
func (e Elo) Validate() error {
	if !(e.Divider > 0) || math.IsInf(e.Divider, 0) {
		return apperrors.New(apperrors.CodeInvalidRating, fmt.Sprintf("divider must be positive, got %v", e.Divider))
	}
	return nil
}
