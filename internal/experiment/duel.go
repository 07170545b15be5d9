package experiment

import (
	"fmt"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/outcome"
)

// DuelReport is the result of a series of point-by-point matches.
type DuelReport struct {
	PointWinRate   float64 `json:"point_win_rate"`
	Matches        int     `json:"matches"`
	PointsPerMatch int     `json:"points_per_match"`
	MatchWins      int     `json:"match_wins"`
	MatchWinRate   float64 `json:"match_win_rate"`
}

// SimulateDuel plays matches of pointsPerMatch points each, where the player
// wins any single point with probability pointWinRate. A match is won when
// strictly more than half of its points are won, so an even point count can
// end in a lost tie.
func SimulateDuel(src outcome.Source, pointWinRate float64, matches, pointsPerMatch int) (DuelReport, error) {
	if !(pointWinRate >= 0 && pointWinRate <= 1) {
		return DuelReport{}, apperrors.WithMetadata(apperrors.CodeInvalidWinRate,
			fmt.Sprintf("point win rate must be in [0, 1], got %v", pointWinRate),
			map[string]string{"point_win_rate": fmt.Sprint(pointWinRate)})
	}
	if matches <= 0 {
		return DuelReport{}, apperrors.Newf(apperrors.CodeInvalidTrials, "matches must be positive, got %d", matches)
	}
	if pointsPerMatch <= 0 {
		return DuelReport{}, apperrors.Newf(apperrors.CodeInvalidGames, "points per match must be positive, got %d", pointsPerMatch)
	}

	report := DuelReport{PointWinRate: pointWinRate, Matches: matches, PointsPerMatch: pointsPerMatch}
	for m := 0; m < matches; m++ {
		// 2*won > total avoids the half-point comparison on odd totals.
		if 2*countDraws(src, pointsPerMatch, pointWinRate) > pointsPerMatch {
			report.MatchWins++
		}
	}
	report.MatchWinRate = float64(report.MatchWins) / float64(matches)
	return report, nil
}
