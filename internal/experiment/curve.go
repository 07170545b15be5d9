package experiment

import (
	"math"

	apperrors "github.com/nvandessel/ratingsim/internal/errors"
	"github.com/nvandessel/ratingsim/internal/rating"
)

// maxCurvePoints caps the size of a tabulated curve.
const maxCurvePoints = 100000

// CurvePoint is the expected win rate at one rating difference.
type CurvePoint struct {
	RatingDelta float64 `json:"rating_delta"`
	WinRate     float64 `json:"win_rate"`
}

// WinRateCurve tabulates the expected win rate of a player rated delta points
// above the opponent, for delta from `from` to `to` inclusive.
func WinRateCurve(formula rating.Elo, from, to, step float64) ([]CurvePoint, error) {
	if err := formula.Validate(); err != nil {
		return nil, err
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, apperrors.Newf(apperrors.CodeInvalidRating, "curve step must be positive, got %v", step)
	}
	if math.IsNaN(from) || math.IsNaN(to) || math.IsInf(from, 0) || math.IsInf(to, 0) || to < from {
		return nil, apperrors.Newf(apperrors.CodeInvalidRating, "curve range [%v, %v] is invalid", from, to)
	}
	count := math.Floor((to-from)/step) + 1
	if !(count <= maxCurvePoints) {
		return nil, apperrors.Newf(apperrors.CodeInvalidRating, "curve would have %g points, max %d", count, maxCurvePoints)
	}
	n := int(count)

	points := make([]CurvePoint, n)
	for i := range points {
		d := from + float64(i)*step
		points[i] = CurvePoint{RatingDelta: d, WinRate: formula.ExpectedWinRate(d)}
	}
	return points, nil
}

// RatingGapFor returns the rating difference at which the expected win rate
// equals winRate, the inverse of rating.Elo.ExpectedWinRate.
func RatingGapFor(formula rating.Elo, winRate float64) (float64, error) {
	if !(winRate > 0 && winRate < 1) {
		return 0, apperrors.Newf(apperrors.CodeInvalidWinRate, "win rate must be in (0, 1), got %v", winRate)
	}
	return formula.Divider * math.Log10(winRate/(1-winRate)), nil
}
