// Package rating implements the expected-outcome rating model used to move competitor
// ratings after a match.
package rating

import (
	"errors"
	"math"
)

const (
	BaseK      = 32
	MainEventK = 40
	TitleK     = 48

	// StartingRating is assigned to competitors without a stored rating.
	StartingRating = 1000
	// Floor is the lowest rating a competitor can end an event with.
	Floor = 100
)

var ErrNonFiniteRating = errors.New("rating must be a finite number")

// Context carries the match importance used for K-factor selection.
type Context struct {
	IsTitleMatch bool
	IsMainEvent  bool
}

// KFactor picks the highest applicable tier; title beats main event, tiers never add up.
func KFactor(ctx Context) int {
	switch {
	case ctx.IsTitleMatch:
		return TitleK
	case ctx.IsMainEvent:
		return MainEventK
	default:
		return BaseK
	}
}

// ExpectedScore returns the probability that a competitor rated r beats one rated opponent.
func ExpectedScore(r, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-r)/400))
}

// ComputeDelta returns the rating transfer for a decided match. loserDelta is always
// -winnerDelta.
func ComputeDelta(winnerRating, loserRating float64, ctx Context) (winnerDelta, loserDelta int, err error) {
	if err := checkFinite(winnerRating, loserRating); err != nil {
		return 0, 0, err
	}
	k := float64(KFactor(ctx))
	e := ExpectedScore(winnerRating, loserRating)
	winnerDelta = int(math.Round(k * (1 - e)))
	return winnerDelta, -winnerDelta, nil
}

// ComputeDrawDelta scores a draw as 0.5 for both sides. The result is still zero-sum:
// the lower rated competitor gains what the higher rated one loses.
func ComputeDrawDelta(ratingA, ratingB float64, ctx Context) (deltaA, deltaB int, err error) {
	if err := checkFinite(ratingA, ratingB); err != nil {
		return 0, 0, err
	}
	k := float64(KFactor(ctx))
	e := ExpectedScore(ratingA, ratingB)
	deltaA = int(math.Round(k * (0.5 - e)))
	return deltaA, -deltaA, nil
}

// ApplyFloor clamps a rating to Floor.
func ApplyFloor(r int) int {
	if r < Floor {
		return Floor
	}
	return r
}

func checkFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteRating
		}
	}
	return nil
}
