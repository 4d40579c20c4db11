// Package record folds match outcomes into a competitor's running win/loss record.
package record

import (
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
)

var ErrUnknownMethod = errors.New("unknown result method")

type Outcome int

const (
	Win Outcome = iota + 1
	Loss
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Loss:
		return "loss"
	case Draw:
		return "draw"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result describes one match from a single competitor's point of view.
type Result struct {
	Outcome           Outcome
	Method            models.ResultMethod
	IsMainEvent       bool
	IsTitleMatch      bool
	BecameNewChampion bool
}

// Fold returns stats with r applied. The input is not modified.
func Fold(stats models.CompetitorStats, r Result) (models.CompetitorStats, error) {
	switch r.Outcome {
	case Win:
		if err := countMethod(&stats, r.Method); err != nil {
			return stats, err
		}
		stats.Wins++
		if stats.Streak > 0 {
			stats.Streak++
		} else {
			stats.Streak = 1
		}
		if stats.Streak > stats.BestStreak {
			stats.BestStreak = stats.Streak
		}
		if r.IsMainEvent {
			stats.MainEventWins++
		}
		if r.BecameNewChampion {
			stats.TitlesWon++
		} else if r.IsTitleMatch {
			stats.TitleDefenses++
		}
	case Loss:
		stats.Losses++
		if stats.Streak < 0 {
			stats.Streak--
		} else {
			stats.Streak = -1
		}
	case Draw:
		stats.Draws++
		stats.Streak = 0
	default:
		return stats, fmt.Errorf("fold: invalid outcome %v", r.Outcome)
	}
	return stats, nil
}

func countMethod(stats *models.CompetitorStats, method models.ResultMethod) error {
	switch method {
	case models.MethodPinfall:
		stats.PinfallWins++
	case models.MethodSubmission:
		stats.SubmissionWins++
	case models.MethodKnockout:
		stats.KnockoutWins++
	case models.MethodDisqualification:
		stats.DisqualificationWins++
	case models.MethodOther:
		stats.OtherWins++
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	return nil
}
