package models

import "time"

// RatingMovement показывает направление изменения рейтинга после события.
type RatingMovement string

const (
	MovementUp   RatingMovement = "up"
	MovementDown RatingMovement = "down"
	MovementSame RatingMovement = "same"
)

// MovementFromDelta derives the movement tag from the sign of an accumulated delta.
func MovementFromDelta(delta int) RatingMovement {
	switch {
	case delta > 0:
		return MovementUp
	case delta < 0:
		return MovementDown
	default:
		return MovementSame
	}
}

// CompetitorStats is the running win/loss record of a competitor.
type CompetitorStats struct {
	Wins   int `json:"wins" db:"wins"`
	Losses int `json:"losses" db:"losses"`
	Draws  int `json:"draws" db:"draws"`
	// Streak > 0 - серия побед, < 0 - серия поражений, 0 после ничьей.
	Streak     int `json:"streak" db:"streak"`
	BestStreak int `json:"best_streak" db:"best_streak"`

	PinfallWins          int `json:"pinfall_wins" db:"pinfall_wins"`
	SubmissionWins       int `json:"submission_wins" db:"submission_wins"`
	KnockoutWins         int `json:"knockout_wins" db:"knockout_wins"`
	DisqualificationWins int `json:"disqualification_wins" db:"disqualification_wins"`
	OtherWins            int `json:"other_wins" db:"other_wins"`

	MainEventWins int `json:"main_event_wins" db:"main_event_wins"`
	TitlesWon     int `json:"titles_won" db:"titles_won"`
	TitleDefenses int `json:"title_defenses" db:"title_defenses"`
}

type Competitor struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	// Rating is nil until the competitor's first resolved event.
	Rating         *int            `json:"rating,omitempty" db:"rating"`
	RatingMovement *RatingMovement `json:"rating_movement,omitempty" db:"rating_movement"`
	RatingReason   *string         `json:"rating_reason,omitempty" db:"rating_reason"`
	Stats          CompetitorStats `json:"stats" db:"-"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// RatingOr returns the stored rating or the given starting rating for unrated competitors.
func (c *Competitor) RatingOr(starting int) int {
	if c == nil || c.Rating == nil {
		return starting
	}
	return *c.Rating
}
