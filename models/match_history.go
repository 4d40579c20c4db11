package models

import "time"

// MatchHistoryRecord is an append-only audit row written once per resolved match.
type MatchHistoryRecord struct {
	ID                int          `json:"id" db:"id"`
	MatchID           int          `json:"match_id" db:"match_id"`
	EventID           int          `json:"event_id" db:"event_id"`
	Competitor1ID     int          `json:"competitor1_id" db:"competitor1_id"`
	Competitor2ID     int          `json:"competitor2_id" db:"competitor2_id"`
	WinnerID          *int         `json:"winner_id,omitempty" db:"winner_id"`
	LoserID           *int         `json:"loser_id,omitempty" db:"loser_id"`
	Method            ResultMethod `json:"method" db:"method"`
	IsTitleMatch      bool         `json:"is_title_match" db:"is_title_match"`
	IsMainEvent       bool         `json:"is_main_event" db:"is_main_event"`
	ChampionshipID    *int         `json:"championship_id,omitempty" db:"championship_id"`
	TitleChanged      bool         `json:"title_changed" db:"title_changed"`
	Competitor1Rating int          `json:"competitor1_rating" db:"competitor1_rating"` // эффективный рейтинг перед матчем
	Competitor2Rating int          `json:"competitor2_rating" db:"competitor2_rating"`
	Competitor1Delta  int          `json:"competitor1_delta" db:"competitor1_delta"`
	Competitor2Delta  int          `json:"competitor2_delta" db:"competitor2_delta"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}
