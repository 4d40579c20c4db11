package models

import "time"

type AnnouncementCategory string

const CategoryTitleChange AnnouncementCategory = "title_change"

// Announcement is structured content handed to the publishing surface after a commit.
type Announcement struct {
	ID               string               `json:"id" db:"id"`
	Slug             string               `json:"slug" db:"slug"`
	Category         AnnouncementCategory `json:"category" db:"category"`
	Title            string               `json:"title" db:"title"`
	Body             string               `json:"body" db:"body"`
	EventID          int                  `json:"event_id" db:"event_id"`
	ChampionshipID   int                  `json:"championship_id" db:"championship_id"`
	NewHolderID      int                  `json:"new_holder_id" db:"new_holder_id"`
	PreviousHolderID *int                 `json:"previous_holder_id,omitempty" db:"previous_holder_id"`
	Method           ResultMethod         `json:"method" db:"method"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
}
