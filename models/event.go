package models

import "time"

// ResultsStatus is the two-state resubmission guard of an event.
type ResultsStatus string

const (
	ResultsPending  ResultsStatus = "pending"
	ResultsRecorded ResultsStatus = "recorded"
)

type Event struct {
	ID            int           `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Date          time.Time     `json:"date" db:"event_date"`
	ResultsStatus ResultsStatus `json:"results_status" db:"results_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`

	// Card is ordered by Match.Position.
	Card []Match `json:"card,omitempty" db:"-"`
}

// ResultsRecorded reports whether the event has already been resolved.
func (e *Event) ResultsRecorded() bool {
	return e.ResultsStatus == ResultsRecorded
}
