package models

import "time"

// Championship - титул с текущим обладателем (nil = вакантен).
type Championship struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	CurrentHolderID *int      `json:"current_holder_id,omitempty" db:"current_holder_id"`
	CurrentDefenses int       `json:"current_defenses" db:"current_defenses"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	Lineage []Reign `json:"lineage,omitempty" db:"-"`
}

// IsVacant reports whether nobody currently holds the title.
func (c *Championship) IsVacant() bool {
	return c.CurrentHolderID == nil
}

// Reign is one continuous title reign. Rows are append-only; the only mutations are the
// defense counter and closing the end marker.
type Reign struct {
	ID             int       `json:"id" db:"id"`
	ChampionshipID int       `json:"championship_id" db:"championship_id"`
	HolderID       int       `json:"holder_id" db:"holder_id"`
	Sequence       int       `json:"sequence" db:"sequence"`
	StartEventID   int       `json:"start_event_id" db:"start_event_id"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	// WonFromID - соперник, у которого был выигран титул (nil, если титул был вакантен).
	WonFromID  *int       `json:"won_from_id,omitempty" db:"won_from_id"`
	EndEventID *int       `json:"end_event_id,omitempty" db:"end_event_id"`
	EndedAt    *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	LostToID   *int       `json:"lost_to_id,omitempty" db:"lost_to_id"`
	Defenses   int        `json:"defenses" db:"defenses"`
}

// IsOpen reports whether the reign has no end marker.
func (r *Reign) IsOpen() bool {
	return r.EndedAt == nil
}
