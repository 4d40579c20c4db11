package models

// ResultMethod - способ, которым завершился матч.
type ResultMethod string

const (
	MethodPinfall          ResultMethod = "pinfall"
	MethodSubmission       ResultMethod = "submission"
	MethodKnockout         ResultMethod = "knockout"
	MethodDisqualification ResultMethod = "disqualification"
	MethodOther            ResultMethod = "other"
	MethodDraw             ResultMethod = "draw"
)

// Valid reports whether m is one of the known methods.
func (m ResultMethod) Valid() bool {
	switch m {
	case MethodPinfall, MethodSubmission, MethodKnockout, MethodDisqualification, MethodOther, MethodDraw:
		return true
	}
	return false
}

// Match is one bout on an event's card.
type Match struct {
	ID             int           `json:"id" db:"id"`
	EventID        int           `json:"event_id" db:"event_id"`
	Position       int           `json:"position" db:"position"`
	Competitor1ID  int           `json:"competitor1_id" db:"competitor1_id" validate:"required"`
	Competitor2ID  int           `json:"competitor2_id" db:"competitor2_id" validate:"required,nefield=Competitor1ID"`
	IsMainEvent    bool          `json:"is_main_event" db:"is_main_event"`
	IsTitleMatch   bool          `json:"is_title_match" db:"is_title_match"`
	ChampionshipID *int          `json:"championship_id,omitempty" db:"championship_id" validate:"required_if=IsTitleMatch true"`
	WinnerID       *int          `json:"winner_id,omitempty" db:"winner_id" validate:"omitempty,participant"`
	Method         *ResultMethod `json:"method,omitempty" db:"method" validate:"required,result_method"`
	Completed      bool          `json:"completed" db:"completed"`
}

// IsDraw reports whether the match was declared a draw.
func (m *Match) IsDraw() bool {
	return m.Method != nil && *m.Method == MethodDraw
}

// IsReady reports whether the outcome has been fully declared: a method, and a winner
// unless the method is a draw.
func (m *Match) IsReady() bool {
	if m.Method == nil || *m.Method == "" {
		return false
	}
	if m.IsDraw() {
		return true
	}
	return m.WinnerID != nil
}

// LoserID returns the competitor who did not win, or nil for draws and undecided matches.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil || m.IsDraw() {
		return nil
	}
	loser := m.Competitor1ID
	if *m.WinnerID == m.Competitor1ID {
		loser = m.Competitor2ID
	}
	return &loser
}
