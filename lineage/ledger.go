// Package lineage keeps a championship's current holder and its append-only history of
// reigns consistent with each other.
package lineage

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/promotion-results/models"
)

var ErrInconsistency = errors.New("title lineage inconsistency")

// InconsistencyError means the stored championship and reign rows disagree. It is fatal
// for the submission that hit it.
type InconsistencyError struct {
	ChampionshipID int
	Reason         string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("%s: championship %d: %s", ErrInconsistency, e.ChampionshipID, e.Reason)
}

func (e *InconsistencyError) Is(target error) bool {
	return target == ErrInconsistency
}

type TransitionKind int

const (
	// Crowned: Vacant -> Held(B).
	Crowned TransitionKind = iota + 1
	// Changed: Held(A) -> Held(B), B != A.
	Changed
	// Defended: Held(A) -> Held(A).
	Defended
)

func (k TransitionKind) String() string {
	switch k {
	case Crowned:
		return "crowned"
	case Changed:
		return "changed"
	case Defended:
		return "defended"
	}
	return fmt.Sprintf("TransitionKind(%d)", int(k))
}

// Marker identifies where a reign starts or ends.
type Marker struct {
	EventID int
	At      time.Time
}

type Transition struct {
	Kind             TransitionKind
	ChampionshipID   int
	PreviousHolderID *int
	NewHolderID      int
	// Sequence of the reign that is open after the transition.
	Sequence int
}

// TitleChanged reports whether the title went to a new holder.
func (t Transition) TitleChanged() bool {
	return t.Kind == Crowned || t.Kind == Changed
}

// Changes is the write set a ledger accumulated since it was created.
type Changes struct {
	Championship models.Championship
	// Existing is the reign that was open when the ledger was loaded, if any.
	Existing         *models.Reign
	ExistingDefended bool
	ExistingClosed   bool
	// Inserted are new reigns in sequence order. All but the last are already closed.
	Inserted []*models.Reign
}

// Ledger applies title-match outcomes to one championship. It is not safe for
// concurrent use.
type Ledger struct {
	championship models.Championship
	open         *models.Reign
	maxSequence  int

	existing         *models.Reign
	existingDefended bool
	existingClosed   bool
	inserted         []*models.Reign
}

// New builds a ledger from a snapshot: the championship row, its open reign (nil when
// none was found) and the highest reign sequence stored for it.
func New(championship models.Championship, open *models.Reign, maxSequence int) *Ledger {
	l := &Ledger{
		championship: championship,
		maxSequence:  maxSequence,
	}
	if open != nil {
		r := *open
		l.open = &r
		l.existing = &r
	}
	return l
}

// Apply records the outcome of a decided title match.
func (l *Ledger) Apply(winnerID, loserID int, at Marker) (Transition, error) {
	if err := l.checkOpenReign(); err != nil {
		return Transition{}, err
	}

	ch := &l.championship
	if ch.CurrentHolderID != nil && *ch.CurrentHolderID == winnerID {
		ch.CurrentDefenses++
		l.open.Defenses++
		if l.open == l.existing {
			l.existingDefended = true
		}
		return Transition{
			Kind:             Defended,
			ChampionshipID:   ch.ID,
			PreviousHolderID: intPtr(winnerID),
			NewHolderID:      winnerID,
			Sequence:         l.open.Sequence,
		}, nil
	}

	kind := Crowned
	var previous *int
	if ch.CurrentHolderID != nil {
		kind = Changed
		previous = intPtr(*ch.CurrentHolderID)
		l.closeOpen(winnerID, at)
	}

	l.maxSequence++
	reign := &models.Reign{
		ChampionshipID: ch.ID,
		HolderID:       winnerID,
		Sequence:       l.maxSequence,
		StartEventID:   at.EventID,
		StartedAt:      at.At,
		WonFromID:      intPtr(loserID),
	}
	l.inserted = append(l.inserted, reign)
	l.open = reign

	ch.CurrentHolderID = intPtr(winnerID)
	ch.CurrentDefenses = 0

	return Transition{
		Kind:             kind,
		ChampionshipID:   ch.ID,
		PreviousHolderID: previous,
		NewHolderID:      winnerID,
		Sequence:         reign.Sequence,
	}, nil
}

// Championship returns the championship state after all applied transitions.
func (l *Ledger) Championship() models.Championship {
	return l.championship
}

// Changes returns copies of everything the ledger needs persisted.
func (l *Ledger) Changes() Changes {
	c := Changes{
		Championship:     l.championship,
		ExistingDefended: l.existingDefended,
		ExistingClosed:   l.existingClosed,
	}
	if l.existing != nil {
		r := *l.existing
		c.Existing = &r
	}
	for _, r := range l.inserted {
		cp := *r
		c.Inserted = append(c.Inserted, &cp)
	}
	return c
}

// Dirty reports whether Apply changed anything.
func (l *Ledger) Dirty() bool {
	return l.existingDefended || l.existingClosed || len(l.inserted) > 0
}

func (l *Ledger) closeOpen(lostTo int, at Marker) {
	end := at.At
	l.open.EndEventID = intPtr(at.EventID)
	l.open.EndedAt = &end
	l.open.LostToID = intPtr(lostTo)
	if l.open == l.existing {
		l.existingClosed = true
	}
	l.open = nil
}

func (l *Ledger) checkOpenReign() error {
	ch := l.championship
	if ch.CurrentHolderID == nil {
		if l.open != nil {
			return &InconsistencyError{ChampionshipID: ch.ID, Reason: fmt.Sprintf("vacant but reign #%d is open", l.open.Sequence)}
		}
		return nil
	}
	if l.open == nil {
		return &InconsistencyError{ChampionshipID: ch.ID, Reason: fmt.Sprintf("held by competitor %d without an open reign", *ch.CurrentHolderID)}
	}
	if l.open.HolderID != *ch.CurrentHolderID {
		return &InconsistencyError{
			ChampionshipID: ch.ID,
			Reason:         fmt.Sprintf("open reign #%d belongs to competitor %d, holder is %d", l.open.Sequence, l.open.HolderID, *ch.CurrentHolderID),
		}
	}
	if l.open.Sequence != l.maxSequence {
		return &InconsistencyError{
			ChampionshipID: ch.ID,
			Reason:         fmt.Sprintf("open reign #%d is not the latest (max sequence %d)", l.open.Sequence, l.maxSequence),
		}
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
