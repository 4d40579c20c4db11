package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Dosada05/promotion-results/lineage"
	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/rating"
	"github.com/Dosada05/promotion-results/record"
)

// Snapshot is the explicit read set of one submission. Maps are keyed by entity id;
// OpenReigns and MaxSequences by championship id.
type Snapshot struct {
	Competitors   map[int]*models.Competitor
	Championships map[int]*models.Championship
	OpenReigns    map[int]*models.Reign
	MaxSequences  map[int]int
}

// CompetitorUpdate summarises how one competitor's rating moved over the event.
type CompetitorUpdate struct {
	CompetitorID   int                   `json:"competitor_id"`
	Name           string                `json:"name"`
	PreviousRating *int                  `json:"previous_rating,omitempty"`
	Rating         int                   `json:"rating"`
	Delta          int                   `json:"delta"`
	Movement       models.RatingMovement `json:"movement"`
	Reason         string                `json:"reason"`
}

type TitleChange struct {
	MatchID          int                 `json:"match_id"`
	ChampionshipID   int                 `json:"championship_id"`
	ChampionshipName string              `json:"championship_name"`
	NewHolderID      int                 `json:"new_holder_id"`
	PreviousHolderID *int                `json:"previous_holder_id,omitempty"`
	Method           models.ResultMethod `json:"method"`
	Sequence         int                 `json:"sequence"`
}

// Resolution is everything one event's card produces, ready to be committed.
type Resolution struct {
	Competitors   []*models.Competitor
	Updates       []CompetitorUpdate
	Ledgers       []lineage.Changes
	History       []*models.MatchHistoryRecord
	TitleChanges  []TitleChange
	Announcements []*models.Announcement
	MatchIDs      []int
}

// ResolveCard folds the card, in order, over the snapshot. It performs no I/O and leaves
// the snapshot untouched. The card must already be complete and validated.
func ResolveCard(event *models.Event, snap *Snapshot, now time.Time) (*Resolution, error) {
	acc := make(map[int]int)
	stats := make(map[int]models.CompetitorStats)
	order := make([]int, 0)
	for _, m := range event.Card {
		for _, id := range []int{m.Competitor1ID, m.Competitor2ID} {
			if _, seen := acc[id]; seen {
				continue
			}
			c, ok := snap.Competitors[id]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrCompetitorNotFound, id)
			}
			acc[id] = 0
			stats[id] = c.Stats
			order = append(order, id)
		}
	}

	ledgers := make(map[int]*lineage.Ledger)
	marker := lineage.Marker{EventID: event.ID, At: event.Date}
	if marker.At.IsZero() {
		marker.At = now
	}

	res := &Resolution{}
	for i := range event.Card {
		m := &event.Card[i]
		c1, c2 := snap.Competitors[m.Competitor1ID], snap.Competitors[m.Competitor2ID]
		r1 := c1.RatingOr(rating.StartingRating) + acc[c1.ID]
		r2 := c2.RatingOr(rating.StartingRating) + acc[c2.ID]

		d1, d2, err := matchDeltas(m, r1, r2)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", m.ID, err)
		}
		acc[c1.ID] += d1
		acc[c2.ID] += d2

		var transition *lineage.Transition
		if m.IsTitleMatch && !m.IsDraw() {
			champID := *m.ChampionshipID
			ledger, ok := ledgers[champID]
			if !ok {
				ch, found := snap.Championships[champID]
				if !found {
					return nil, fmt.Errorf("%w: %d", ErrChampionshipNotFound, champID)
				}
				ledger = lineage.New(*ch, snap.OpenReigns[champID], snap.MaxSequences[champID])
				ledgers[champID] = ledger
			}
			t, err := ledger.Apply(*m.WinnerID, *m.LoserID(), marker)
			if err != nil {
				return nil, fmt.Errorf("match %d: %w", m.ID, err)
			}
			transition = &t
			if t.TitleChanged() {
				ch := ledger.Championship()
				change := TitleChange{
					MatchID:          m.ID,
					ChampionshipID:   ch.ID,
					ChampionshipName: ch.Name,
					NewHolderID:      t.NewHolderID,
					PreviousHolderID: t.PreviousHolderID,
					Method:           *m.Method,
					Sequence:         t.Sequence,
				}
				res.TitleChanges = append(res.TitleChanges, change)
				res.Announcements = append(res.Announcements, newChampionAnnouncement(event, change, snap, now))
			}
		}

		for _, side := range []int{c1.ID, c2.ID} {
			folded, err := record.Fold(stats[side], resultFor(m, side, transition))
			if err != nil {
				return nil, fmt.Errorf("match %d competitor %d: %w", m.ID, side, err)
			}
			stats[side] = folded
		}

		res.History = append(res.History, &models.MatchHistoryRecord{
			MatchID:           m.ID,
			EventID:           event.ID,
			Competitor1ID:     c1.ID,
			Competitor2ID:     c2.ID,
			WinnerID:          m.WinnerID,
			LoserID:           m.LoserID(),
			Method:            *m.Method,
			IsTitleMatch:      m.IsTitleMatch,
			IsMainEvent:       m.IsMainEvent,
			ChampionshipID:    m.ChampionshipID,
			TitleChanged:      transition != nil && transition.TitleChanged(),
			Competitor1Rating: r1,
			Competitor2Rating: r2,
			Competitor1Delta:  d1,
			Competitor2Delta:  d2,
		})
		res.MatchIDs = append(res.MatchIDs, m.ID)
	}

	sort.Ints(order)
	for _, id := range order {
		stored := snap.Competitors[id]
		delta := acc[id]
		final := rating.ApplyFloor(stored.RatingOr(rating.StartingRating) + delta)
		movement := models.MovementFromDelta(delta)
		reason := fmt.Sprintf("%s: %+d points", event.Name, delta)

		updated := *stored
		updated.Rating = &final
		updated.RatingMovement = &movement
		updated.RatingReason = &reason
		updated.Stats = stats[id]
		res.Competitors = append(res.Competitors, &updated)

		res.Updates = append(res.Updates, CompetitorUpdate{
			CompetitorID:   id,
			Name:           stored.Name,
			PreviousRating: stored.Rating,
			Rating:         final,
			Delta:          delta,
			Movement:       movement,
			Reason:         reason,
		})
	}

	champIDs := make([]int, 0, len(ledgers))
	for id := range ledgers {
		champIDs = append(champIDs, id)
	}
	sort.Ints(champIDs)
	for _, id := range champIDs {
		if l := ledgers[id]; l.Dirty() {
			res.Ledgers = append(res.Ledgers, l.Changes())
		}
	}
	return res, nil
}

func matchDeltas(m *models.Match, r1, r2 int) (int, int, error) {
	ctx := rating.Context{IsTitleMatch: m.IsTitleMatch, IsMainEvent: m.IsMainEvent}
	if m.IsDraw() {
		return rating.ComputeDrawDelta(float64(r1), float64(r2), ctx)
	}
	if *m.WinnerID == m.Competitor1ID {
		return rating.ComputeDelta(float64(r1), float64(r2), ctx)
	}
	w, l, err := rating.ComputeDelta(float64(r2), float64(r1), ctx)
	return l, w, err
}

func resultFor(m *models.Match, competitorID int, t *lineage.Transition) record.Result {
	r := record.Result{
		Method:       *m.Method,
		IsMainEvent:  m.IsMainEvent,
		IsTitleMatch: m.IsTitleMatch,
	}
	switch {
	case m.IsDraw():
		r.Outcome = record.Draw
	case *m.WinnerID == competitorID:
		r.Outcome = record.Win
		r.BecameNewChampion = t != nil && t.TitleChanged()
	default:
		r.Outcome = record.Loss
	}
	return r
}

func newChampionAnnouncement(event *models.Event, change TitleChange, snap *Snapshot, now time.Time) *models.Announcement {
	winner := competitorName(snap, change.NewHolderID)
	title := fmt.Sprintf("%s is the new %s", winner, change.ChampionshipName)

	body := fmt.Sprintf("%s won the vacant %s by %s at %s.", winner, change.ChampionshipName, change.Method, event.Name)
	if change.PreviousHolderID != nil {
		body = fmt.Sprintf("%s dethroned %s by %s at %s to become the new %s.",
			winner, competitorName(snap, *change.PreviousHolderID), change.Method, event.Name, change.ChampionshipName)
	}

	return &models.Announcement{
		ID:               uuid.NewString(),
		Slug:             slug.Make(fmt.Sprintf("%s reign %d %s", change.ChampionshipName, change.Sequence, winner)),
		Category:         models.CategoryTitleChange,
		Title:            title,
		Body:             body,
		EventID:          event.ID,
		ChampionshipID:   change.ChampionshipID,
		NewHolderID:      change.NewHolderID,
		PreviousHolderID: change.PreviousHolderID,
		Method:           change.Method,
		CreatedAt:        now,
	}
}

func competitorName(snap *Snapshot, id int) string {
	if c, ok := snap.Competitors[id]; ok && c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("Competitor %d", id)
}
