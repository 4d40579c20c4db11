package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func intPtr(v int) *int { return &v }

func methodPtr(m models.ResultMethod) *models.ResultMethod { return &m }

// fakeStore is an in-memory stand-in for the database. Stored values are never mutated
// in place, so copying the maps is enough to snapshot it.
type fakeStore struct {
	mu sync.Mutex

	events        map[int]*models.Event
	competitors   map[int]*models.Competitor
	championships map[int]*models.Championship
	reigns        map[int]*models.Reign
	history       []*models.MatchHistoryRecord

	nextReignID   int
	nextHistoryID int

	// writes counts successful write calls.
	writes int
	// failOn names a write operation that returns an injected error.
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[int]*models.Event),
		competitors:   make(map[int]*models.Competitor),
		championships: make(map[int]*models.Championship),
		reigns:        make(map[int]*models.Reign),
		nextReignID:   100,
		nextHistoryID: 1,
	}
}

type storeState struct {
	events        map[int]*models.Event
	competitors   map[int]*models.Competitor
	championships map[int]*models.Championship
	reigns        map[int]*models.Reign
	history       []*models.MatchHistoryRecord
	nextReignID   int
	nextHistoryID int
}

func (s *fakeStore) state() storeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := storeState{
		events:        make(map[int]*models.Event, len(s.events)),
		competitors:   make(map[int]*models.Competitor, len(s.competitors)),
		championships: make(map[int]*models.Championship, len(s.championships)),
		reigns:        make(map[int]*models.Reign, len(s.reigns)),
		history:       append([]*models.MatchHistoryRecord(nil), s.history...),
		nextReignID:   s.nextReignID,
		nextHistoryID: s.nextHistoryID,
	}
	for k, v := range s.events {
		st.events[k] = v
	}
	for k, v := range s.competitors {
		st.competitors[k] = v
	}
	for k, v := range s.championships {
		st.championships[k] = v
	}
	for k, v := range s.reigns {
		st.reigns[k] = v
	}
	return st
}

func (s *fakeStore) restore(st storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = st.events
	s.competitors = st.competitors
	s.championships = st.championships
	s.reigns = st.reigns
	s.history = st.history
	s.nextReignID = st.nextReignID
	s.nextHistoryID = st.nextHistoryID
}

// write must be called with mu held.
func (s *fakeStore) write(op string) error {
	if s.failOn == op {
		return fmt.Errorf("injected failure in %s", op)
	}
	s.writes++
	return nil
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *fakeStore) competitor(id int) models.Competitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.competitors[id]
}

func (s *fakeStore) championship(id int) models.Championship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.championships[id]
}

func (s *fakeStore) reignsOf(championshipID int) []models.Reign {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reign
	for _, r := range s.reigns {
		if r.ChampionshipID == championshipID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (s *fakeStore) historyRows() []models.MatchHistoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MatchHistoryRecord, 0, len(s.history))
	for _, h := range s.history {
		out = append(out, *h)
	}
	return out
}

// fakeTransactor rolls the store back when fn fails.
type fakeTransactor struct {
	store *fakeStore
	calls int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	saved := t.store.state()
	if err := fn(nil); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}

type fakeEventRepo struct{ s *fakeStore }

func (r fakeEventRepo) GetWithCard(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	cp := *e
	cp.Card = append([]models.Match(nil), e.Card...)
	return &cp, nil
}

func (r fakeEventRepo) MarkResultsRecorded(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok || e.ResultsRecorded() {
		return repositories.ErrEventResultsAlreadyRecorded
	}
	if err := r.s.write("events.MarkResultsRecorded"); err != nil {
		return err
	}
	cp := *e
	cp.ResultsStatus = models.ResultsRecorded
	r.s.events[id] = &cp
	return nil
}

func (r fakeEventRepo) MarkMatchesCompleted(_ context.Context, _ repositories.SQLExecutor, matchIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("events.MarkMatchesCompleted"); err != nil {
		return err
	}
	want := make(map[int]bool, len(matchIDs))
	for _, id := range matchIDs {
		want[id] = true
	}
	updated := 0
	for id, e := range r.s.events {
		cp := *e
		cp.Card = append([]models.Match(nil), e.Card...)
		for i := range cp.Card {
			if want[cp.Card[i].ID] {
				cp.Card[i].Completed = true
				updated++
			}
		}
		r.s.events[id] = &cp
	}
	if updated != len(matchIDs) {
		return fmt.Errorf("updated %d of %d matches", updated, len(matchIDs))
	}
	return nil
}

func (r fakeEventRepo) ListPendingBefore(_ context.Context, _ repositories.SQLExecutor, before time.Time) ([]*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Event
	for _, e := range r.s.events {
		if !e.ResultsRecorded() && e.Date.Before(before) {
			cp := *e
			cp.Card = nil
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeCompetitorRepo struct{ s *fakeStore }

func (r fakeCompetitorRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Competitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.competitors[id]
	if !ok {
		return nil, repositories.ErrCompetitorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeCompetitorRepo) ListByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) (map[int]*models.Competitor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]*models.Competitor, len(ids))
	for _, id := range ids {
		if c, ok := r.s.competitors[id]; ok {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

func (r fakeCompetitorRepo) BatchUpdateResults(_ context.Context, _ repositories.SQLExecutor, competitors []*models.Competitor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("competitors.BatchUpdateResults"); err != nil {
		return err
	}
	for _, c := range competitors {
		if _, ok := r.s.competitors[c.ID]; !ok {
			return repositories.ErrCompetitorNotFound
		}
		cp := *c
		r.s.competitors[c.ID] = &cp
	}
	return nil
}

type fakeChampionshipRepo struct{ s *fakeStore }

func (r fakeChampionshipRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Championship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ch, ok := r.s.championships[id]
	if !ok {
		return nil, repositories.ErrChampionshipNotFound
	}
	cp := *ch
	return &cp, nil
}

func (r fakeChampionshipRepo) ListByIDs(_ context.Context, _ repositories.SQLExecutor, ids []int) (map[int]*models.Championship, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int]*models.Championship, len(ids))
	for _, id := range ids {
		if ch, ok := r.s.championships[id]; ok {
			cp := *ch
			out[id] = &cp
		}
	}
	return out, nil
}

func (r fakeChampionshipRepo) BatchUpdateHolders(_ context.Context, _ repositories.SQLExecutor, championships []*models.Championship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if len(championships) == 0 {
		return nil
	}
	if err := r.s.write("championships.BatchUpdateHolders"); err != nil {
		return err
	}
	for _, ch := range championships {
		if _, ok := r.s.championships[ch.ID]; !ok {
			return repositories.ErrChampionshipNotFound
		}
		cp := *ch
		r.s.championships[ch.ID] = &cp
	}
	return nil
}

type fakeReignRepo struct{ s *fakeStore }

func (r fakeReignRepo) Insert(_ context.Context, _ repositories.SQLExecutor, reign *models.Reign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reigns {
		if existing.ChampionshipID != reign.ChampionshipID {
			continue
		}
		if existing.Sequence == reign.Sequence {
			return repositories.ErrReignSequenceConflict
		}
		if existing.IsOpen() && reign.IsOpen() {
			return repositories.ErrReignAlreadyOpen
		}
	}
	if err := r.s.write("reigns.Insert"); err != nil {
		return err
	}
	cp := *reign
	cp.ID = r.s.nextReignID
	r.s.nextReignID++
	r.s.reigns[cp.ID] = &cp
	reign.ID = cp.ID
	return nil
}

func (r fakeReignRepo) openReign(id int) (*models.Reign, error) {
	reign, ok := r.s.reigns[id]
	if !ok || !reign.IsOpen() {
		return nil, repositories.ErrReignNotFound
	}
	return reign, nil
}

func (r fakeReignRepo) UpdateDefenses(_ context.Context, _ repositories.SQLExecutor, reignID int, defenses int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reign, err := r.openReign(reignID)
	if err != nil {
		return err
	}
	if err := r.s.write("reigns.UpdateDefenses"); err != nil {
		return err
	}
	cp := *reign
	cp.Defenses = defenses
	r.s.reigns[reignID] = &cp
	return nil
}

func (r fakeReignRepo) Close(_ context.Context, _ repositories.SQLExecutor, reignID int, endEventID int, endedAt time.Time, lostToID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reign, err := r.openReign(reignID)
	if err != nil {
		return err
	}
	if err := r.s.write("reigns.Close"); err != nil {
		return err
	}
	cp := *reign
	cp.EndEventID = &endEventID
	cp.EndedAt = &endedAt
	cp.LostToID = &lostToID
	r.s.reigns[reignID] = &cp
	return nil
}

func (r fakeReignRepo) ListOpenByChampionships(_ context.Context, _ repositories.SQLExecutor, championshipIDs []int) (map[int]*models.Reign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int]bool, len(championshipIDs))
	for _, id := range championshipIDs {
		want[id] = true
	}
	out := make(map[int]*models.Reign)
	for _, reign := range r.s.reigns {
		if !want[reign.ChampionshipID] || !reign.IsOpen() {
			continue
		}
		if _, dup := out[reign.ChampionshipID]; dup {
			return nil, fmt.Errorf("championship %d: %w", reign.ChampionshipID, repositories.ErrReignAlreadyOpen)
		}
		cp := *reign
		out[reign.ChampionshipID] = &cp
	}
	return out, nil
}

func (r fakeReignRepo) MaxSequences(_ context.Context, _ repositories.SQLExecutor, championshipIDs []int) (map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int]bool, len(championshipIDs))
	for _, id := range championshipIDs {
		want[id] = true
	}
	out := make(map[int]int)
	for _, reign := range r.s.reigns {
		if want[reign.ChampionshipID] && reign.Sequence > out[reign.ChampionshipID] {
			out[reign.ChampionshipID] = reign.Sequence
		}
	}
	return out, nil
}

func (r fakeReignRepo) ListByChampionship(_ context.Context, _ repositories.SQLExecutor, championshipID int) ([]models.Reign, error) {
	return r.s.reignsOf(championshipID), nil
}

type fakeHistoryRepo struct{ s *fakeStore }

func (r fakeHistoryRepo) BatchInsert(_ context.Context, _ repositories.SQLExecutor, records []*models.MatchHistoryRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.write("history.BatchInsert"); err != nil {
		return err
	}
	for _, rec := range records {
		for _, existing := range r.s.history {
			if existing.MatchID == rec.MatchID {
				return errors.New("duplicate match history row")
			}
		}
		cp := *rec
		cp.ID = r.s.nextHistoryID
		r.s.nextHistoryID++
		r.s.history = append(r.s.history, &cp)
	}
	return nil
}

func (r fakeHistoryRepo) ListByCompetitor(_ context.Context, _ repositories.SQLExecutor, competitorID int, limit int) ([]models.MatchHistoryRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.MatchHistoryRecord
	for i := len(r.s.history) - 1; i >= 0 && len(out) < limit; i-- {
		h := r.s.history[i]
		if h.Competitor1ID == competitorID || h.Competitor2ID == competitorID {
			out = append(out, *h)
		}
	}
	return out, nil
}

// recordingAnnouncer remembers what it was asked to emit and whether the event was
// already marked recorded at that moment.
type recordingAnnouncer struct {
	store *fakeStore
	calls [][]*models.Announcement
	// committedAtEmit holds, per call, whether every event was recorded when Emit ran.
	committedAtEmit []bool
}

func (a *recordingAnnouncer) Emit(_ context.Context, announcements []*models.Announcement) {
	a.calls = append(a.calls, announcements)
	committed := true
	a.store.mu.Lock()
	for _, e := range a.store.events {
		if !e.ResultsRecorded() {
			committed = false
		}
	}
	a.store.mu.Unlock()
	a.committedAtEmit = append(a.committedAtEmit, committed)
}

type harness struct {
	store     *fakeStore
	tx        *fakeTransactor
	announcer *recordingAnnouncer
	service   *resultsService
}

func newHarness() *harness {
	store := newFakeStore()
	h := &harness{
		store:     store,
		tx:        &fakeTransactor{store: store},
		announcer: &recordingAnnouncer{store: store},
	}
	h.service = NewResultsService(
		h.tx,
		fakeEventRepo{store},
		fakeCompetitorRepo{store},
		fakeChampionshipRepo{store},
		fakeReignRepo{store},
		fakeHistoryRepo{store},
		h.announcer,
		nil,
		discardLogger(),
	).(*resultsService)
	h.service.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	return h
}

func (h *harness) addCompetitor(id int, name string, rating *int) {
	h.store.competitors[id] = &models.Competitor{ID: id, Name: name, Rating: rating}
}

func (h *harness) addEvent(id int, name string, card ...models.Match) {
	for i := range card {
		card[i].EventID = id
		if card[i].Position == 0 {
			card[i].Position = i + 1
		}
	}
	h.store.events[id] = &models.Event{
		ID:            id,
		Name:          name,
		Date:          time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC),
		ResultsStatus: models.ResultsPending,
		Card:          card,
	}
}

func win(id, c1, c2, winner int, method models.ResultMethod) models.Match {
	return models.Match{ID: id, Competitor1ID: c1, Competitor2ID: c2, WinnerID: intPtr(winner), Method: methodPtr(method)}
}

func titleWin(id, c1, c2, winner, championshipID int, method models.ResultMethod) models.Match {
	m := win(id, c1, c2, winner, method)
	m.IsTitleMatch = true
	m.ChampionshipID = intPtr(championshipID)
	return m
}
