package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/promotion-results/lineage"
	"github.com/Dosada05/promotion-results/metrics"
	"github.com/Dosada05/promotion-results/models"
	"github.com/Dosada05/promotion-results/repositories"
)

// Announcer delivers announcements after a successful commit. Delivery is best effort:
// implementations log their own failures.
type Announcer interface {
	Emit(ctx context.Context, announcements []*models.Announcement)
}

// SubmissionSummary is returned for an accepted submission.
type SubmissionSummary struct {
	EventID             int                `json:"event_id"`
	CompetitorsUpdated  int                `json:"competitors_updated"`
	TitleChanges        []TitleChange      `json:"title_changes"`
	AnnouncementsQueued int                `json:"announcements_queued"`
	Competitors         []CompetitorUpdate `json:"competitors"`
}

type ResultsService interface {
	SubmitEventResults(ctx context.Context, eventID int) (*SubmissionSummary, error)
}

type resultsService struct {
	tx               repositories.Transactor
	eventRepo        repositories.EventRepository
	competitorRepo   repositories.CompetitorRepository
	championshipRepo repositories.ChampionshipRepository
	reignRepo        repositories.ReignRepository
	historyRepo      repositories.MatchHistoryRepository
	announcer        Announcer
	metrics          *metrics.Results
	logger           *slog.Logger
	now              func() time.Time
}

func NewResultsService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	competitorRepo repositories.CompetitorRepository,
	championshipRepo repositories.ChampionshipRepository,
	reignRepo repositories.ReignRepository,
	historyRepo repositories.MatchHistoryRepository,
	announcer Announcer,
	m *metrics.Results,
	logger *slog.Logger,
) ResultsService {
	return &resultsService{
		tx:               tx,
		eventRepo:        eventRepo,
		competitorRepo:   competitorRepo,
		championshipRepo: championshipRepo,
		reignRepo:        reignRepo,
		historyRepo:      historyRepo,
		announcer:        announcer,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
	}
}

func (s *resultsService) SubmitEventResults(ctx context.Context, eventID int) (summary *SubmissionSummary, err error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveSubmission(submissionOutcome(err), time.Since(started))
	}()

	event, err := s.eventRepo.GetWithCard(ctx, nil, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}
	log := s.logger.With(slog.Int("event_id", event.ID), slog.String("event", event.Name))

	if event.ResultsRecorded() {
		log.Warn("results submission rejected: already recorded")
		return nil, ErrResultsAlreadyRecorded
	}
	if n := countIncomplete(event.Card); n > 0 {
		log.Warn("results submission rejected: incomplete matches", slog.Int("count", n))
		return nil, &IncompleteMatchesError{Count: n}
	}

	snap, err := s.loadSnapshot(ctx, event.Card)
	if err != nil {
		if errors.Is(err, lineage.ErrInconsistency) {
			log.Error("title lineage inconsistency in stored reigns", slog.Any("error", err))
		}
		return nil, fmt.Errorf("load snapshot for event %d: %w", event.ID, err)
	}
	if err := validateCard(event.Card, snap); err != nil {
		log.Warn("results submission rejected: invalid card", slog.Any("error", err))
		return nil, err
	}

	res, err := ResolveCard(event, snap, s.now())
	if err != nil {
		if errors.Is(err, lineage.ErrInconsistency) {
			log.Error("title lineage inconsistency, nothing written", slog.Any("error", err))
		}
		return nil, err
	}

	if err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.commit(ctx, exec, event.ID, res)
	}); err != nil {
		switch {
		case errors.Is(err, repositories.ErrEventResultsAlreadyRecorded):
			log.Warn("results submission lost the race to another submission")
			return nil, ErrResultsAlreadyRecorded
		case errors.Is(err, lineage.ErrInconsistency):
			log.Error("title lineage inconsistency during commit, rolled back", slog.Any("error", err))
			return nil, err
		default:
			log.Error("results transaction failed, rolled back", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
		}
	}

	s.metrics.AddTitleChanges(len(res.TitleChanges))
	log.Info("event results recorded",
		slog.Int("competitors_updated", len(res.Competitors)),
		slog.Int("title_changes", len(res.TitleChanges)),
		slog.Int("matches", len(res.MatchIDs)),
	)

	if len(res.Announcements) > 0 && s.announcer != nil {
		s.announcer.Emit(ctx, res.Announcements)
	}

	titleChanges := res.TitleChanges
	if titleChanges == nil {
		titleChanges = []TitleChange{}
	}
	return &SubmissionSummary{
		EventID:             event.ID,
		CompetitorsUpdated:  len(res.Competitors),
		TitleChanges:        titleChanges,
		AnnouncementsQueued: len(res.Announcements),
		Competitors:         res.Updates,
	}, nil
}

// loadSnapshot reads every competitor and championship the card references.
func (s *resultsService) loadSnapshot(ctx context.Context, card []models.Match) (*Snapshot, error) {
	competitorIDs, championshipIDs := cardReferences(card)
	snap := &Snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Competitors, err = s.competitorRepo.ListByIDs(gctx, nil, competitorIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.Championships, err = s.championshipRepo.ListByIDs(gctx, nil, championshipIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.OpenReigns, err = s.reignRepo.ListOpenByChampionships(gctx, nil, championshipIDs)
		return err
	})
	g.Go(func() (err error) {
		snap.MaxSequences, err = s.reignRepo.MaxSequences(gctx, nil, championshipIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrReignAlreadyOpen) {
			return nil, &lineage.InconsistencyError{Reason: err.Error()}
		}
		return nil, err
	}
	return snap, nil
}

// commit writes the resolution. The event guard goes first so that a concurrent
// submission of the same event aborts before touching anything else.
func (s *resultsService) commit(ctx context.Context, exec repositories.SQLExecutor, eventID int, res *Resolution) error {
	if err := s.eventRepo.MarkResultsRecorded(ctx, exec, eventID); err != nil {
		return err
	}
	if err := s.competitorRepo.BatchUpdateResults(ctx, exec, res.Competitors); err != nil {
		return err
	}

	championships := make([]*models.Championship, 0, len(res.Ledgers))
	for _, changes := range res.Ledgers {
		if err := s.writeLineage(ctx, exec, changes); err != nil {
			return err
		}
		ch := changes.Championship
		championships = append(championships, &ch)
	}
	if err := s.championshipRepo.BatchUpdateHolders(ctx, exec, championships); err != nil {
		return err
	}

	if err := s.historyRepo.BatchInsert(ctx, exec, res.History); err != nil {
		return err
	}
	return s.eventRepo.MarkMatchesCompleted(ctx, exec, res.MatchIDs)
}

func (s *resultsService) writeLineage(ctx context.Context, exec repositories.SQLExecutor, c lineage.Changes) error {
	if c.Existing != nil {
		if c.ExistingDefended {
			if err := s.reignRepo.UpdateDefenses(ctx, exec, c.Existing.ID, c.Existing.Defenses); err != nil {
				return lineageWriteError(c.Championship.ID, err)
			}
		}
		if c.ExistingClosed {
			if err := s.reignRepo.Close(ctx, exec, c.Existing.ID, *c.Existing.EndEventID, *c.Existing.EndedAt, *c.Existing.LostToID); err != nil {
				return lineageWriteError(c.Championship.ID, err)
			}
		}
	}
	// Закрытые правления вставляются раньше открытого, поэтому индекс на единственное
	// открытое правление не нарушается.
	for _, reign := range c.Inserted {
		if err := s.reignRepo.Insert(ctx, exec, reign); err != nil {
			return lineageWriteError(c.Championship.ID, err)
		}
	}
	return nil
}

func lineageWriteError(championshipID int, err error) error {
	switch {
	case errors.Is(err, repositories.ErrReignNotFound),
		errors.Is(err, repositories.ErrReignAlreadyOpen),
		errors.Is(err, repositories.ErrReignSequenceConflict):
		return &lineage.InconsistencyError{ChampionshipID: championshipID, Reason: err.Error()}
	}
	return err
}

func cardReferences(card []models.Match) (competitors, championships []int) {
	seenC := make(map[int]bool)
	seenT := make(map[int]bool)
	for _, m := range card {
		for _, id := range []int{m.Competitor1ID, m.Competitor2ID} {
			if !seenC[id] {
				seenC[id] = true
				competitors = append(competitors, id)
			}
		}
		if m.IsTitleMatch && m.ChampionshipID != nil && !seenT[*m.ChampionshipID] {
			seenT[*m.ChampionshipID] = true
			championships = append(championships, *m.ChampionshipID)
		}
	}
	sort.Ints(competitors)
	sort.Ints(championships)
	return competitors, championships
}

func submissionOutcome(err error) string {
	var incomplete *IncompleteMatchesError
	switch {
	case err == nil:
		return "recorded"
	case errors.As(err, &incomplete):
		return "incomplete_matches"
	case errors.Is(err, ErrResultsAlreadyRecorded):
		return "already_recorded"
	case errors.Is(err, ErrValidationFailed):
		return "invalid_card"
	case errors.Is(err, lineage.ErrInconsistency):
		return "lineage_inconsistency"
	case errors.Is(err, ErrTransactionFailed):
		return "transaction_failed"
	case errors.Is(err, ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}
