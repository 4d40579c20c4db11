package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/promotion-results/metrics"
	"github.com/Dosada05/promotion-results/models"
)

func TestCompetitorService_History(t *testing.T) {
	h := newHarness()
	h.addCompetitor(1, "Ada", intPtr(1000))
	h.addCompetitor(2, "Grace", intPtr(1000))
	h.addCompetitor(3, "Lin", intPtr(1000))
	h.addEvent(10, "Spring Slam",
		win(100, 1, 2, 1, models.MethodPinfall),
		win(101, 2, 3, 3, models.MethodPinfall),
		win(102, 3, 1, 1, models.MethodPinfall),
	)
	_, err := h.service.SubmitEventResults(context.Background(), 10)
	require.NoError(t, err)

	svc := NewCompetitorService(fakeCompetitorRepo{h.store}, fakeHistoryRepo{h.store})

	records, err := svc.History(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 102, records[0].MatchID)
	require.Equal(t, 100, records[1].MatchID)

	records, err = svc.History(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	_, err = svc.History(context.Background(), 99, 0)
	require.ErrorIs(t, err, ErrCompetitorNotFound)

	c, err := svc.GetCompetitor(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, c.Stats.Wins)
}

func TestCompetitorService_EmptyHistoryIsNotNil(t *testing.T) {
	h := newHarness()
	h.addCompetitor(1, "Ada", nil)
	svc := NewCompetitorService(fakeCompetitorRepo{h.store}, fakeHistoryRepo{h.store})

	records, err := svc.History(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)
}

func TestChampionshipService_GetWithLineage(t *testing.T) {
	h := newHarness()
	h.store.championships[7] = &models.Championship{ID: 7, Name: "World Championship", CurrentHolderID: intPtr(2)}
	h.store.reigns[51] = &models.Reign{ID: 51, ChampionshipID: 7, HolderID: 2, Sequence: 2}
	h.store.reigns[50] = &models.Reign{ID: 50, ChampionshipID: 7, HolderID: 9, Sequence: 1, EndedAt: &time.Time{}}
	svc := NewChampionshipService(fakeChampionshipRepo{h.store}, fakeReignRepo{h.store})

	ch, err := svc.GetWithLineage(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, ch.Lineage, 2)
	require.Equal(t, 1, ch.Lineage[0].Sequence)
	require.Equal(t, 2, ch.Lineage[1].Sequence)

	_, err = svc.GetWithLineage(context.Background(), 8)
	require.ErrorIs(t, err, ErrChampionshipNotFound)
}

func TestEventService_GetEvent(t *testing.T) {
	h := newHarness()
	h.addEvent(10, "Spring Slam", win(100, 1, 2, 1, models.MethodPinfall))
	svc := NewEventService(fakeEventRepo{h.store})

	e, err := svc.GetEvent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, e.Card, 1)

	_, err = svc.GetEvent(context.Background(), 11)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestPendingResultsReporter_Report(t *testing.T) {
	h := newHarness()
	h.addEvent(10, "Spring Slam")
	h.addEvent(11, "Summer Slam")
	h.store.events[11].Date = time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)
	h.addEvent(12, "Winter Slam")
	h.store.events[12].ResultsStatus = models.ResultsRecorded

	m := metrics.NewResults("test", prometheus.NewRegistry())
	reporter := NewPendingResultsReporter(NewEventService(fakeEventRepo{h.store}), m, discardLogger())
	reporter.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }

	n, err := reporter.Report(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1.0, testutil.ToFloat64(m.EventsAwaitingResults))
}
