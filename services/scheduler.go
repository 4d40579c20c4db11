package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/Dosada05/promotion-results/metrics"
)

// PendingResultsReporter logs and exports the events that took place but still have no results.
type PendingResultsReporter struct {
	events  EventService
	metrics *metrics.Results
	logger  *slog.Logger
	now     func() time.Time
}

func NewPendingResultsReporter(events EventService, m *metrics.Results, logger *slog.Logger) *PendingResultsReporter {
	return &PendingResultsReporter{
		events:  events,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Report runs one pass and returns the number of events awaiting results.
func (r *PendingResultsReporter) Report(ctx context.Context) (int, error) {
	events, err := r.events.ListAwaitingResults(ctx, r.now())
	if err != nil {
		r.logger.Error("pending results report failed", slog.Any("error", err))
		return 0, err
	}

	r.metrics.SetEventsAwaitingResults(len(events))
	for _, e := range events {
		r.logger.Warn("event is awaiting results",
			slog.Int("event_id", e.ID),
			slog.String("event", e.Name),
			slog.Time("event_date", e.Date),
		)
	}
	return len(events), nil
}

// StartPendingResultsScheduler runs Report every interval until the returned scheduler is shut down.
func StartPendingResultsScheduler(ctx context.Context, reporter *PendingResultsReporter, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_, _ = reporter.Report(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule pending results report: %w", err)
	}

	sched.Start()
	return sched, nil
}
