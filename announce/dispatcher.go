package announce

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/promotion-results/metrics"
	"github.com/Dosada05/promotion-results/models"
	"golang.org/x/sync/errgroup"
)

// Sink is one publishing surface for announcements.
type Sink interface {
	Name() string
	Publish(ctx context.Context, a *models.Announcement) error
}

// Dispatcher fans committed announcements out to every configured sink.
// Delivery is best effort: failures are logged and counted, never returned.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	metrics *metrics.Results
	logger  *slog.Logger
}

func NewDispatcher(sinks []Sink, timeout time.Duration, m *metrics.Results, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Emit blocks until every sink has seen every announcement or the timeout elapses.
// Each sink receives the announcements in order.
func (d *Dispatcher) Emit(ctx context.Context, announcements []*models.Announcement) {
	if len(announcements) == 0 || len(d.sinks) == 0 {
		return
	}

	// The submission request may finish before the sinks do.
	ctx = context.WithoutCancel(ctx)
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	var g errgroup.Group
	for _, sink := range d.sinks {
		g.Go(func() error {
			for _, a := range announcements {
				err := sink.Publish(ctx, a)
				d.metrics.AnnouncementDelivered(sink.Name(), err)
				if err != nil {
					d.logger.Error("announcement delivery failed",
						"sink", sink.Name(),
						"announcement_id", a.ID,
						"slug", a.Slug,
						"error", err)
					continue
				}
				d.logger.Debug("announcement delivered", "sink", sink.Name(), "slug", a.Slug)
			}
			return nil
		})
	}
	_ = g.Wait()
}
