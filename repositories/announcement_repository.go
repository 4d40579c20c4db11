package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
	"github.com/lib/pq"
)

var ErrAnnouncementSlugConflict = errors.New("announcement slug already in use")

// AnnouncementRepository stores announcements for the content-publishing surface.
type AnnouncementRepository interface {
	Create(ctx context.Context, exec SQLExecutor, a *models.Announcement) error
}

type postgresAnnouncementRepository struct {
	db *sql.DB
}

func NewPostgresAnnouncementRepository(db *sql.DB) AnnouncementRepository {
	return &postgresAnnouncementRepository{db: db}
}

func (r *postgresAnnouncementRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAnnouncementRepository) Create(ctx context.Context, exec SQLExecutor, a *models.Announcement) error {
	query := `
		INSERT INTO announcements
			(id, slug, category, title, body, event_id, championship_id,
			 new_holder_id, previous_holder_id, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		a.ID, a.Slug, a.Category, a.Title, a.Body, a.EventID, a.ChampionshipID,
		a.NewHolderID, a.PreviousHolderID, a.Method, a.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "announcements_slug_key" {
			return ErrAnnouncementSlugConflict
		}
		return fmt.Errorf("failed to insert announcement %s: %w", a.ID, err)
	}
	return nil
}
