package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
)

// MatchHistoryRepository is append-only: there is no update or delete.
type MatchHistoryRepository interface {
	BatchInsert(ctx context.Context, exec SQLExecutor, records []*models.MatchHistoryRecord) error
	ListByCompetitor(ctx context.Context, exec SQLExecutor, competitorID int, limit int) ([]models.MatchHistoryRecord, error)
}

type postgresMatchHistoryRepository struct {
	db *sql.DB
}

func NewPostgresMatchHistoryRepository(db *sql.DB) MatchHistoryRepository {
	return &postgresMatchHistoryRepository{db: db}
}

func (r *postgresMatchHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchHistoryRepository) BatchInsert(ctx context.Context, exec SQLExecutor, records []*models.MatchHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := r.getExecutor(exec).PrepareContext(ctx, `
		INSERT INTO match_history
			(match_id, event_id, competitor1_id, competitor2_id, winner_id, loser_id, method,
			 is_title_match, is_main_event, championship_id, title_changed,
			 competitor1_rating, competitor2_rating, competitor1_delta, competitor2_delta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("BatchInsert failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		err := stmt.QueryRowContext(ctx,
			rec.MatchID, rec.EventID, rec.Competitor1ID, rec.Competitor2ID, rec.WinnerID, rec.LoserID, rec.Method,
			rec.IsTitleMatch, rec.IsMainEvent, rec.ChampionshipID, rec.TitleChanged,
			rec.Competitor1Rating, rec.Competitor2Rating, rec.Competitor1Delta, rec.Competitor2Delta,
		).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("BatchInsert failed for match %d: %w", rec.MatchID, err)
		}
	}
	return nil
}

func (r *postgresMatchHistoryRepository) ListByCompetitor(ctx context.Context, exec SQLExecutor, competitorID int, limit int) ([]models.MatchHistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, match_id, event_id, competitor1_id, competitor2_id, winner_id, loser_id, method,
		       is_title_match, is_main_event, championship_id, title_changed,
		       competitor1_rating, competitor2_rating, competitor1_delta, competitor2_delta, created_at
		FROM match_history
		WHERE competitor1_id = $1 OR competitor2_id = $1
		ORDER BY id DESC
		LIMIT $2`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, competitorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history for competitor %d: %w", competitorID, err)
	}
	defer rows.Close()

	history := make([]models.MatchHistoryRecord, 0)
	for rows.Next() {
		var rec models.MatchHistoryRecord
		var winner, loser, championship sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.MatchID, &rec.EventID, &rec.Competitor1ID, &rec.Competitor2ID, &winner, &loser, &rec.Method,
			&rec.IsTitleMatch, &rec.IsMainEvent, &championship, &rec.TitleChanged,
			&rec.Competitor1Rating, &rec.Competitor2Rating, &rec.Competitor1Delta, &rec.Competitor2Delta, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match history row: %w", err)
		}
		rec.WinnerID = nullIntPtr(winner)
		rec.LoserID = nullIntPtr(loser)
		rec.ChampionshipID = nullIntPtr(championship)
		history = append(history, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match history rows iteration: %w", err)
	}
	return history, nil
}
