package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
	"github.com/lib/pq"
)

var ErrCompetitorNotFound = errors.New("competitor not found")

type CompetitorRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competitor, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Competitor, error)
	BatchUpdateResults(ctx context.Context, exec SQLExecutor, competitors []*models.Competitor) error
}

type postgresCompetitorRepository struct {
	db *sql.DB
}

func NewPostgresCompetitorRepository(db *sql.DB) CompetitorRepository {
	return &postgresCompetitorRepository{db: db}
}

func (r *postgresCompetitorRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const competitorColumns = `
	id, name, rating, rating_movement, rating_reason,
	wins, losses, draws, streak, best_streak,
	pinfall_wins, submission_wins, knockout_wins, disqualification_wins, other_wins,
	main_event_wins, titles_won, title_defenses, updated_at`

func (r *postgresCompetitorRepository) scanCompetitor(row rowScanner) (*models.Competitor, error) {
	var c models.Competitor
	var rating sql.NullInt64
	var movement, reason sql.NullString
	s := &c.Stats
	err := row.Scan(
		&c.ID, &c.Name, &rating, &movement, &reason,
		&s.Wins, &s.Losses, &s.Draws, &s.Streak, &s.BestStreak,
		&s.PinfallWins, &s.SubmissionWins, &s.KnockoutWins, &s.DisqualificationWins, &s.OtherWins,
		&s.MainEventWins, &s.TitlesWon, &s.TitleDefenses, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitorNotFound
		}
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		c.Rating = &v
	}
	if movement.Valid {
		m := models.RatingMovement(movement.String)
		c.RatingMovement = &m
	}
	if reason.Valid {
		c.RatingReason = &reason.String
	}
	return &c, nil
}

func (r *postgresCompetitorRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Competitor, error) {
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = $1`
	c, err := r.scanCompetitor(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrCompetitorNotFound) {
		return nil, fmt.Errorf("failed to scan competitor by id %d: %w", id, err)
	}
	return c, err
}

func (r *postgresCompetitorRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Competitor, error) {
	result := make(map[int]*models.Competitor, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `SELECT ` + competitorColumns + ` FROM competitors WHERE id = ANY($1) ORDER BY id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, scanErr := r.scanCompetitor(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan competitor row: %w", scanErr)
		}
		result[c.ID] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competitor rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresCompetitorRepository) BatchUpdateResults(ctx context.Context, exec SQLExecutor, competitors []*models.Competitor) error {
	if len(competitors) == 0 {
		return nil
	}
	stmt, err := r.getExecutor(exec).PrepareContext(ctx, `
		UPDATE competitors SET
			rating = $1, rating_movement = $2, rating_reason = $3,
			wins = $4, losses = $5, draws = $6, streak = $7, best_streak = $8,
			pinfall_wins = $9, submission_wins = $10, knockout_wins = $11,
			disqualification_wins = $12, other_wins = $13,
			main_event_wins = $14, titles_won = $15, title_defenses = $16,
			updated_at = NOW()
		WHERE id = $17`)
	if err != nil {
		return fmt.Errorf("BatchUpdateResults failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range competitors {
		s := c.Stats
		result, err := stmt.ExecContext(ctx,
			c.Rating, c.RatingMovement, c.RatingReason,
			s.Wins, s.Losses, s.Draws, s.Streak, s.BestStreak,
			s.PinfallWins, s.SubmissionWins, s.KnockoutWins,
			s.DisqualificationWins, s.OtherWins,
			s.MainEventWins, s.TitlesWon, s.TitleDefenses,
			c.ID,
		)
		if err != nil {
			return fmt.Errorf("BatchUpdateResults failed for competitor %d: %w", c.ID, err)
		}
		if err := checkAffectedRows(result, ErrCompetitorNotFound); err != nil {
			return fmt.Errorf("BatchUpdateResults competitor %d: %w", c.ID, err)
		}
	}
	return nil
}
