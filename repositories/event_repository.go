package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/promotion-results/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound               = errors.New("event not found")
	ErrEventResultsAlreadyRecorded = errors.New("event results already recorded")
)

type EventRepository interface {
	GetWithCard(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	// MarkResultsRecorded flips the guard from pending to recorded. It returns
	// ErrEventResultsAlreadyRecorded when the flip did not happen.
	MarkResultsRecorded(ctx context.Context, exec SQLExecutor, id int) error
	MarkMatchesCompleted(ctx context.Context, exec SQLExecutor, matchIDs []int) error
	ListPendingBefore(ctx context.Context, exec SQLExecutor, before time.Time) ([]*models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEventRepository) GetWithCard(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	executor := r.getExecutor(exec)

	event := &models.Event{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, name, event_date, results_status, created_at
		FROM events
		WHERE id = $1`, id).Scan(
		&event.ID, &event.Name, &event.Date, &event.ResultsStatus, &event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to scan event by id %d: %w", id, err)
	}

	rows, err := executor.QueryContext(ctx, `
		SELECT id, event_id, position, competitor1_id, competitor2_id, is_main_event,
		       is_title_match, championship_id, winner_id, method, completed
		FROM matches
		WHERE event_id = $1
		ORDER BY position ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query card for event %d: %w", id, err)
	}
	defer rows.Close()

	event.Card = make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		var championship, winner sql.NullInt64
		var method sql.NullString
		if scanErr := rows.Scan(
			&m.ID, &m.EventID, &m.Position, &m.Competitor1ID, &m.Competitor2ID, &m.IsMainEvent,
			&m.IsTitleMatch, &championship, &winner, &method, &m.Completed,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		m.ChampionshipID = nullIntPtr(championship)
		m.WinnerID = nullIntPtr(winner)
		if method.Valid {
			rm := models.ResultMethod(method.String)
			m.Method = &rm
		}
		event.Card = append(event.Card, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return event, nil
}

func (r *postgresEventRepository) MarkResultsRecorded(ctx context.Context, exec SQLExecutor, id int) error {
	query := `
		UPDATE events
		SET results_status = $1
		WHERE id = $2 AND results_status = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, models.ResultsRecorded, id, models.ResultsPending)
	if err != nil {
		return fmt.Errorf("MarkResultsRecorded: failed to execute query for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventResultsAlreadyRecorded)
}

func (r *postgresEventRepository) MarkMatchesCompleted(ctx context.Context, exec SQLExecutor, matchIDs []int) error {
	if len(matchIDs) == 0 {
		return nil
	}
	query := `UPDATE matches SET completed = TRUE WHERE id = ANY($1)`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return fmt.Errorf("MarkMatchesCompleted: failed to execute query: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if int(affected) != len(matchIDs) {
		return fmt.Errorf("MarkMatchesCompleted: updated %d of %d matches", affected, len(matchIDs))
	}
	return nil
}

func (r *postgresEventRepository) ListPendingBefore(ctx context.Context, exec SQLExecutor, before time.Time) ([]*models.Event, error) {
	query := `
		SELECT id, name, event_date, results_status, created_at
		FROM events
		WHERE results_status = $1 AND event_date < $2
		ORDER BY event_date ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, models.ResultsPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Date, &e.ResultsStatus, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during event rows iteration: %w", err)
	}
	return events, nil
}
