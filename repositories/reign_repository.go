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
	ErrReignNotFound         = errors.New("open reign not found")
	ErrReignAlreadyOpen      = errors.New("championship already has an open reign")
	ErrReignSequenceConflict = errors.New("reign sequence already taken for championship")
)

// ReignRepository is the append-only lineage ledger. Rows are inserted once; updates are
// limited to the defense counter and the end marker of an open reign.
type ReignRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, reign *models.Reign) error
	UpdateDefenses(ctx context.Context, exec SQLExecutor, reignID int, defenses int) error
	Close(ctx context.Context, exec SQLExecutor, reignID int, endEventID int, endedAt time.Time, lostToID int) error
	ListOpenByChampionships(ctx context.Context, exec SQLExecutor, championshipIDs []int) (map[int]*models.Reign, error)
	MaxSequences(ctx context.Context, exec SQLExecutor, championshipIDs []int) (map[int]int, error)
	ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]models.Reign, error)
}

type postgresReignRepository struct {
	db *sql.DB
}

func NewPostgresReignRepository(db *sql.DB) ReignRepository {
	return &postgresReignRepository{db: db}
}

func (r *postgresReignRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const reignColumns = `
	id, championship_id, holder_id, sequence, start_event_id, started_at,
	won_from_id, end_event_id, ended_at, lost_to_id, defenses`

func (r *postgresReignRepository) scanReign(row rowScanner) (*models.Reign, error) {
	var reign models.Reign
	var wonFrom, endEvent, lostTo sql.NullInt64
	var endedAt sql.NullTime
	err := row.Scan(
		&reign.ID, &reign.ChampionshipID, &reign.HolderID, &reign.Sequence,
		&reign.StartEventID, &reign.StartedAt,
		&wonFrom, &endEvent, &endedAt, &lostTo, &reign.Defenses,
	)
	if err != nil {
		return nil, err
	}
	reign.WonFromID = nullIntPtr(wonFrom)
	reign.EndEventID = nullIntPtr(endEvent)
	reign.LostToID = nullIntPtr(lostTo)
	if endedAt.Valid {
		reign.EndedAt = &endedAt.Time
	}
	return &reign, nil
}

func (r *postgresReignRepository) Insert(ctx context.Context, exec SQLExecutor, reign *models.Reign) error {
	query := `
		INSERT INTO reigns
			(championship_id, holder_id, sequence, start_event_id, started_at,
			 won_from_id, end_event_id, ended_at, lost_to_id, defenses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		reign.ChampionshipID, reign.HolderID, reign.Sequence, reign.StartEventID, reign.StartedAt,
		reign.WonFromID, reign.EndEventID, reign.EndedAt, reign.LostToID, reign.Defenses,
	).Scan(&reign.ID)
	return r.handleReignError(err)
}

func (r *postgresReignRepository) UpdateDefenses(ctx context.Context, exec SQLExecutor, reignID int, defenses int) error {
	query := `UPDATE reigns SET defenses = $1 WHERE id = $2 AND ended_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, defenses, reignID)
	if err != nil {
		return fmt.Errorf("UpdateDefenses: failed to execute query for reign %d: %w", reignID, err)
	}
	return checkAffectedRows(result, ErrReignNotFound)
}

func (r *postgresReignRepository) Close(ctx context.Context, exec SQLExecutor, reignID int, endEventID int, endedAt time.Time, lostToID int) error {
	// Закрыть можно только открытое правление.
	query := `
		UPDATE reigns
		SET end_event_id = $1, ended_at = $2, lost_to_id = $3
		WHERE id = $4 AND ended_at IS NULL`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, endEventID, endedAt, lostToID, reignID)
	if err != nil {
		return fmt.Errorf("Close: failed to execute query for reign %d: %w", reignID, err)
	}
	return checkAffectedRows(result, ErrReignNotFound)
}

func (r *postgresReignRepository) ListOpenByChampionships(ctx context.Context, exec SQLExecutor, championshipIDs []int) (map[int]*models.Reign, error) {
	result := make(map[int]*models.Reign, len(championshipIDs))
	if len(championshipIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + reignColumns + ` FROM reigns WHERE championship_id = ANY($1) AND ended_at IS NULL`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(championshipIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query open reigns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reign, scanErr := r.scanReign(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan reign row: %w", scanErr)
		}
		if prev, dup := result[reign.ChampionshipID]; dup {
			return nil, fmt.Errorf("championship %d has open reigns #%d and #%d: %w",
				reign.ChampionshipID, prev.Sequence, reign.Sequence, ErrReignAlreadyOpen)
		}
		result[reign.ChampionshipID] = reign
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during reign rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresReignRepository) MaxSequences(ctx context.Context, exec SQLExecutor, championshipIDs []int) (map[int]int, error) {
	result := make(map[int]int, len(championshipIDs))
	if len(championshipIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT championship_id, MAX(sequence)
		FROM reigns
		WHERE championship_id = ANY($1)
		GROUP BY championship_id`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(championshipIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query reign sequences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var championshipID, maxSeq int
		if err := rows.Scan(&championshipID, &maxSeq); err != nil {
			return nil, fmt.Errorf("failed to scan reign sequence row: %w", err)
		}
		result[championshipID] = maxSeq
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during reign sequence rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresReignRepository) ListByChampionship(ctx context.Context, exec SQLExecutor, championshipID int) ([]models.Reign, error) {
	query := `SELECT ` + reignColumns + ` FROM reigns WHERE championship_id = $1 ORDER BY sequence ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, championshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lineage for championship %d: %w", championshipID, err)
	}
	defer rows.Close()

	lineage := make([]models.Reign, 0)
	for rows.Next() {
		reign, scanErr := r.scanReign(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan reign row: %w", scanErr)
		}
		lineage = append(lineage, *reign)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during reign rows iteration: %w", err)
	}
	return lineage, nil
}

func (r *postgresReignRepository) handleReignError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "reigns_one_open_per_championship":
			return ErrReignAlreadyOpen
		case "reigns_championship_id_sequence_key":
			return ErrReignSequenceConflict
		}
	}
	return err
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
