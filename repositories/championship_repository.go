package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/promotion-results/models"
	"github.com/lib/pq"
)

var (
	ErrChampionshipNotFound      = errors.New("championship not found")
	ErrChampionshipHolderInvalid = errors.New("championship holder conflict or invalid")
)

type ChampionshipRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Championship, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Championship, error)
	BatchUpdateHolders(ctx context.Context, exec SQLExecutor, championships []*models.Championship) error
}

type postgresChampionshipRepository struct {
	db *sql.DB
}

func NewPostgresChampionshipRepository(db *sql.DB) ChampionshipRepository {
	return &postgresChampionshipRepository{db: db}
}

func (r *postgresChampionshipRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresChampionshipRepository) scanChampionship(row rowScanner) (*models.Championship, error) {
	var c models.Championship
	var holder sql.NullInt64
	if err := row.Scan(&c.ID, &c.Name, &holder, &c.CurrentDefenses, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChampionshipNotFound
		}
		return nil, err
	}
	if holder.Valid {
		h := int(holder.Int64)
		c.CurrentHolderID = &h
	}
	return &c, nil
}

func (r *postgresChampionshipRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Championship, error) {
	query := `
		SELECT id, name, current_holder_id, current_defenses, updated_at
		FROM championships
		WHERE id = $1`
	c, err := r.scanChampionship(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrChampionshipNotFound) {
		return nil, fmt.Errorf("failed to scan championship by id %d: %w", id, err)
	}
	return c, err
}

func (r *postgresChampionshipRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) (map[int]*models.Championship, error) {
	result := make(map[int]*models.Championship, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := `
		SELECT id, name, current_holder_id, current_defenses, updated_at
		FROM championships
		WHERE id = ANY($1)`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query championships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, scanErr := r.scanChampionship(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan championship row: %w", scanErr)
		}
		result[c.ID] = c
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during championship rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresChampionshipRepository) BatchUpdateHolders(ctx context.Context, exec SQLExecutor, championships []*models.Championship) error {
	if len(championships) == 0 {
		return nil
	}
	stmt, err := r.getExecutor(exec).PrepareContext(ctx, `
		UPDATE championships
		SET current_holder_id = $1, current_defenses = $2, updated_at = NOW()
		WHERE id = $3`)
	if err != nil {
		return fmt.Errorf("BatchUpdateHolders failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range championships {
		result, err := stmt.ExecContext(ctx, c.CurrentHolderID, c.CurrentDefenses, c.ID)
		if err != nil {
			return fmt.Errorf("BatchUpdateHolders failed for championship %d: %w", c.ID, r.handleChampionshipError(err))
		}
		if err := checkAffectedRows(result, ErrChampionshipNotFound); err != nil {
			return fmt.Errorf("BatchUpdateHolders championship %d: %w", c.ID, err)
		}
	}
	return nil
}

func (r *postgresChampionshipRepository) handleChampionshipError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "championships_current_holder_id_fkey" {
		return ErrChampionshipHolderInvalid
	}
	return err
}
