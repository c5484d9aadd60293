package works

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/dbx"
	"github.com/aidolab/mgstudio/internal/server/models"
)

// PostgresRepository implements the works repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, work *models.Work) (*models.Work, error) {
	query := `
		INSERT INTO works (user_id, prompt, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, work.UserID, work.Prompt, models.WorkStatusQueued).
		Scan(&work.ID, &work.CreatedAt, &work.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	work.Status = models.WorkStatusQueued

	return work, nil
}

func (r *PostgresRepository) SelectByUser(ctx context.Context, userID string) ([]*models.Work, error) {
	query := `
		SELECT id, user_id, prompt, status, storage_key, created_at, updated_at
		FROM works
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Work
	for rows.Next() {
		w := &models.Work{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Prompt, &w.Status, &w.StorageKey, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Work, error) {
	query := `
		SELECT id, user_id, prompt, status, storage_key, created_at, updated_at
		FROM works
		WHERE id = $1 AND user_id = $2
	`
	w := &models.Work{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&w.ID, &w.UserID, &w.Prompt, &w.Status, &w.StorageKey, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM works
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// ClaimQueued relies on FOR UPDATE SKIP LOCKED so concurrent workers never
// pick the same job.
func (r *PostgresRepository) ClaimQueued(ctx context.Context) (*models.Work, error) {
	query := `
		UPDATE works
		SET status = $1, updated_at = now()
		WHERE id = (
			SELECT id FROM works
			WHERE status = $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, user_id, prompt, status, storage_key, created_at, updated_at
	`
	w := &models.Work{}
	err := r.db.QueryRowContext(ctx, query, models.WorkStatusRendering, models.WorkStatusQueued).
		Scan(&w.ID, &w.UserID, &w.Prompt, &w.Status, &w.StorageKey, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

func (r *PostgresRepository) Complete(ctx context.Context, id, storageKey string) error {
	query := `
		UPDATE works
		SET status = $1, storage_key = $2, updated_at = now()
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, models.WorkStatusCompleted, storageKey, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
