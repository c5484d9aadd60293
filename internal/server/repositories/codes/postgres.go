package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/dbx"
	"github.com/aidolab/mgstudio/internal/server/models"
)

// PostgresRepository implements the verification code repository over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, phone string, codeDigest []byte, validity time.Duration) error {
	query := `
		INSERT INTO verification_codes (phone, code_digest, expires)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, phone, codeDigest, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindLatest(ctx context.Context, phone string) (*models.VerificationCode, error) {
	query := `
		SELECT phone, code_digest, expires
		FROM verification_codes
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	code := &models.VerificationCode{}
	if err := r.db.QueryRowContext(ctx, query, phone).Scan(&code.Phone, &code.CodeDigest, &code.Expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

func (r *PostgresRepository) DeleteForPhone(ctx context.Context, phone string) error {
	query := `
		DELETE FROM verification_codes
		WHERE phone = $1
	`
	if _, err := r.db.ExecContext(ctx, query, phone); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context) error {
	query := `
		DELETE FROM verification_codes
		WHERE expires < now()
	`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
