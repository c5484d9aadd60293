package credentials

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aidolab/mgstudio/internal/dbx"
)

// SQLiteStore is the Store implementation over a local SQLite key-value
// table. All writes fully determine the new state, so concurrent writers
// (login, logout, the HTTP client's defensive clear on 401) converge
// regardless of interleaving.
type SQLiteStore struct {
	db dbx.DBTX
}

// NewSQLiteStore constructs a store bound to the given DBTX.
func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete credentials[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}
	return value, nil
}

// Save writes the record. Mandatory fields are upserted; optional fields are
// upserted when set and removed when empty so a save never leaves stale
// attributes from a previous session behind.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if err := s.set(ctx, KeyToken, rec.Token); err != nil {
		return err
	}
	if err := s.set(ctx, KeyUserID, rec.UserID); err != nil {
		return err
	}

	optional := map[string]string{
		KeyPhone:    rec.Phone,
		KeyNickname: rec.Nickname,
		KeyAvatar:   rec.Avatar,
	}
	for key, value := range optional {
		if value == "" {
			if err := s.delete(ctx, key); err != nil {
				return err
			}
			continue
		}
		if err := s.set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Read reconstructs the record, or reports absent (nil, nil) unless both
// token and user id are stored.
func (s *SQLiteStore) Read(ctx context.Context) (*Record, error) {
	token, err := s.get(ctx, KeyToken)
	if err != nil {
		return nil, err
	}
	userID, err := s.get(ctx, KeyUserID)
	if err != nil {
		return nil, err
	}
	if token == "" || userID == "" {
		return nil, nil
	}

	rec := &Record{Token: token, UserID: userID}
	if rec.Phone, err = s.get(ctx, KeyPhone); err != nil {
		return nil, err
	}
	if rec.Nickname, err = s.get(ctx, KeyNickname); err != nil {
		return nil, err
	}
	if rec.Avatar, err = s.get(ctx, KeyAvatar); err != nil {
		return nil, err
	}
	return rec, nil
}

// Clear removes every credential entry. Clearing an already-empty store is a
// no-op.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a complete record is stored. Read errors
// are treated as "not authenticated".
func (s *SQLiteStore) IsAuthenticated(ctx context.Context) bool {
	rec, err := s.Read(ctx)
	return err == nil && rec != nil
}
