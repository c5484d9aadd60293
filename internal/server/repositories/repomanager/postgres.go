package repomanager

import (
	"context"
	"database/sql"

	"github.com/aidolab/mgstudio/internal/dbx"
	"github.com/aidolab/mgstudio/internal/server/migrations"
	"github.com/aidolab/mgstudio/internal/server/repositories/codes"
	"github.com/aidolab/mgstudio/internal/server/repositories/tokens"
	"github.com/aidolab/mgstudio/internal/server/repositories/users"
	"github.com/aidolab/mgstudio/internal/server/repositories/works"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Codes(db dbx.DBTX) codes.Repository {
	return codes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Works(db dbx.DBTX) works.Repository {
	return works.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
