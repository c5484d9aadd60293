// Package repomanager bundles the server repositories behind one factory so
// services can obtain them bound to either the pool or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/aidolab/mgstudio/internal/dbx"
	"github.com/aidolab/mgstudio/internal/server/repositories/codes"
	"github.com/aidolab/mgstudio/internal/server/repositories/tokens"
	"github.com/aidolab/mgstudio/internal/server/repositories/users"
	"github.com/aidolab/mgstudio/internal/server/repositories/works"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Codes(db dbx.DBTX) codes.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Works(db dbx.DBTX) works.Repository
}
