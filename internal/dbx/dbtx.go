// Package dbx carries the small database plumbing shared by the client and
// server repositories: DBTX, the query surface a repository is written
// against, and WithTx for running multi-repository steps atomically.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the repositories accept. Both *sql.DB and
// *sql.Tx satisfy it, so the same repository code runs on the pool or
// bound to a transaction; the repomanager hands out whichever the caller
// passed in.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs op with the transactional handle, and
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Login is the canonical caller: consuming the verification code and
// recording the issued token must land together or not at all:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    if err := m.Codes(tx).DeleteForPhone(ctx, phone); err != nil {
//	        return err
//	    }
//	    return m.Tokens(tx).Create(ctx, userID, token, validity)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, op func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = op(ctx, tx)
	return err
}
