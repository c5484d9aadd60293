// Package cli implements the interactive MG Studio command-line client. It
// is the composition root of the client side: it owns the credentials
// database, the session, the unauthenticated signal, and the HTTP client,
// and wires them together before the first request can go out.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/aidolab/mgstudio/internal/client/api"
	"github.com/aidolab/mgstudio/internal/client/authsignal"
	"github.com/aidolab/mgstudio/internal/client/config"
	"github.com/aidolab/mgstudio/internal/client/credentials"
	"github.com/aidolab/mgstudio/internal/client/session"
	"github.com/aidolab/mgstudio/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	session *session.Session
	client  api.Client
	bridge  *session.Bridge
	db      *sql.DB
	reader  *bufio.Reader

	// lastPhone remembers the phone a code was sent to, so login can offer
	// it as the default.
	lastPhone string
}

// NewApp builds the full client dependency graph. The bridge is installed
// here, before any request is issued, and released in Close.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := credentials.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	store := credentials.NewSQLiteStore(db)
	sig := authsignal.New()
	client := api.NewHTTPClient(c.ServerURL, store, sig, logger, c.RequestTimeout)

	sess := session.New(store, logger)
	sess.Initialize(ctx)
	bridge := session.InstallBridge(sig, sess)

	return &App{
		config:  c,
		logger:  logger,
		session: sess,
		client:  client,
		bridge:  bridge,
		db:      db,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Close releases the bridge subscription and the local database.
func (a *App) Close() error {
	a.bridge.Close()
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.IsLoggedIn()
}

// Run starts the interactive loop and blocks until the user exits or stdin
// is closed.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to MG Studio CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// getStatus renders the prompt suffix, e.g. "(13800000000)" when logged in.
func (a *App) getStatus() string {
	u, ok := a.session.UserInfo()
	if !ok {
		return ""
	}
	label := u.Nickname
	if label == "" {
		label = u.Phone
	}
	if label == "" {
		label = u.UserID
	}
	return fmt.Sprintf("(%s)", label)
}
