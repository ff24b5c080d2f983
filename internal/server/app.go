// Package server wires and runs the vault daemon: configuration, logging,
// the SQLite store and its migrations, the session manager, the vault
// controller and the gRPC request channel, with graceful shutdown on
// SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/filex"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/protocol"
	"github.com/dmitrijs2005/passvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/session"
	"github.com/dmitrijs2005/passvault/internal/vault"

	gs "github.com/dmitrijs2005/passvault/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	session *session.Manager
	handler *protocol.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := filex.EnsureDatabaseDir(c.DatabaseDSN); err != nil {
		return nil, err
	}

	db, err := repomanager.OpenSQLite(c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	rm := repomanager.NewSQLiteRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newSessionStore(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sess := session.NewManager(store, rm.Metadata(db), c.AutoLockTimeout, logger)
	if err := sess.Restore(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session restore error: %w", err)
	}

	kdf, _ := cryptox.ParseKDF(c.KDF)
	ctrl := vault.NewController(db, rm, sess, vault.Options{
		KDF:                kdf,
		ClearPendingOnLock: c.ClearPendingOnLock,
	}, logger)

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		session: sess,
		handler: protocol.NewHandler(ctrl, logger),
	}, nil
}

func newSessionStore(c *config.Config) (session.Store, error) {
	if c.SessionDir == "" {
		return session.NewMemoryStore(), nil
	}
	return session.NewFileStore(c.SessionDir)
}

// IssueToken mints a channel access token for client.
func IssueToken(c *config.Config, client string) (string, error) {
	if c.SecretKey == "" {
		return "", fmt.Errorf("no secret key configured (-j)")
	}
	return auth.GenerateToken(client, []byte(c.SecretKey), c.TokenValidityDuration)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.handler, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a signal arrives or the server fails, then stops the
// auto-lock timer and closes the database. An unlocked session is left
// as is; with an in-memory session store it is gone with the process.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.session.Close()
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}
