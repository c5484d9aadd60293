// Package server initializes and runs the MG Studio API server. It opens
// the database, runs migrations, wires the services and HTTP handlers, and
// drives the render worker alongside the HTTP listener until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
	"github.com/aidolab/mgstudio/internal/server/config"
	"github.com/aidolab/mgstudio/internal/server/httpapi"
	"github.com/aidolab/mgstudio/internal/server/metrics"
	"github.com/aidolab/mgstudio/internal/server/repositories/repomanager"
	"github.com/aidolab/mgstudio/internal/server/services"
	"github.com/aidolab/mgstudio/internal/server/sms"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	workService *services.WorkService
	collector   *metrics.Collector
	registry    *prometheus.Registry
	limiter     *httpapi.RateLimiter
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var sender sms.Sender
	if cfg.SMSGatewayEndpoint != "" {
		sender = sms.NewGatewaySender(cfg.SMSGatewayEndpoint, cfg.SMSGatewayAPIKey, 10*time.Second)
	} else {
		sender = sms.NewLogSender(logger)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	userService := services.NewUserService(db, rm, sender, logger, cfg)
	workService := services.NewWorkService(db, rm, services.NewS3Presigner(cfg), logger)
	limiter := httpapi.NewRateLimiter(cfg.SendCodeRatePerMinute, cfg.SendCodeBurst)

	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		userService: userService,
		workService: workService,
		collector:   collector,
		registry:    registry,
		limiter:     limiter,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	handlers := httpapi.NewHandlers(app.userService, app.workService, app.limiter, app.collector, app.logger)

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: handlers.Router(app.registry),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeInterval is how often expired verification codes and issued tokens
// are deleted.
const purgeInterval = time.Hour

// runMaintenance periodically purges expired codes and tokens. Expired rows
// are never served, so this is housekeeping only.
func (app *App) runMaintenance(ctx context.Context) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := app.userService.PurgeExpired(ctx); err != nil {
				app.logger.Error(ctx, "expiry purge error", "error", err.Error())
			}
		}
	}
}

// runRenderWorker polls for queued works and completes them. It is the
// server-side stand-in for the rendering pipeline.
func (app *App) runRenderWorker(ctx context.Context) {
	ticker := time.NewTicker(app.config.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				_, err := app.workService.RenderNext(ctx)
				if err != nil {
					if !errors.Is(err, common.ErrorNotFound) {
						app.logger.Error(ctx, "render worker error", "error", err.Error())
					}
					break
				}
				app.collector.RecordWorkRendered()
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runRenderWorker(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runMaintenance(ctx)
	}()

	wg.Wait()

	app.limiter.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
