// Package server initializes and runs the application server. It wires the
// database, migrations, cache, vault, and upstream client together, starts
// the HTTP API, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avidalm/iptvgate/internal/cache"
	"github.com/avidalm/iptvgate/internal/cryptox"
	"github.com/avidalm/iptvgate/internal/logging"
	"github.com/avidalm/iptvgate/internal/server/config"
	"github.com/avidalm/iptvgate/internal/server/httpapi"
	"github.com/avidalm/iptvgate/internal/server/repositories/repomanager"
	"github.com/avidalm/iptvgate/internal/server/services"
	"github.com/avidalm/iptvgate/internal/xtream"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  *cache.Cache
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	vault, err := cryptox.NewVault([]byte(cfg.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("vault init error: %w", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	// Cache is optional. Without a redis address every request goes straight
	// to the provider.
	var c *cache.Cache
	if cfg.RedisAddr != "" {
		c, err = cache.New(cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			return nil, fmt.Errorf("cache init error: %w", err)
		}
	}

	gateway := xtream.NewClient(cfg.UpstreamTimeout)

	accountSvc := services.NewAccountService(db, rm, vault, gateway, cfg)
	catalogSvc := services.NewCatalogService(db, rm, vault, gateway, c, cfg)

	api := httpapi.NewServer(accountSvc, catalogSvc, cfg, logger)

	return &App{config: cfg, logger: logger, db: db, cache: c, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error(ctx, "server error", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error(ctx, "cache close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
