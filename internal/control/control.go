package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	redisclient "github.com/vietddude/salvage/internal/infra/redis"
	"github.com/vietddude/salvage/internal/infra/remote"
	"github.com/vietddude/salvage/internal/infra/storage"
	"github.com/vietddude/salvage/internal/infra/storage/memory"
	"github.com/vietddude/salvage/internal/infra/storage/postgres"
	"github.com/vietddude/salvage/internal/httpapi"
	"github.com/vietddude/salvage/internal/recovery"
)

// Config aggregates the settings the app needs to wire itself.
type Config struct {
	Port     int
	Recovery recovery.Config
	Redis    redisclient.Config
	Database postgres.Config
	Remote   remote.Config
}

// App owns the wired components and their lifecycle.
type App struct {
	db     *postgres.DB
	cache  *redisclient.Client
	coord  *recovery.Coordinator
	server *httpapi.Server
	logger *slog.Logger

	cancel context.CancelFunc
}

// New connects the collaborators and builds the recovery coordinator.
// Redis is optional: without it the cache tier falls back to an in-process
// store. The database is required.
func New(cfg Config) (*App, error) {
	logger := slog.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	var (
		cache     *redisclient.Client
		cacheRepo storage.SnapshotRepository
	)
	if cfg.Redis.URL != "" {
		cache, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		cacheRepo = cache
	} else {
		logger.Warn("no redis configured, using in-process snapshot cache")
		cacheRepo = memory.NewSnapshotRepo()
	}

	var remoteAPI recovery.RemoteAPI
	if cfg.Remote.BaseURL != "" {
		remoteAPI = remote.NewClient(cfg.Remote, logger)
	} else {
		logger.Warn("no remote API configured, server recovery disabled")
	}

	coord := recovery.New(cacheRepo, postgres.NewSnapshotRepo(db), remoteAPI, cfg.Recovery, logger)

	checks := map[string]httpapi.Checker{"database": db}
	if cache != nil {
		checks["cache"] = cache
	}
	server := httpapi.NewServer(coord, cfg.Port, checks, logger)

	return &App{
		db:     db,
		cache:  cache,
		coord:  coord,
		server: server,
		logger: logger,
	}, nil
}

// Coordinator exposes the recovery coordinator for one-shot CLI use.
func (a *App) Coordinator() *recovery.Coordinator {
	return a.coord
}

// Start launches the HTTP server and background collectors.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.db.StartMetricsCollector(runCtx)

	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr())
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the app down gracefully.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}

	var firstErr error
	if err := a.server.Stop(ctx); err != nil {
		firstErr = err
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
