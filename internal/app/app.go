// Package app wires all Arcana subsystems into a running server.
//
// The App struct owns the full lifecycle: New loads the story catalog
// and connects the player store, Run serves HTTP (health, metrics,
// WebSocket play endpoint) until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject implementations via functional options
// (WithStore, WithCatalog). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rmuhamedgaliev/arcana/internal/config"
	"github.com/rmuhamedgaliev/arcana/internal/engine"
	"github.com/rmuhamedgaliev/arcana/internal/health"
	"github.com/rmuhamedgaliev/arcana/internal/observe"
	"github.com/rmuhamedgaliev/arcana/internal/player"
	"github.com/rmuhamedgaliev/arcana/internal/story/catalog"
	"github.com/rmuhamedgaliev/arcana/internal/ws"
)

// App owns all subsystem lifetimes.
type App struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	store    player.Store
	pool     *pgxpool.Pool
	metrics  *observe.Metrics
	sessions *SessionManager
	httpSrv  *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a player store instead of creating one from config.
func WithStore(s player.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCatalog injects a story catalog instead of loading one from the
// configured games directory.
func WithCatalog(c *catalog.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

// New creates an App by wiring all subsystems together: story catalog,
// player store, metrics, session manager, and the HTTP surface.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if err := a.initCatalog(); err != nil {
		return nil, fmt.Errorf("app: init catalog: %w", err)
	}
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}
	a.initMetrics(ctx)

	a.sessions = NewSessionManager(a.catalog, a.store, a.metrics, slog.Default())
	a.sessions.SetStatusDisplay(cfg.Session.StatusEnabled())
	a.initHTTP()

	return a, nil
}

// initCatalog loads the story catalog from the configured directory.
func (a *App) initCatalog() error {
	if a.catalog != nil {
		return nil
	}

	cat, err := catalog.LoadDir(a.cfg.Games.Dir)
	if err != nil {
		return err
	}
	if cat.Len() == 0 {
		slog.Warn("no games loaded", "dir", a.cfg.Games.Dir)
	}
	a.catalog = cat
	slog.Info("story catalog loaded", "dir", a.cfg.Games.Dir, "games", cat.Len())
	return nil
}

// initStore connects the PostgreSQL player store, or falls back to the
// in-memory store when no DSN is configured.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Warn("no postgres_dsn configured, player progress is not persisted across restarts")
		a.store = player.NewMemStore()
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	store := player.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return err
	}

	a.pool = pool
	a.store = store
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("player store connected")
	return nil
}

// initMetrics creates the session instruments and records the catalog
// size gauge once.
func (a *App) initMetrics(ctx context.Context) {
	a.metrics = observe.DefaultMetrics()
	a.metrics.RecordCatalogSize(ctx, a.catalog.Len())
}

// initHTTP assembles the HTTP surface: health endpoints, Prometheus
// metrics, and the WebSocket play endpoint.
func (a *App) initHTTP() {
	checkers := []health.Checker{
		health.CatalogChecker(a.catalog.Len),
	}
	if a.pool != nil {
		checkers = append(checkers, health.StoreChecker(a.pool.Ping))
	}

	mux := http.NewServeMux()
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	playTimeout := a.cfg.Session.ChoiceTimeoutOrDefault()
	wsHandler := ws.NewHandler(func(ctx context.Context, playerID string, ch engine.Channel) engine.Reason {
		return a.sessions.Run(ctx, "ws:"+playerID, playerID, ch)
	}, playTimeout, slog.Default())
	wsHandler.Register(mux)

	a.httpSrv = &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: observe.Middleware(a.metrics)(mux),
	}
}

// Sessions returns the session manager, for transports wired outside
// the App (the Discord bot, the local console).
func (a *App) Sessions() *SessionManager {
	return a.sessions
}

// Catalog returns the loaded story catalog.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Store returns the player store.
func (a *App) Store() player.Store {
	return a.store
}

// Run serves HTTP and blocks until ctx is cancelled. Active sessions
// are stopped before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.httpSrv.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.sessions.StopAll(stopCtx); err != nil {
			slog.Warn("stopping sessions", "err", err)
		}
		if err := a.httpSrv.Shutdown(stopCtx); err != nil {
			slog.Warn("http shutdown", "err", err)
		}
		return gctx.Err()
	})

	return g.Wait()
}

// Shutdown tears down remaining subsystems in order. It respects the
// context deadline: if ctx expires before all closers finish, the
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
