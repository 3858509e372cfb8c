// Package app wires configuration, the directory client, storage, services,
// and the HTTP surface into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"adlens/internal/api"
	"adlens/internal/config"
	internaldb "adlens/internal/db"
	"adlens/internal/db/repository"
	"adlens/internal/directory"
	"adlens/internal/middleware"
	"adlens/internal/service"
	"adlens/internal/ui"
)

// App holds the fully-wired server.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	audit     *service.AuditService
	scheduler *service.Scheduler
	closers   []func()
}

// New wires the application from config: LDAP connection, SQLite run store,
// audit service, and the optional scheduler.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.LDAP.Validate(); err != nil {
		return nil, err
	}

	dir, err := directory.Connect(directory.Config{
		URL:          cfg.LDAP.URL,
		BaseDN:       cfg.LDAP.BaseDN,
		BindDN:       cfg.LDAP.BindDN,
		BindPassword: cfg.LDAP.BindPassword,
		Timeout:      cfg.LDAP.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect directory: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, closers: []func(){dir.Close}}

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open audit history: %w", err)
	}
	a.closers = append(a.closers, func() { _ = writeDB.Close(); _ = readDB.Close() })

	if err := internaldb.RunMigrations(writeDB); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate audit history: %w", err)
	}

	a.audit = service.NewAuditService(dir, repository.NewAuditRepo(writeDB), logger)

	if cfg.ScheduleFile != "" {
		sf, err := service.LoadScheduleFile(cfg.ScheduleFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.scheduler = service.NewScheduler(a.audit, logger.With("component", "scheduler"))
		if err := a.scheduler.Start(sf); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// Router assembles the middleware chain and mounts the API and UI.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader, middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		Burst:             a.cfg.RateLimitBurst,
	}))

	defaults := api.TraversalDefaults{
		InactiveDays: a.cfg.InactiveDays,
		MaxDepth:     a.cfg.MaxDepth,
		MaxNodes:     a.cfg.MaxNodes,
	}
	// The key guards the machine API only; the report UI stays browsable.
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(a.cfg.APIKey))
		api.NewHandler(a.audit, defaults, a.logger).RegisterRoutes(r)
	})

	r.Route("/ui", func(r chi.Router) {
		ui.MountRoutes(r, ui.NewHandler(a.audit, a.logger))
	})

	return r
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http server listening", "addr", a.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Close()
	return err
}

// Close stops the scheduler and releases the directory connection and the
// database pools.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
