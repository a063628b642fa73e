package server

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

	"hwportal/internal/domain/auth"
	"hwportal/internal/domain/bulkjobs"
	"hwportal/internal/domain/listing"
	"hwportal/internal/domain/upload"
	"hwportal/internal/platform/backend"
	"hwportal/internal/platform/config"
	"hwportal/internal/platform/db"
	"hwportal/internal/platform/jobs"
	"hwportal/internal/platform/metrics"
	"hwportal/internal/platform/querier"
	"hwportal/internal/transport/http/api"
	listshandler "hwportal/internal/transport/http/handlers/lists"
	uploadshandler "hwportal/internal/transport/http/handlers/uploads"
	"hwportal/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	DB       *db.Pool
	Router   http.Handler
	Metrics  *metrics.Collector
	Jobs     *jobs.Service
	Sessions *upload.Registry

	closers []func()
}

// New wires the application. The database is optional: without DATABASE_URL
// filter preferences and idempotency keys are kept in memory.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg, Metrics: metrics.New(), Sessions: upload.NewRegistry()}

	var persister listing.FilterPersister = listing.NewMemoryPersister()
	var idem middleware.IdempotencyStore = middleware.NewMemoryIdempotencyStore()
	var pgIdem *middleware.PgIdempotencyStore
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.DB = pool
		app.closers = append(app.closers, pool.Close)
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
				app.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		persister = listing.NewPgPersister(pool)
		pgIdem = middleware.NewPgIdempotencyStore(pool)
		idem = pgIdem
	}

	client := backend.New(backend.Config{
		BaseURL:           cfg.BackendURL,
		APIKey:            cfg.BackendAPIKey,
		APISecret:         cfg.BackendAPISecret,
		Timeout:           cfg.BackendTimeout,
		RequestsPerSecond: cfg.BackendRPS,
		Burst:             cfg.BackendBurst,
	}, backend.WithObserver(app.Metrics))

	perms := auth.StaticPermissions{}
	lists := listshandler.NewHandler(perms)
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.Affiliations, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.ExpenseClaims, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.PurchaseOrders, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.MaterialRequests, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.Assets, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))
	listshandler.Add(lists, track(app, listing.NewRegistry(listing.Facilities, client, cfg.ListMethodPrefix, persister, cfg.SearchDebounce)))

	jobService := bulkjobs.NewService(client, bulkjobs.Config{
		Mode:        bulkjobs.Mode(cfg.JobAggregationMode),
		JobsMethod:  cfg.JobsMethod,
		Concurrency: cfg.AggregationConcurrency,
		PageSize:    cfg.JobPageSize,
	})
	uploads := uploadshandler.NewHandler(app.Sessions, bulkjobs.NewSubmitter(client), jobService, idem, perms)
	uploads.PageSize = cfg.JobPageSize

	var runLog querier.Querier
	if app.DB != nil {
		runLog = app.DB
	}
	app.Jobs = jobs.New(runLog)
	app.Jobs.Every(jobs.JobSweepUploadSessions, cfg.MaintenanceInterval, func(ctx context.Context) (any, error) {
		removed := app.Sessions.SweepIdle(cfg.UploadSessionTTL)
		if removed > 0 {
			slog.Info("expired idle upload sessions", "removed", removed)
		}
		return map[string]int{"removed": removed}, nil
	})
	if pgIdem != nil {
		app.Jobs.Every(jobs.JobPruneIdempotency, cfg.MaintenanceInterval, func(ctx context.Context) (any, error) {
			deleted, err := pgIdem.Prune(ctx, cfg.IdempotencyRetention)
			return map[string]int64{"deleted": deleted}, err
		})
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", app.handleReady)
	authenticate := middleware.Auth(cfg.JWTSecret, cfg.DevTrustUserHeader && !cfg.IsProduction())
	if cfg.MetricsEnabled {
		router.With(authenticate, middleware.RequireUser, middleware.RequirePermission(perms, auth.PermMetricsRead)).
			Get("/metrics", app.handleMetrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireUser)
		r.Use(middleware.BackendSession)
		r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateLimitWindow))
		r.Use(middleware.UploadRateLimit(cfg.RateLimit, cfg.RateLimitWindow))

		lists.RegisterRoutes(r)
		uploads.RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

// track closes reg together with the app.
func track[T any](a *App, reg *listing.Registry[T]) *listing.Registry[T] {
	a.closers = append(a.closers, reg.Close)
	return reg
}

// Start launches background maintenance.
func (a *App) Start(ctx context.Context) {
	a.Jobs.Start(ctx)
}

// Close releases stores and the database pool in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (a *App) handleMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot := a.Metrics.Snapshot()
	snapshot["uploadSessions"] = a.Sessions.Len()
	api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
}

// Run serves until SIGINT or SIGTERM, then drains in-flight requests.
func Run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("health worker portal listening", "addr", cfg.Addr, "env", cfg.Environment, "jobMode", cfg.JobAggregationMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
