package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sixerhq/chain-contests/external/cricfeed"
	"github.com/sixerhq/chain-contests/internal/config"
	"github.com/sixerhq/chain-contests/internal/infrastructure/ledger"
	"github.com/sixerhq/chain-contests/internal/infrastructure/repository/postgres"
	"github.com/sixerhq/chain-contests/internal/interfaces/httpapi"
	"github.com/sixerhq/chain-contests/internal/platform/cache"
	"github.com/sixerhq/chain-contests/internal/platform/logging"
	"github.com/sixerhq/chain-contests/internal/platform/resilience"
	"github.com/sixerhq/chain-contests/internal/scheduler"
	"github.com/sixerhq/chain-contests/internal/usecase"
)

// App owns the reconciler's long-lived pieces: the database pool, the
// periodic jobs and the read-side HTTP server.
type App struct {
	cfg    config.Config
	logger *logging.Logger
	db     *sqlx.DB
	server *http.Server
	sched  *scheduler.Scheduler
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	matchRepo := postgres.NewMatchRepository(db)
	contestRepo := postgres.NewContestRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	pointsRepo := postgres.NewFantasyPointsRepository(db)
	squadRepo := postgres.NewSquadRepository(db)

	feed := cricfeed.NewClient(cricfeed.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.CricFeedTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:    cfg.CricFeedBaseURL,
		APIKey:     cfg.CricFeedAPIKey,
		Timeout:    cfg.CricFeedTimeout,
		MaxRetries: cfg.CricFeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CricFeedCircuitEnabled,
			FailureThreshold: cfg.CricFeedCircuitFailureCount,
			OpenTimeout:      cfg.CricFeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CricFeedCircuitHalfOpenMaxReq,
		},
	})

	chain := ledger.NewClient(ledger.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.LedgerTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		RPCURL:          cfg.LedgerRPCURL,
		PackageID:       cfg.LedgerPackageID,
		MasterObjectID:  cfg.LedgerMasterObjectID,
		SignerKey:       cfg.LedgerSignerKey,
		Timeout:         cfg.LedgerTimeout,
		FinalityTimeout: cfg.LedgerFinalityTimeout,
		Logger:          logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LedgerCircuitEnabled,
			FailureThreshold: cfg.LedgerCircuitFailureCount,
			OpenTimeout:      cfg.LedgerCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LedgerCircuitHalfOpenMaxReq,
		},
	})

	tiering := usecase.NewTieringService(playerRepo, feed, cfg.TierFreshnessWindow, logger)
	lifecycle := usecase.NewLifecycleService(feed, chain, matchRepo, contestRepo, pointsRepo, logger)
	discovery := usecase.NewDiscoveryService(
		feed,
		matchRepo,
		squadRepo,
		tiering,
		lifecycle,
		usecase.DiscoveryConfig{SeriesIDs: cfg.CricFeedSeriesIDs},
		logger,
	)

	var readCache *cache.Store
	if cfg.CacheEnabled {
		readCache = cache.NewStore(cfg.CacheTTL)
	}
	queries := usecase.NewQueryService(matchRepo, contestRepo, squadRepo, readCache)

	sched := scheduler.New(logger)
	sched.Register(scheduler.Job{
		Name:     "discover",
		LockName: "syncMatches",
		Interval: cfg.JobDiscoverInterval,
		Run: func(ctx context.Context) error {
			_, err := discovery.DiscoverAll(ctx)
			return err
		},
	})
	sched.Register(scheduler.Job{
		Name:     "checkCompletion",
		Interval: cfg.JobCompletionInterval,
		Run:      lifecycle.CheckCompletions,
	})
	sched.Register(scheduler.Job{
		Name:     "refreshStatus",
		Interval: cfg.JobStatusRefreshInterval,
		Run:      lifecycle.RefreshStatuses,
	})

	handler := httpapi.NewHandler(queries, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		_ = db.Close()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		db:     db,
		server: server,
		sched:  sched,
	}, nil
}

// Run blocks until the context is cancelled, then shuts the server down
// gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.sched.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	a.logger.Info("http server stopped")

	return nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dbURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
