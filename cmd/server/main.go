package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Type-PrAsH/SchedWise/internal/adapter/heuristic"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/httpserver"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/metrics"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/openai"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/pdf"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/postgres"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/redis"
	"github.com/Type-PrAsH/SchedWise/internal/adapter/sqlite"
	"github.com/Type-PrAsH/SchedWise/internal/app"
	"github.com/Type-PrAsH/SchedWise/internal/domain"
	"github.com/Type-PrAsH/SchedWise/internal/platform/config"
	"github.com/Type-PrAsH/SchedWise/internal/platform/logging"
	"github.com/Type-PrAsH/SchedWise/internal/platform/retry"
	"github.com/Type-PrAsH/SchedWise/internal/platform/version"
)

const (
	startupTimeout     = 60 * time.Second
	shutdownTimeout    = 10 * time.Second
	redisBreakerDelay  = 15 * time.Second
	openAIBreakerDelay = 30 * time.Second
)

// storage is whichever backend STORAGE_DRIVER selected.
type storage struct {
	snapshots domain.SnapshotStore
	ledger    domain.LedgerStore
	check     httpserver.HealthCheck
	closer    io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func logRetry(component string) func(int, error, time.Duration) {
	return func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Connection attempt failed, retrying",
			"component", component,
			"attempt", attempt,
			"backoff", backoff,
			"error", err)
	}
}

func setupStorage(ctx context.Context, cfg *config.Config, storeMetrics *metrics.StoreMetrics) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		policy := retry.Startup
		policy.OnRetry = logRetry("postgres")
		pool, err := retry.Do(ctx, policy, nil, func(ctx context.Context) (*pgxpool.Pool, error) {
			return postgres.Connect(ctx, cfg.DatabaseURL, postgres.NewQueryTracer(storeMetrics))
		})
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		store := postgres.NewStore(pool, cfg.UserID)
		return &storage{
			snapshots: store,
			ledger:    store,
			check:     httpserver.HealthCheck{Name: "postgres", Check: pool.Ping},
			closer:    closerFunc(func() error { pool.Close(); return nil }),
		}, nil

	default:
		store, err := sqlite.Open(ctx, cfg.SQLitePath, cfg.UserID, storeMetrics)
		if err != nil {
			return nil, err
		}
		slog.Info("Using SQLite store", "path", cfg.SQLitePath)
		return &storage{
			snapshots: store,
			ledger:    store,
			check:     httpserver.HealthCheck{Name: "sqlite", Check: store.Ping},
			closer:    store,
		}, nil
	}
}

// setupRedis returns nil when Redis is not configured or unreachable; both
// Redis features are optional.
func setupRedis(ctx context.Context, cfg *config.Config, suggestionMetrics *metrics.SuggestionMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	hook := redis.NewBreakerHook(redisBreakerDelay, func(open bool) {
		suggestionMetrics.SetCircuitOpen("redis", open)
	})
	policy := retry.Startup
	policy.MaxAttempts = 3
	policy.OnRetry = logRetry("redis")

	client, err := retry.Do(ctx, policy, nil, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, cfg.RedisURL, hook)
	})
	if err != nil {
		slog.Warn("Redis unavailable, continuing without cache and tick markers", "error", err)
		return nil
	}
	return client
}

func setupSuggester(cfg *config.Config, suggestionMetrics *metrics.SuggestionMetrics) domain.SuggestionProvider {
	if !cfg.UsesOpenAI() {
		slog.Info("No OpenAI key configured, using built-in suggestions")
		return heuristic.New()
	}
	slog.Info("Using OpenAI suggestions", "model", cfg.OpenAIModel)
	return openai.New(openai.Config{
		APIKey:       cfg.OpenAIAPIKey,
		Model:        cfg.OpenAIModel,
		BaseURL:      cfg.OpenAIBaseURL,
		Rate:         cfg.SuggestionRate,
		BreakerDelay: openAIBreakerDelay,
	}, suggestionMetrics)
}

func runGracefulShutdown(srv *httpserver.Server, appSvc *app.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		appSvc.Shutdown(shutdownCtx)

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	v := version.Get()
	slog.Info("Application starting",
		"env", cfg.AppEnv,
		"port", cfg.Port,
		"version", v.Version,
		"commit", v.Commit,
		"storage", cfg.StorageDriver)

	reg := metrics.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	storeMetrics := metrics.NewStoreMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, err := setupStorage(startupCtx, cfg, storeMetrics)
	if err != nil {
		slog.Error("Failed to open store", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.closer.Close() }()

	deps := app.Dependencies{
		Snapshots: store.snapshots,
		Ledger:    store.ledger,
		Suggester: setupSuggester(cfg, recorder.Suggestions),
		Extractor: pdf.New(),
		Metrics:   recorder,
	}
	if rdb := setupRedis(startupCtx, cfg, recorder.Suggestions); rdb != nil {
		defer func() { _ = rdb.Close() }()
		deps.Cache = redis.NewSuggestionCache(rdb, cfg.UserID)
		deps.Deduper = redis.NewTickDeduper(rdb, cfg.UserID)
	}

	appSvc := app.NewService(app.Config{
		Window:            cfg.Window(),
		Location:          cfg.Location(),
		DefaultDay:        cfg.Weekday(),
		GoalMinutes:       cfg.SkillGoalMinutes,
		SuggestionTimeout: cfg.SuggestionTimeout,
	}, deps, clock)
	appSvc.Restore(startupCtx)

	srv := httpserver.NewServer(cfg, appSvc, httpMetrics.Middleware(), metrics.Handler(reg),
		[]httpserver.HealthCheck{store.check})

	done := runGracefulShutdown(srv, appSvc)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
