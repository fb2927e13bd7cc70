package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/stockledger/internal/adapter/http"
	"github.com/iho/stockledger/internal/adapter/http/handler"
	"github.com/iho/stockledger/internal/adapter/http/middleware"
	"github.com/iho/stockledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/stockledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/stockledger/internal/adapter/repository/redis"
	"github.com/iho/stockledger/internal/infrastructure/config"
	"github.com/iho/stockledger/internal/infrastructure/eventpublisher"
	"github.com/iho/stockledger/internal/infrastructure/logger"
	"github.com/iho/stockledger/internal/infrastructure/metrics"
	"github.com/iho/stockledger/internal/infrastructure/postgres"
	redisInfra "github.com/iho/stockledger/internal/infrastructure/redis"
	"github.com/iho/stockledger/internal/usecase"
)

const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	co, err := openCoordination(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer co.close()

	m := metrics.New()
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	router := buildRouter(cfg, log, st, co, m, rateLimiter, promhttp.Handler())

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  co.publisher,
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := outbox.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()
	go cleanupLimiters(workerCtx, rateLimiter, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("storage", cfg.StorageDriver).
			Bool("redis", cfg.RedisURL != "").
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// storage is the persistence side selected by STORAGE_DRIVER.
type storage struct {
	txManager usecase.TransactionManager
	items     usecase.StockItemRepository
	movements usecase.MovementRepository
	postings  usecase.PostingRepository
	outbox    usecase.OutboxRepository
	retrier   usecase.Retrier
	health    []handler.Dependency
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		store := memory.New()
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return &storage{
			txManager: memory.NewTxManager(store),
			items:     memory.NewItemRepository(store),
			movements: memory.NewMovementRepository(store),
			postings:  memory.NewPostingRepository(store),
			outbox:    memory.NewOutboxRepository(store),
			close:     func() {},
		}, nil

	case config.StoragePostgres:
		if cfg.MigrateOnStartup {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &storage{
			txManager: postgresRepo.NewTxManager(pool),
			items:     postgresRepo.NewItemRepository(pool),
			movements: postgresRepo.NewMovementRepository(pool),
			postings:  postgresRepo.NewPostingRepository(pool),
			outbox:    postgresRepo.NewOutboxRepository(pool),
			retrier:   postgresRepo.NewRetrier(postgresRepo.DefaultRetryPolicy(), log),
			health: []handler.Dependency{
				{Name: "postgres", Check: pool.Ping},
			},
			close: pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// coordination holds the pieces that move to Redis when REDIS_URL is set.
type coordination struct {
	cache       usecase.Cache
	idempotency usecase.IdempotencyStore
	locker      usecase.KeyLocker
	publisher   eventpublisher.Publisher
	health      []handler.Dependency
	close       func()
}

func openCoordination(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*coordination, error) {
	if cfg.RedisURL == "" {
		return &coordination{
			locker:    memory.NewKeyLocker(),
			publisher: eventpublisher.NewLogPublisher(log),
			close:     func() {},
		}, nil
	}

	client, err := redisInfra.NewClient(ctx, cfg.RedisURL, redisInfra.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Msg("connected to redis")

	return newRedisCoordination(client, cfg, log), nil
}

func newRedisCoordination(client *redis.Client, cfg *config.Config, log zerolog.Logger) *coordination {
	return &coordination{
		cache:       redisRepo.NewCache(client),
		idempotency: redisRepo.NewIdempotencyStore(client),
		locker: redisRepo.NewLocker(client, redisRepo.LockOptions{
			Expiry: cfg.PostingLockTTL,
			Tries:  cfg.PostingLockTries,
		}, log),
		publisher: eventpublisher.NewStreamPublisher(client, cfg.EventStream, cfg.EventStreamMaxLen),
		health: []handler.Dependency{
			{Name: "redis", Check: func(ctx context.Context) error {
				return redisInfra.HealthCheck(ctx, client)
			}},
		},
		close: func() { _ = client.Close() },
	}
}

func buildRouter(
	cfg *config.Config,
	log zerolog.Logger,
	st *storage,
	co *coordination,
	m *metrics.Metrics,
	rateLimiter *middleware.RateLimiter,
	metricsHandler http.Handler,
) http.Handler {
	idGen := postgresRepo.NewULIDGenerator()

	stock := usecase.NewStockUseCase(st.txManager, st.items, st.movements, st.outbox, idGen, st.retrier, co.cache, m)
	stock.SetCacheTTL(cfg.BalanceCacheTTL)
	finance := usecase.NewFinanceUseCase(st.postings, m)
	poster := usecase.NewPostingUseCase(finance, co.locker, idGen, m)
	coordinator := usecase.NewCoordinator(poster, cfg.PostingTimeout, log, m)
	ops := usecase.NewOperations(stock, coordinator)
	reconciliation := usecase.NewReconciliationUseCase(st.items, stock, finance)

	deps := append(append([]handler.Dependency{}, st.health...), co.health...)

	return httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ItemHandler:           handler.NewItemHandler(stock, ops),
		PostingHandler:        handler.NewPostingHandler(finance, ops),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliation),
		HealthHandler:         handler.NewHealthHandler(deps...),
		IdempotencyStore:      co.idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           rateLimiter,
		Metrics:               m,
		MetricsHandler:        metricsHandler,
		Logger:                log,
	})
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, log zerolog.Logger) {
	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(limiterIdleTimeout); n > 0 {
				log.Debug().Int("removed", n).Msg("pruned idle rate limiters")
			}
		}
	}
}
