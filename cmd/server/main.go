package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"nftmarket/internal/directory"
	"nftmarket/internal/funds"
	jwttoken "nftmarket/internal/jwt_token"
	"nftmarket/internal/marketplace/handler"
	"nftmarket/internal/marketplace/metrics"
	"nftmarket/internal/marketplace/models"
	"nftmarket/internal/marketplace/ports"
	"nftmarket/internal/marketplace/service"
	listingstore "nftmarket/internal/marketplace/store/listing"
	proceedsstore "nftmarket/internal/marketplace/store/proceeds"
	"nftmarket/internal/platform/config"
	"nftmarket/internal/platform/httpserver"
	"nftmarket/internal/platform/idempotency"
	"nftmarket/internal/platform/kafka"
	"nftmarket/internal/platform/logger"
	httpmetrics "nftmarket/internal/platform/metrics"
	"nftmarket/internal/platform/postgres"
	redisclient "nftmarket/internal/platform/redis"
	"nftmarket/internal/platform/tracing"
	"nftmarket/internal/ratelimit"
	"nftmarket/pkg/platform/circuit"
	"nftmarket/pkg/platform/outbox"
	outboxmemory "nftmarket/pkg/platform/outbox/memory"
	outboxpg "nftmarket/pkg/platform/outbox/postgres"
	"nftmarket/pkg/platform/outbox/relay"
	"nftmarket/pkg/platform/tx"
)

// main wires dependencies and runs the HTTP server and outbox relay until a
// shutdown signal arrives. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// storage groups the ledger stores and the runner that scopes their writes.
type storage struct {
	listings ports.ListingStore
	proceeds ports.ProceedsStore
	outbox   outbox.Store
	tx       ports.TxRunner
	// relayTx is set only when relay passes need row locks.
	relayTx relay.TxRunner
	db      *sql.DB
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	if store.db != nil {
		defer store.db.Close()
	}

	redis, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redis != nil {
		defer redis.Close()
		log.Info("redis connected")
	}

	operator := models.NormalizeAddress(cfg.Marketplace.Operator)
	assets, payouts := capabilities(cfg, operator, log)

	marketMetrics := metrics.New(prometheus.DefaultRegisterer)
	svc := service.New(operator, store.listings, store.proceeds, assets, payouts,
		service.WithLogger(log),
		service.WithMetrics(marketMetrics),
		service.WithOutbox(store.outbox),
		service.WithTxRunner(store.tx),
		service.WithGuardWait(cfg.Marketplace.GuardWait),
	)

	publisher, closePublisher, err := newPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	relayOpts := []relay.Option{
		relay.WithLogger(log),
		relay.WithMetrics(marketMetrics),
		relay.WithBatchSize(cfg.Outbox.BatchSize),
		relay.WithPollInterval(cfg.Outbox.PollInterval),
	}
	if store.relayTx != nil {
		relayOpts = append(relayOpts, relay.WithTxRunner(store.relayTx))
	}
	outboxRelay := relay.New(store.outbox, publisher, relayOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)
	router := newRouter(routerDeps{
		logger:      log,
		handler:     handler.New(svc, log),
		validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		limiter:     newLimiter(cfg.RateLimit, redis, log),
		rateLimit:   cfg.RateLimit,
		idempotency: newIdempotencyStore(redis),
		idemTTL:     cfg.Idempotency.TTL,
		httpMetrics: httpmetrics.New(prometheus.DefaultRegisterer),
		health:      healthChecks(store.db, redis),
	})

	if cfg.Marketplace.SeedDemo {
		seedDemo(assets, operator, jwtService, log)
	}

	// Requests outlive the signal so Shutdown can drain them.
	reqCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()
	srv := httpserver.New(reqCtx, cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting nftmarket", "addr", cfg.Server.Addr, "operator", operator)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := outboxRelay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox relay: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			cancelRequests()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// openStorage selects Postgres when DATABASE_URL is set and in-memory stores
// otherwise.
func openStorage(ctx context.Context, cfg config.Config, log *slog.Logger) (storage, error) {
	if cfg.Database.URL == "" {
		log.Info("DATABASE_URL not set, using in-memory stores")
		return storage{
			listings: listingstore.NewInMemory(),
			proceeds: proceedsstore.NewInMemory(),
			outbox:   outboxmemory.NewStore(),
			tx:       tx.NewMemoryRunner(cfg.Marketplace.TxTimeout),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return storage{}, err
	}
	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return storage{}, err
		}
	}
	log.Info("postgres connected", "migrated", cfg.Database.Migrate)

	runner := postgres.NewTxRunner(db, cfg.Marketplace.TxTimeout)
	return storage{
		listings: listingstore.NewPostgres(db),
		proceeds: proceedsstore.NewPostgres(db),
		outbox:   outboxpg.New(db),
		tx:       runner,
		relayTx:  runner,
		db:       db,
	}, nil
}

// capabilities picks HTTP adapters for configured endpoints and in-process
// ones otherwise.
func capabilities(cfg config.Config, operator models.Address, log *slog.Logger) (ports.AssetDirectory, ports.FundsTransfer) {
	var assets ports.AssetDirectory
	if cfg.Directory.BaseURL != "" {
		assets = directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout, nil)
	} else {
		log.Info("DIRECTORY_BASE_URL not set, using in-memory asset directory")
		assets = directory.NewInMemory(operator)
	}

	var payouts ports.FundsTransfer
	if cfg.Funds.BaseURL != "" {
		payouts = funds.NewClient(cfg.Funds.BaseURL, cfg.Funds.Timeout, nil)
	} else {
		log.Info("FUNDS_BASE_URL not set, recording payouts in memory")
		payouts = funds.NewInMemory()
	}
	return assets, payouts
}

func newPublisher(ctx context.Context, cfg config.Kafka, log *slog.Logger) (outbox.Publisher, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Info("KAFKA_BROKERS not set, logging events instead of publishing")
		return outbox.NewLogPublisher(log), func() {}, nil
	}

	producer, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.Partitions, cfg.ReplicationFactor); err != nil {
		producer.Close()
		return nil, nil, err
	}
	log.Info("kafka producer ready", "topic", cfg.Topic)
	return producer, producer.Close, nil
}

// newLimiter counts in Redis when available, falling back to in-process
// buckets while Redis is failing.
func newLimiter(cfg config.RateLimit, redis *redisclient.Client, log *slog.Logger) ratelimit.Limiter {
	local := ratelimit.NewMapLimiter(cfg.RequestsPerSec, cfg.Burst, 10*time.Minute)
	if redis == nil {
		return local
	}
	return ratelimit.NewFailoverLimiter(
		ratelimit.NewRedisLimiter(redis.Client, cfg.RequestsPerSec, cfg.Burst),
		local,
		circuit.New("ratelimit-redis"),
		log,
	)
}

func newIdempotencyStore(redis *redisclient.Client) idempotency.Store {
	if redis == nil {
		return idempotency.NewMemoryStore()
	}
	return idempotency.NewRedisStore(redis.Client)
}

func healthChecks(db *sql.DB, redis *redisclient.Client) map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{}
	if db != nil {
		checks["postgres"] = db.PingContext
	}
	if redis != nil {
		checks["redis"] = redis.Health
	}
	return checks
}

// seedDemo mints demo items when the in-process directory is in use and logs
// tokens for the demo accounts.
func seedDemo(assets ports.AssetDirectory, operator models.Address, jwtService *jwttoken.JWTService, log *slog.Logger) {
	mem, ok := assets.(*directory.InMemory)
	if !ok {
		log.Warn("MARKETPLACE_SEED_DEMO ignored: an external asset directory is configured")
		return
	}
	keys := directory.SeedDemo(mem, operator)
	for _, account := range []models.Address{directory.DemoSeller, directory.DemoBuyer} {
		token, err := jwtService.GenerateAccessToken(string(account), 24*time.Hour)
		if err != nil {
			log.Error("failed to issue demo token", "account", account, "error", err)
			continue
		}
		log.Info("demo account", "account", account, "token", token)
	}
	log.Info("demo items minted", "collection", directory.DemoCollection, "count", len(keys))
}
