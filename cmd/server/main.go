package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"spectra/internal/chain"
	"spectra/internal/events"
	"spectra/internal/events/cache"
	"spectra/internal/events/outbox"
	marksvc "spectra/internal/mark/service"
	"spectra/internal/mark/store/cypher"
	"spectra/internal/platform/config"
	"spectra/internal/platform/graph"
	"spectra/internal/platform/httpserver"
	"spectra/internal/platform/kafka"
	"spectra/internal/platform/logger"
	"spectra/internal/platform/metrics"
	platformredis "spectra/internal/platform/redis"
	reputationsvc "spectra/internal/reputation/service"
	httptransport "spectra/internal/transport/http"
)

// main wires the dependency graph and runs the HTTP server, the inbound
// consumer, and the outbox relay under one cancellation scope. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	gateway, err := graph.New(ctx, cfg.Graph)
	if err != nil {
		return err
	}
	defer gateway.Close(context.Background())

	health := map[string]httptransport.HealthChecker{"neo4j": gateway}

	redisClient, err := platformredis.New(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	var dedup cache.DedupCache
	if redisClient != nil {
		defer redisClient.Close()
		dedup = cache.NewRedisDedup(redisClient.Client, cfg.Redis.DedupTTL)
		health["redis"] = redisClient
	} else {
		log.Warn("REDIS_URL not set, using in-process event dedup")
		dedup = cache.NewMemoryDedup(cfg.Redis.DedupTTL)
	}

	var outboxStore outbox.Store
	if cfg.Outbox.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Outbox.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pgStore := outbox.NewPostgres(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		outboxStore = pgStore
		health["postgres"] = poolHealth{pool}
	} else {
		log.Warn("OUTBOX_DATABASE_URL not set, outcome events do not survive restarts")
		outboxStore = outbox.NewMemory()
	}

	emitter := outbox.NewEmitter(outboxStore, cfg.Kafka.CreatedTopic, log, m)
	store := cypher.New(gateway)

	// The recorder only ever fires inside the onchain service; passing the
	// option to the offchain instance is inert.
	var markOpts []marksvc.Option
	if cfg.Chain.Enabled && cfg.Chain.BridgeURL != "" {
		writer := chain.NewHTTPWriter(cfg.Chain.BridgeURL)
		recorder := chain.NewRecorder(writer, cfg.Chain.Attempts, cfg.Chain.Backoff, log, m)
		markOpts = append(markOpts, marksvc.WithChainRecorder(recorder))
	}

	marks := marksvc.New(cfg.Server.Onchain, store, emitter, log, m, markOpts...)
	reputation := reputationsvc.New(cfg.Server.Onchain, store, log, m)

	// The inbound stream carries both namespaces, so the handler gets one
	// service per namespace regardless of what this instance serves over HTTP.
	onchainMarks := marks
	offchainMarks := marks
	if cfg.Server.Onchain {
		offchainMarks = marksvc.New(false, store, emitter, log, m)
	} else {
		onchainMarks = marksvc.New(true, store, emitter, log, m, markOpts...)
	}
	handler := events.NewHandler(dedup, onchainMarks, offchainMarks, log, m)

	httpHandler := httptransport.NewHandler(marks, reputation, health, log, m)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(httpHandler, cfg.Server.JWTSigningKey))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting spectra", "addr", cfg.Server.Addr, "onchain", cfg.Server.Onchain)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Kafka.Disabled {
		log.Warn("kafka disabled by configuration, inbound events and outbox relay are off")
	} else {
		if err := kafka.EnsureTopics(ctx, cfg.Kafka); err != nil {
			log.Warn("ensure kafka topics", "error", err)
		}

		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		consumer, err := kafka.NewConsumer(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer consumer.Close()

		relay := outbox.NewRelay(outboxStore, producer, cfg.Outbox.RelayInterval, cfg.Outbox.BatchSize, log, m)
		group.Go(func() error {
			err := relay.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		group.Go(func() error {
			err := consumer.Run(ctx, handler.HandleMarkRequest)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return group.Wait()
}

// poolHealth adapts a pgx pool to the health checker interface.
type poolHealth struct {
	pool *pgxpool.Pool
}

func (p poolHealth) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
