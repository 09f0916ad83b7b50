// Command server runs the deceased-gated record access service: deceased
// verification voting, unlock request escalation and the secure record vault
// behind one HTTP API.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"heirloom/internal/auth"
	"heirloom/internal/deceased"
	"heirloom/internal/family"
	"heirloom/internal/grant"
	"heirloom/internal/notify"
	"heirloom/internal/platform/config"
	"heirloom/internal/platform/httpserver"
	"heirloom/internal/platform/logger"
	"heirloom/internal/platform/metrics"
	"heirloom/internal/platform/postgres"
	redisplatform "heirloom/internal/platform/redis"
	"heirloom/internal/records"
	httptransport "heirloom/internal/transport/http"
	"heirloom/internal/unlock"
	"heirloom/internal/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "heirloom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	pool, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	payloadKey, err := base64.StdEncoding.DecodeString(cfg.PayloadKey)
	if err != nil {
		return fmt.Errorf("decode PAYLOAD_KEY: %w", err)
	}
	cipher, err := vault.NewAESGCM(payloadKey)
	if err != nil {
		return fmt.Errorf("init payload cipher: %w", err)
	}

	m := metrics.New()
	runner := postgres.NewTxRunner(pool)

	memberStore := family.NewPostgres(pool)
	recordStore := records.NewPostgres(pool)
	voteStore := deceased.NewPostgres(pool)
	requestStore := unlock.NewPostgres(pool)
	authz := family.NewAuthorizer(memberStore)

	var grantStore grant.GrantStore = grant.NewPostgres(pool)
	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		grantStore = grant.NewCached(grantStore, redisClient.Client)
		log.Info("grant cache enabled")
	}

	// Notifications flow through an in-process queue so request handling
	// never waits on the broker.
	var sink notify.Sink = notify.NewLogSink(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("kafka notifications enabled", "topic", cfg.Kafka.Topic)
	}
	asyncSink := notify.NewAsyncSink(1024, log)
	worker := notify.NewWorker(sink, asyncSink, log)

	grantSvc, err := grant.New(grantStore, recordStore, memberStore, authz, runner,
		grant.WithLogger(log), grant.WithMetrics(m), grant.WithNotifier(asyncSink))
	if err != nil {
		return fmt.Errorf("init grant service: %w", err)
	}
	vaultSvc, err := vault.New(recordStore, memberStore, authz, grantSvc, cipher, runner,
		vault.WithLogger(log), vault.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("init vault: %w", err)
	}
	deceasedSvc, err := deceased.New(memberStore, voteStore, authz, runner,
		deceased.WithLogger(log), deceased.WithMetrics(m), deceased.WithNotifier(asyncSink))
	if err != nil {
		return fmt.Errorf("init deceased coordinator: %w", err)
	}
	engine, err := unlock.New(requestStore, recordStore, memberStore, authz, grantSvc, runner,
		unlock.WithLogger(log), unlock.WithMetrics(m), unlock.WithNotifier(asyncSink),
		unlock.WithCooldown(cfg.UnlockCooldown), unlock.WithAutoUnlockThreshold(cfg.AutoUnlockThreshold))
	if err != nil {
		return fmt.Errorf("init unlock engine: %w", err)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		JWTValidator: auth.NewTokenValidator(cfg.JWTSigningKey),
		Deceased:     httptransport.NewDeceasedHandler(deceasedSvc, log),
		Unlock:       httptransport.NewUnlockHandler(engine, log),
		Records:      httptransport.NewRecordsHandler(vaultSvc, grantSvc, log),
		Healthy: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(gCtx)
	})
	g.Go(func() error {
		log.Info("starting heirloom", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("heirloom stopped")
	return nil
}
