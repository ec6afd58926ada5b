package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hirfahq/hirfa-backend/internal/cron"
	"github.com/hirfahq/hirfa-backend/internal/escrow"
	"github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/db"
	"github.com/hirfahq/hirfa-backend/pkg/instance"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/metrics"
	"github.com/hirfahq/hirfa-backend/pkg/migrate"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
	"github.com/hirfahq/hirfa-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)
	walletRepo := wallets.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	ledgerService, err := ledger.NewService(ledgerRepo, walletRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	escrowService, err := escrow.NewService(
		escrow.NewRepository(dbClient.DB()),
		ledgerService,
		dbClient,
		outboxService,
		cfg.Policy,
		cfg.Cron.ReleaseBatchSize,
		nil,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow service", err)
		os.Exit(1)
	}

	releaseJob, err := cron.NewEscrowReleaseJob(cron.EscrowReleaseJobParams{
		Logger:  logg,
		Escrow:  escrowService,
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow release job", err)
		os.Exit(1)
	}

	reconcileJob, err := cron.NewWalletReconciliationJob(cron.WalletReconciliationJobParams{
		Logger:  logg,
		Wallets: walletRepo,
		Ledger:  ledgerRepo,
		Metrics: metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet reconciliation job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	releaseLock, err := cron.NewJobLock(redisClient, releaseJob.Name(), cfg.Cron.JobLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create escrow release lock", err)
		os.Exit(1)
	}
	reconcileLock, err := cron.NewJobLock(redisClient, reconcileJob.Name(), cfg.Cron.JobLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation lock", err)
		os.Exit(1)
	}
	retentionLock, err := cron.NewJobLock(redisClient, retentionJob.Name(), cfg.Cron.JobLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(
		cron.Entry{Job: releaseJob, Every: cfg.Cron.EscrowReleaseInterval, Lock: releaseLock},
		cron.Entry{Job: reconcileJob, Every: cfg.Cron.ReconciliationInterval, Lock: reconcileLock},
		cron.Entry{Job: retentionJob, Every: cfg.Cron.OutboxRetentionInterval, Lock: retentionLock},
	)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Metrics:  metricsCollector,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
