package main

import (
	"context"
	"net/http"
	"os"

	"github.com/hirfahq/hirfa-backend/api/routes"
	"github.com/hirfahq/hirfa-backend/internal/categories"
	"github.com/hirfahq/hirfa-backend/internal/deviation"
	"github.com/hirfahq/hirfa-backend/internal/escrow"
	"github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/internal/payouts"
	"github.com/hirfahq/hirfa-backend/internal/pricing"
	"github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/db"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/migrate"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
	"github.com/hirfahq/hirfa-backend/pkg/redis"
	"github.com/joho/godotenv"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	categoryService, err := categories.NewService(categories.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(categoryService, cfg.Policy)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	deviationService, err := deviation.NewService(dbClient, outboxService, cfg.Policy)
	if err != nil {
		logg.Error(context.Background(), "failed to create deviation service", err)
		os.Exit(1)
	}

	walletRepo := wallets.NewRepository(dbClient.DB())
	walletService, err := wallets.NewService(walletRepo, dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()), walletRepo, dbClient, outboxService)
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

	payoutService, err := payouts.NewService(walletRepo, ledgerService, dbClient, outboxService, cfg.Policy)
	if err != nil {
		logg.Error(context.Background(), "failed to create payout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pricingService,
			deviationService,
			escrowService,
			walletService,
			ledgerService,
			payoutService,
			categoryService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
