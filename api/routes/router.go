package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hirfahq/hirfa-backend/api/controllers"
	"github.com/hirfahq/hirfa-backend/api/middleware"
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
	"github.com/hirfahq/hirfa-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	pricingService pricing.Service,
	deviationService deviation.Service,
	escrowService escrow.Service,
	walletService wallets.Service,
	ledgerService ledger.Service,
	payoutService payouts.Service,
	categoryService categories.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	payoutPolicy := middleware.NewRateLimitPolicy(
		"payouts",
		cfg.RateLimit.PayoutWindow,
		cfg.RateLimit.PayoutIPLimit,
		cfg.RateLimit.PayoutVendorLimit,
	)

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/quotes", controllers.PricingQuote(pricingService, logg))
		})

		r.Route("/deviation", func(r chi.Router) {
			r.Post("/checks", controllers.DeviationCheck(deviationService, logg))
		})

		r.Route("/escrow", func(r chi.Router) {
			r.Post("/schedule", controllers.EscrowSchedulePreview(escrowService, logg))
			r.Post("/holds", controllers.EscrowHoldCreate(escrowService, logg))
			r.Get("/holds", controllers.EscrowHoldsList(escrowService, logg))
		})

		r.Post("/wallets", controllers.WalletProvision(walletService, logg))
		r.Get("/wallets/{vendorID}", controllers.WalletDetail(walletService, logg))
		r.Get("/wallets/{vendorID}/statement", controllers.WalletStatement(ledgerService, logg))

		r.Post("/ledger/entries", controllers.LedgerEntryCreate(ledgerService, logg))
		r.Get("/ledger/orders/{orderID}/entries", controllers.LedgerOrderEntries(ledgerService, logg))

		r.With(middleware.RateLimit(payoutPolicy, redisClient, logg)).
			Post("/payouts", controllers.PayoutCreate(payoutService, logg))

		r.Get("/categories", controllers.CategoriesList(categoryService, logg))
		r.Post("/categories", controllers.CategoryUpsert(categoryService, logg))
	})

	return r
}
