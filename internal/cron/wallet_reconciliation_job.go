package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/metrics"
)

const (
	walletReconciliationJobName = "wallet-reconciliation"
	defaultReconcileBatchSize   = 200
)

// WalletReconciliationJobParams configure the balance drift sweep.
type WalletReconciliationJobParams struct {
	Logger    *logger.Logger
	Wallets   walletPager
	Ledger    walletSummarizer
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

type walletPager interface {
	List(ctx context.Context, limit, offset int) ([]models.VendorWallet, error)
}

type walletSummarizer interface {
	SummarizeByWallet(ctx context.Context, walletID uuid.UUID) (ledger.BalanceSummary, error)
}

// NewWalletReconciliationJob builds the cron job that checks every wallet
// against the accounting identity and against a recomputation from its
// ledger entries. Drift is reported, never corrected; the ledger stays the
// source of truth and a human decides the fix.
func NewWalletReconciliationJob(params WalletReconciliationJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger summarizer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultReconcileBatchSize
	}
	return &walletReconciliationJob{
		logg:      params.Logger,
		wallets:   params.Wallets,
		ledger:    params.Ledger,
		metrics:   params.Metrics,
		batchSize: batchSize,
	}, nil
}

type walletReconciliationJob struct {
	logg      *logger.Logger
	wallets   walletPager
	ledger    walletSummarizer
	metrics   *metrics.CronJobMetrics
	batchSize int
}

func (j *walletReconciliationJob) Name() string { return walletReconciliationJobName }

func (j *walletReconciliationJob) Run(ctx context.Context) error {
	scanned := 0
	drifted := 0
	var errs error
	for offset := 0; ; offset += j.batchSize {
		wallets, err := j.wallets.List(ctx, j.batchSize, offset)
		if err != nil {
			return fmt.Errorf("list wallets: %w", err)
		}
		for i := range wallets {
			scanned++
			ok, err := j.reconcile(ctx, &wallets[i])
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("reconcile wallet %s: %w", wallets[i].ID, err))
				continue
			}
			if !ok {
				drifted++
			}
		}
		if len(wallets) < j.batchSize {
			break
		}
	}

	j.metrics.AddItems(walletReconciliationJobName, scanned)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": scanned,
		"drifted": drifted,
	})
	j.logg.Info(logCtx, "wallet reconciliation sweep complete")
	return errs
}

// reconcile returns false when the wallet disagrees with its own identity or
// with the balances recomputed from its ledger entries.
func (j *walletReconciliationJob) reconcile(ctx context.Context, wallet *models.VendorWallet) (bool, error) {
	summary, err := j.ledger.SummarizeByWallet(ctx, wallet.ID)
	if err != nil {
		return false, err
	}

	clean := true
	logCtx := j.logg.WithWalletID(ctx, wallet.ID.String())
	logCtx = j.logg.WithVendorID(logCtx, wallet.VendorID.String())

	if delta := wallet.IdentityDelta(); !delta.IsZero() {
		clean = false
		j.logg.Error(
			j.logg.WithField(logCtx, "identity_delta", delta.String()),
			"wallet violates the accounting identity",
			nil,
		)
	}

	if !summary.Pending.Equal(wallet.PendingBalance) ||
		!summary.Available.Equal(wallet.AvailableBalance) ||
		!summary.Earnings.Equal(wallet.LifetimeEarnings) ||
		!summary.Payouts.Equal(wallet.LifetimePayouts) {
		clean = false
		driftCtx := j.logg.WithFields(logCtx, map[string]any{
			"wallet_pending":   wallet.PendingBalance.String(),
			"ledger_pending":   summary.Pending.String(),
			"wallet_available": wallet.AvailableBalance.String(),
			"ledger_available": summary.Available.String(),
			"wallet_earnings":  wallet.LifetimeEarnings.String(),
			"ledger_earnings":  summary.Earnings.String(),
			"wallet_payouts":   wallet.LifetimePayouts.String(),
			"ledger_payouts":   summary.Payouts.String(),
		})
		j.logg.Error(driftCtx, "wallet balances drifted from the ledger", nil)
	}

	return clean, nil
}
