package payouts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
)

// maxApplyAttempts bounds optimistic retries when concurrent writers race on
// the same wallet version. Threshold and balance checks rerun on every
// attempt against fresh wallet state.
const maxApplyAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerAccountant interface {
	ApplyEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error)
}

// Service executes vendor withdrawals. Every payout is a withdrawn ledger
// entry applied through the accountant, so the wallet debit and the payout
// record commit or fail together.
type Service interface {
	RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.LedgerEntry, error)
}

type service struct {
	wallets  wallets.Repository
	accounts ledgerAccountant
	tx       txRunner
	outbox   outboxEmitter
	policy   config.PolicyConfig
}

// RequestPayoutInput describes one withdrawal request.
type RequestPayoutInput struct {
	VendorID uuid.UUID
	Amount   decimal.Decimal
	Note     string
	Actor    *outbox.ActorRef
}

// PayoutRecordedEvent is emitted when a withdrawal debits a wallet.
type PayoutRecordedEvent struct {
	EntryID          uuid.UUID       `json:"entry_id"`
	WalletID         uuid.UUID       `json:"wallet_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	Amount           decimal.Decimal `json:"amount"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// NewService wires a payout service with the provided dependencies.
func NewService(
	walletRepo wallets.Repository,
	accounts ledgerAccountant,
	tx txRunner,
	outboxSvc outboxEmitter,
	policy config.PolicyConfig,
) (Service, error) {
	if walletRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger accountant required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{
		wallets:  walletRepo,
		accounts: accounts,
		tx:       tx,
		outbox:   outboxSvc,
		policy:   policy,
	}, nil
}

// RequestPayout validates the withdrawal and debits the wallet. Checks run in
// order: positive amount, minimum threshold, sufficient available balance.
// A rejected request never mutates the wallet. When two payouts race on one
// wallet, the loser revalidates against the winner's committed balance, so
// their combined debits can never exceed what was available.
func (s *service) RequestPayout(ctx context.Context, input RequestPayoutInput) (*models.LedgerEntry, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive").
			WithDetails(map[string]any{"amount": input.Amount.String()})
	}
	if input.Amount.LessThan(s.policy.MinimumPayoutThreshold) {
		return nil, pkgerrors.New(pkgerrors.CodeBelowMinimumPayout, "payout amount is below the minimum threshold").
			WithDetails(map[string]any{
				"amount":  input.Amount.String(),
				"minimum": s.policy.MinimumPayoutThreshold.String(),
			})
	}

	note := input.Note
	if note == "" {
		note = "vendor payout"
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var entry *models.LedgerEntry
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			wallet, err := s.wallets.WithTx(tx).FindByVendorID(ctx, input.VendorID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeWalletNotFound, "vendor wallet not provisioned").
						WithDetails(map[string]any{"vendor_id": input.VendorID.String()})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
			}
			if wallet.AvailableBalance.LessThan(input.Amount) {
				return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "available balance is below the requested amount").
					WithDetails(map[string]any{
						"amount":    input.Amount.String(),
						"available": wallet.AvailableBalance.String(),
					})
			}

			entry, err = s.accounts.ApplyEntryTx(ctx, tx, ledger.RecordEntryInput{
				VendorID:      input.VendorID,
				EntryType:     enums.LedgerEntryTypePayout,
				BalanceStatus: enums.BalanceStatusWithdrawn,
				Amount:        input.Amount.Neg(),
				VendorAmount:  input.Amount.Neg(),
				Description:   note,
				Actor:         input.Actor,
			})
			if err != nil {
				return err
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventPayoutRecorded,
				AggregateType: enums.AggregatePayout,
				AggregateID:   entry.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: PayoutRecordedEvent{
					EntryID:          entry.ID,
					WalletID:         wallet.ID,
					VendorID:         input.VendorID,
					Amount:           input.Amount,
					AvailableBalance: wallet.AvailableBalance.Sub(input.Amount),
				},
			})
		})
		if err == nil {
			return entry, nil
		}
		if errors.Is(err, wallets.ErrVersionConflict) {
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet is contended, retry the payout").
		WithDetails(map[string]any{"vendor_id": input.VendorID.String()})
}
