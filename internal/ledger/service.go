package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
	"github.com/hirfahq/hirfa-backend/pkg/pagination"
)

// maxApplyAttempts bounds optimistic retries when concurrent writers race on
// the same wallet version.
const maxApplyAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the ledger accountant. It is the only writer of wallet balances:
// every balance change is the application of exactly one appended entry, and
// both are committed atomically.
type Service interface {
	RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error)
	ApplyEntryTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error)
	Statement(ctx context.Context, params StatementParams) (*StatementResult, error)
	EntriesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo    Repository
	wallets wallets.Repository
	tx      txRunner
	outbox  outboxEmitter
}

// RecordEntryInput describes one financial event to append and apply.
type RecordEntryInput struct {
	VendorID         uuid.UUID
	OrderID          *uuid.UUID
	EntryType        enums.LedgerEntryType
	BalanceStatus    enums.BalanceStatus
	Amount           decimal.Decimal
	VendorAmount     decimal.Decimal
	CommissionAmount decimal.Decimal
	VATAmount        decimal.Decimal
	Description      string
	Actor            *outbox.ActorRef
}

// StatementParams filter a vendor's ledger history.
type StatementParams struct {
	VendorID      uuid.UUID
	Limit         int
	Cursor        string
	EntryType     *enums.LedgerEntryType
	BalanceStatus *enums.BalanceStatus
}

// StatementResult is one page of ledger history plus the cursor for the next.
type StatementResult struct {
	Items  []models.LedgerEntry
	Cursor string
}

// EntryRecordedEvent is emitted for every entry applied to a wallet.
type EntryRecordedEvent struct {
	EntryID          uuid.UUID             `json:"entry_id"`
	WalletID         uuid.UUID             `json:"wallet_id"`
	VendorID         uuid.UUID             `json:"vendor_id"`
	OrderID          *uuid.UUID            `json:"order_id,omitempty"`
	EntryType        enums.LedgerEntryType `json:"entry_type"`
	BalanceStatus    enums.BalanceStatus   `json:"balance_status"`
	Amount           decimal.Decimal       `json:"amount"`
	VendorAmount     decimal.Decimal       `json:"vendor_amount"`
	PendingBalance   decimal.Decimal       `json:"pending_balance"`
	AvailableBalance decimal.Decimal       `json:"available_balance"`
}

// NewService wires the ledger accountant with the provided dependencies.
func NewService(repo Repository, walletRepo wallets.Repository, tx txRunner, outboxSvc outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger repository required")
	}
	if walletRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, wallets: walletRepo, tx: tx, outbox: outboxSvc}, nil
}

// RecordEntry appends the entry and applies it to the vendor's wallet in one
// transaction, retrying a bounded number of times when a concurrent writer
// wins the wallet version race.
func (s *service) RecordEntry(ctx context.Context, input RecordEntryInput) (*models.LedgerEntry, error) {
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var entry *models.LedgerEntry
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			created, applyErr := s.ApplyEntryTx(ctx, tx, input)
			if applyErr != nil {
				return applyErr
			}
			entry = created
			return nil
		})
		if err == nil {
			return entry, nil
		}
		if errors.Is(err, wallets.ErrVersionConflict) {
			continue
		}
		return nil, err
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet is contended, retry the entry").
		WithDetails(map[string]any{"vendor_id": input.VendorID.String()})
}

// ApplyEntryTx runs the read-validate-apply span inside the caller's
// transaction. Callers own retry semantics: a wallets.ErrVersionConflict
// means the whole transaction must be replayed against fresh state.
func (s *service) ApplyEntryTx(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}

	walletRepo := s.wallets.WithTx(tx)
	wallet, err := walletRepo.FindByVendorID(ctx, input.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeWalletNotFound, "vendor wallet not provisioned").
				WithDetails(map[string]any{"vendor_id": input.VendorID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	if err := applyToWallet(wallet, input.BalanceStatus, input.VendorAmount); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		ID:               uuid.New(),
		VendorID:         input.VendorID,
		WalletID:         wallet.ID,
		OrderID:          input.OrderID,
		EntryType:        input.EntryType,
		BalanceStatus:    input.BalanceStatus,
		Amount:           input.Amount,
		VendorAmount:     input.VendorAmount,
		CommissionAmount: input.CommissionAmount,
		VATAmount:        input.VATAmount,
		Description:      input.Description,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	if err := walletRepo.UpdateBalances(ctx, wallet); err != nil {
		// ErrVersionConflict passes through untouched so callers can retry.
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventLedgerEntryRecorded,
		AggregateType: enums.AggregateLedgerEntry,
		AggregateID:   entry.ID,
		Actor:         input.Actor,
		Version:       1,
		Data: EntryRecordedEvent{
			EntryID:          entry.ID,
			WalletID:         wallet.ID,
			VendorID:         entry.VendorID,
			OrderID:          entry.OrderID,
			EntryType:        entry.EntryType,
			BalanceStatus:    entry.BalanceStatus,
			Amount:           entry.Amount,
			VendorAmount:     entry.VendorAmount,
			PendingBalance:   wallet.PendingBalance,
			AvailableBalance: wallet.AvailableBalance,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue ledger event")
	}
	return entry, nil
}

func (s *service) Statement(ctx context.Context, params StatementParams) (*StatementResult, error) {
	if params.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	query := listEntriesParams{
		VendorID:      params.VendorID,
		Limit:         params.Limit,
		EntryType:     params.EntryType,
		BalanceStatus: params.BalanceStatus,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListByVendorID(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &StatementResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) EntriesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	entries, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order entries")
	}
	return entries, nil
}

func validateEntryInput(input RecordEntryInput) error {
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if !input.EntryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid entry type").
			WithDetails(map[string]any{"entry_type": string(input.EntryType)})
	}
	if !input.BalanceStatus.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid balance status").
			WithDetails(map[string]any{"balance_status": string(input.BalanceStatus)})
	}
	if input.Amount.IsZero() && input.VendorAmount.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "entry amount required")
	}
	if input.OrderID != nil && *input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id must not be empty when provided")
	}
	return nil
}

// applyToWallet mutates the in-memory wallet per the balance status rules.
// Pending and available credits accrue lifetime earnings when positive;
// withdrawals debit the available bucket by their magnitude and accrue
// lifetime payouts. Driving either spendable bucket negative aborts the
// application before anything is persisted.
func applyToWallet(wallet *models.VendorWallet, status enums.BalanceStatus, vendorAmount decimal.Decimal) error {
	switch status {
	case enums.BalanceStatusPending:
		wallet.PendingBalance = wallet.PendingBalance.Add(vendorAmount)
		if vendorAmount.IsPositive() {
			wallet.LifetimeEarnings = wallet.LifetimeEarnings.Add(vendorAmount)
		}
	case enums.BalanceStatusAvailable:
		wallet.AvailableBalance = wallet.AvailableBalance.Add(vendorAmount)
		if vendorAmount.IsPositive() {
			wallet.LifetimeEarnings = wallet.LifetimeEarnings.Add(vendorAmount)
		}
	case enums.BalanceStatusWithdrawn:
		debit := vendorAmount.Abs()
		wallet.AvailableBalance = wallet.AvailableBalance.Sub(debit)
		wallet.LifetimePayouts = wallet.LifetimePayouts.Add(debit)
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid balance status").
			WithDetails(map[string]any{"balance_status": string(status)})
	}

	if wallet.PendingBalance.IsNegative() || wallet.AvailableBalance.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeNegativeBalance, "entry would drive wallet balance negative").
			WithDetails(map[string]any{
				"wallet_id":         wallet.ID.String(),
				"pending_balance":   wallet.PendingBalance.String(),
				"available_balance": wallet.AvailableBalance.String(),
			})
	}
	return nil
}
