package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/enums"
)

// WalletProvisionedEvent announces a newly opened vendor wallet.
type WalletProvisionedEvent struct {
	WalletID uuid.UUID      `json:"wallet_id"`
	VendorID uuid.UUID      `json:"vendor_id"`
	Currency enums.Currency `json:"currency"`
}

// LedgerEntryRecordedEvent carries an applied ledger entry and the wallet
// balances that resulted from it.
type LedgerEntryRecordedEvent struct {
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

// EscrowHoldCreatedEvent is emitted when delivered funds enter escrow.
type EscrowHoldCreatedEvent struct {
	HoldID      uuid.UUID       `json:"hold_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
	DeliveredAt time.Time       `json:"delivered_at"`
	ReleaseAt   time.Time       `json:"release_at"`
}

// EscrowHoldReleasedEvent is emitted when held funds become available.
type EscrowHoldReleasedEvent struct {
	HoldID     uuid.UUID       `json:"hold_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	VendorID   uuid.UUID       `json:"vendor_id"`
	Amount     decimal.Decimal `json:"amount"`
	EntryID    uuid.UUID       `json:"entry_id"`
	ReleasedAt time.Time       `json:"released_at"`
}

// PayoutRecordedEvent is emitted when a withdrawal is debited from a wallet.
type PayoutRecordedEvent struct {
	EntryID          uuid.UUID       `json:"entry_id"`
	WalletID         uuid.UUID       `json:"wallet_id"`
	VendorID         uuid.UUID       `json:"vendor_id"`
	Amount           decimal.Decimal `json:"amount"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// PriceDeviationFlaggedEvent signals a proposed price straying too far from
// its market benchmark.
type PriceDeviationFlaggedEvent struct {
	ProductID      uuid.UUID       `json:"product_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	ProposedPrice  decimal.Decimal `json:"proposed_price"`
	BenchmarkPrice decimal.Decimal `json:"benchmark_price"`
	DeviationRatio decimal.Decimal `json:"deviation_ratio"`
	Threshold      decimal.Decimal `json:"threshold"`
}
