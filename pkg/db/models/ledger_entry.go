package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/enums"
)

// LedgerEntry records an immutable financial event against a vendor wallet.
// Rows are append-only: corrections are written as offsetting entries, never
// as updates to history.
type LedgerEntry struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID             `gorm:"column:vendor_id;type:uuid;not null;index"`
	WalletID         uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;index"`
	OrderID          *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	EntryType        enums.LedgerEntryType `gorm:"column:entry_type;type:ledger_entry_type_enum;not null"`
	BalanceStatus    enums.BalanceStatus   `gorm:"column:balance_status;type:balance_status_enum;not null"`
	Amount           decimal.Decimal       `gorm:"column:amount;type:numeric(14,2);not null"`
	VendorAmount     decimal.Decimal       `gorm:"column:vendor_amount;type:numeric(14,2);not null"`
	CommissionAmount decimal.Decimal       `gorm:"column:commission_amount;type:numeric(14,2);not null;default:0"`
	VATAmount        decimal.Decimal       `gorm:"column:vat_amount;type:numeric(14,2);not null;default:0"`
	Description      string                `gorm:"column:description;not null"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}
