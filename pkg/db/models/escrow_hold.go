package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/enums"
)

// EscrowHold tracks delivered-order funds through the dispute window. Status
// records whether the release worker has credited the available bucket;
// release *eligibility* is always recomputed from the clock, never stored.
type EscrowHold struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	OrderID       uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_escrow_holds_order_id"`
	LedgerEntryID uuid.UUID              `gorm:"column:ledger_entry_id;type:uuid;not null"`
	Amount        decimal.Decimal        `gorm:"column:amount;type:numeric(14,2);not null"`
	DeliveredAt   time.Time              `gorm:"column:delivered_at;not null"`
	ReleaseAt     time.Time              `gorm:"column:release_at;not null;index"`
	Status        enums.EscrowHoldStatus `gorm:"column:status;type:escrow_hold_status_enum;not null;default:held"`
	ReleasedAt    *time.Time             `gorm:"column:released_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
