package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/enums"
)

// VendorWallet is the single mutable financial record per vendor. Balances
// are only ever changed through ledger entries; Version is the optimistic
// concurrency token checked on every balance update.
type VendorWallet struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID         uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_wallets_vendor_id"`
	Currency         enums.Currency  `gorm:"column:currency;not null;default:EGP"`
	PendingBalance   decimal.Decimal `gorm:"column:pending_balance;type:numeric(14,2);not null;default:0"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(14,2);not null;default:0"`
	LifetimeEarnings decimal.Decimal `gorm:"column:lifetime_earnings;type:numeric(14,2);not null;default:0"`
	LifetimePayouts  decimal.Decimal `gorm:"column:lifetime_payouts;type:numeric(14,2);not null;default:0"`
	Version          int64           `gorm:"column:version;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IdentityDelta reports how far the wallet drifts from the accounting
// identity lifetime_earnings - lifetime_payouts == pending + available.
// Zero means the books balance.
func (w VendorWallet) IdentityDelta() decimal.Decimal {
	return w.LifetimeEarnings.Sub(w.LifetimePayouts).
		Sub(w.PendingBalance.Add(w.AvailableBalance))
}
