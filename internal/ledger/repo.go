package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	"github.com/hirfahq/hirfa-backend/pkg/pagination"
)

// Repository persists append-only ledger entries. Entries are never updated
// or deleted; corrections are modeled as offsetting entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.LedgerEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error)
	ListByVendorID(ctx context.Context, params listEntriesParams) ([]models.LedgerEntry, *pagination.Cursor, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
	SummarizeByWallet(ctx context.Context, walletID uuid.UUID) (BalanceSummary, error)
}

type listEntriesParams struct {
	VendorID      uuid.UUID
	Limit         int
	Cursor        *pagination.Cursor
	EntryType     *enums.LedgerEntryType
	BalanceStatus *enums.BalanceStatus
}

// BalanceSummary is the wallet state recomputed from the ledger alone. The
// reconciliation worker compares it against the stored wallet row.
type BalanceSummary struct {
	Pending   decimal.Decimal
	Available decimal.Decimal
	Earnings  decimal.Decimal
	Payouts   decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByVendorID(ctx context.Context, params listEntriesParams) ([]models.LedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).Where("vendor_id = ?", params.VendorID)
	if params.EntryType != nil {
		query = query.Where("entry_type = ?", *params.EntryType)
	}
	if params.BalanceStatus != nil {
		query = query.Where("balance_status = ?", *params.BalanceStatus)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.LedgerEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		entries = entries[:normalized]
		last := entries[len(entries)-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type balanceSummaryRow struct {
	Pending          decimal.Decimal
	AvailableCredits decimal.Decimal
	Withdrawn        decimal.Decimal
	Earnings         decimal.Decimal
}

// SummarizeByWallet recomputes balance aggregates from the entries of one
// wallet. Withdrawals are stored signed, so their magnitude is folded in with
// ABS the same way the accountant applies them.
func (r *repository) SummarizeByWallet(ctx context.Context, walletID uuid.UUID) (BalanceSummary, error) {
	var row balanceSummaryRow
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select(`
COALESCE(SUM(CASE WHEN balance_status = 'pending' THEN vendor_amount ELSE 0 END), 0) AS pending,
COALESCE(SUM(CASE WHEN balance_status = 'available' THEN vendor_amount ELSE 0 END), 0) AS available_credits,
COALESCE(SUM(CASE WHEN balance_status = 'withdrawn' THEN ABS(vendor_amount) ELSE 0 END), 0) AS withdrawn,
COALESCE(SUM(CASE WHEN balance_status IN ('pending', 'available') AND vendor_amount > 0 THEN vendor_amount ELSE 0 END), 0) AS earnings`).
		Where("wallet_id = ?", walletID).
		Scan(&row).Error
	if err != nil {
		return BalanceSummary{}, err
	}
	return BalanceSummary{
		Pending:   row.Pending,
		Available: row.AvailableCredits.Sub(row.Withdrawn),
		Earnings:  row.Earnings,
		Payouts:   row.Withdrawn,
	}, nil
}
