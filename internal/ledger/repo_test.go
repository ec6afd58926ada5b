package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS ledger_entries (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  wallet_id TEXT NOT NULL,
  order_id TEXT,
  entry_type TEXT NOT NULL,
  balance_status TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  vendor_amount NUMERIC NOT NULL,
  commission_amount NUMERIC NOT NULL DEFAULT 0,
  vat_amount NUMERIC NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedEntry(t *testing.T, repo Repository, vendorID, walletID uuid.UUID, status enums.BalanceStatus, amount int64, createdAt time.Time) *models.LedgerEntry {
	t.Helper()
	entryType := enums.LedgerEntryTypeSale
	if status == enums.BalanceStatusWithdrawn {
		entryType = enums.LedgerEntryTypePayout
	}
	entry := &models.LedgerEntry{
		ID:            uuid.New(),
		VendorID:      vendorID,
		WalletID:      walletID,
		EntryType:     entryType,
		BalanceStatus: status,
		Amount:        decimal.NewFromInt(amount),
		VendorAmount:  decimal.NewFromInt(amount),
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	return entry
}

func TestRepository_CreateAndFindByID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	entry := &models.LedgerEntry{
		ID:               uuid.New(),
		VendorID:         uuid.New(),
		WalletID:         uuid.New(),
		OrderID:          &orderID,
		EntryType:        enums.LedgerEntryTypeSale,
		BalanceStatus:    enums.BalanceStatusPending,
		Amount:           decimal.NewFromInt(230),
		VendorAmount:     decimal.NewFromInt(200),
		CommissionAmount: decimal.NewFromInt(20),
		VATAmount:        decimal.NewFromInt(10),
		Description:      "delivered order",
	}
	require.NoError(t, repo.Create(ctx, entry))

	found, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.VendorID, found.VendorID)
	require.NotNil(t, found.OrderID)
	assert.Equal(t, orderID, *found.OrderID)
	assert.True(t, found.VendorAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, enums.BalanceStatusPending, found.BalanceStatus)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListByVendorIDPaginates(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	walletID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	oldest := seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusPending, 100, base.Add(-2*time.Hour))
	middle := seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusAvailable, 100, base.Add(-time.Hour))
	newest := seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusWithdrawn, -50, base)
	seedEntry(t, repo, uuid.New(), uuid.New(), enums.BalanceStatusPending, 999, base)

	page, next, err := repo.ListByVendorID(ctx, listEntriesParams{VendorID: vendorID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)
	require.NotNil(t, next)

	rest, last, err := repo.ListByVendorID(ctx, listEntriesParams{VendorID: vendorID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
	assert.Nil(t, last)
}

func TestRepository_ListByVendorIDFilters(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	walletID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusPending, 100, base.Add(-2*time.Hour))
	withdrawn := seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusWithdrawn, -50, base)

	status := enums.BalanceStatusWithdrawn
	page, _, err := repo.ListByVendorID(ctx, listEntriesParams{VendorID: vendorID, Limit: 10, BalanceStatus: &status})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, withdrawn.ID, page[0].ID)

	payout := enums.LedgerEntryTypePayout
	page, _, err = repo.ListByVendorID(ctx, listEntriesParams{VendorID: vendorID, Limit: 10, EntryType: &payout})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, withdrawn.ID, page[0].ID)
}

func TestRepository_ListByOrderID(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	vendorID := uuid.New()
	walletID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	first := &models.LedgerEntry{
		ID: uuid.New(), VendorID: vendorID, WalletID: walletID, OrderID: &orderID,
		EntryType: enums.LedgerEntryTypeSale, BalanceStatus: enums.BalanceStatusPending,
		Amount: decimal.NewFromInt(200), VendorAmount: decimal.NewFromInt(200), CreatedAt: base,
	}
	second := &models.LedgerEntry{
		ID: uuid.New(), VendorID: vendorID, WalletID: walletID, OrderID: &orderID,
		EntryType: enums.LedgerEntryTypeSale, BalanceStatus: enums.BalanceStatusAvailable,
		Amount: decimal.NewFromInt(200), VendorAmount: decimal.NewFromInt(200), CreatedAt: base.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	entries, err := repo.ListByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.ID, entries[0].ID)
	assert.Equal(t, second.ID, entries[1].ID)
}

func TestRepository_SummarizeByWallet(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	walletID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusPending, 200, base)
	seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusAvailable, 200, base.Add(time.Minute))
	seedEntry(t, repo, vendorID, walletID, enums.BalanceStatusWithdrawn, -150, base.Add(2*time.Minute))
	seedEntry(t, repo, uuid.New(), uuid.New(), enums.BalanceStatusPending, 999, base)

	summary, err := repo.SummarizeByWallet(ctx, walletID)
	require.NoError(t, err)
	assert.True(t, summary.Pending.Equal(decimal.NewFromInt(200)), "pending = %s", summary.Pending)
	assert.True(t, summary.Available.Equal(decimal.NewFromInt(50)), "available = %s", summary.Available)
	assert.True(t, summary.Earnings.Equal(decimal.NewFromInt(400)), "earnings = %s", summary.Earnings)
	assert.True(t, summary.Payouts.Equal(decimal.NewFromInt(150)), "payouts = %s", summary.Payouts)
}
