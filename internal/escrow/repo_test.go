package escrow

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

func setupEscrowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS escrow_holds (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  ledger_entry_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  delivered_at DATETIME NOT NULL,
  release_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'held',
  released_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedHold(t *testing.T, repo Repository, vendorID uuid.UUID, status enums.EscrowHoldStatus, releaseAt, createdAt time.Time) *models.EscrowHold {
	t.Helper()
	hold := &models.EscrowHold{
		ID:            uuid.New(),
		VendorID:      vendorID,
		OrderID:       uuid.New(),
		LedgerEntryID: uuid.New(),
		Amount:        decimal.NewFromInt(200),
		DeliveredAt:   releaseAt.Add(-14 * 24 * time.Hour),
		ReleaseAt:     releaseAt,
		Status:        status,
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), hold))
	return hold
}

func TestRepository_CreateAndFindByOrderID(t *testing.T) {
	db := setupEscrowTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	releaseAt := time.Date(2026, 5, 15, 10, 0, 0, 0, time.UTC)
	hold := seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, releaseAt, releaseAt.Add(-14*24*time.Hour))

	found, err := repo.FindByOrderID(ctx, hold.OrderID)
	require.NoError(t, err)
	assert.Equal(t, hold.ID, found.ID)
	assert.Equal(t, enums.EscrowHoldStatusHeld, found.Status)
	assert.True(t, found.Amount.Equal(decimal.NewFromInt(200)))

	_, err = repo.FindByOrderID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// One hold per order.
	dup := *hold
	dup.ID = uuid.New()
	assert.Error(t, repo.Create(ctx, &dup))
}

func TestRepository_FindDue(t *testing.T) {
	db := setupEscrowTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	older := seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, now.Add(-2*time.Hour), now.Add(-15*24*time.Hour))
	newer := seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, now.Add(-time.Hour), now.Add(-14*24*time.Hour))
	seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, now.Add(24*time.Hour), now)
	seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusReleased, now.Add(-3*time.Hour), now.Add(-16*24*time.Hour))

	due, err := repo.FindDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, older.ID, due[0].ID)
	assert.Equal(t, newer.ID, due[1].ID)

	limited, err := repo.FindDue(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, older.ID, limited[0].ID)
}

func TestRepository_MarkReleasedIsConditional(t *testing.T) {
	db := setupEscrowTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	hold := seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, now.Add(-time.Hour), now.Add(-14*24*time.Hour))

	require.NoError(t, repo.MarkReleased(ctx, hold, now))
	assert.Equal(t, enums.EscrowHoldStatusReleased, hold.Status)
	require.NotNil(t, hold.ReleasedAt)

	reloaded, err := repo.FindByOrderID(ctx, hold.OrderID)
	require.NoError(t, err)
	assert.Equal(t, enums.EscrowHoldStatusReleased, reloaded.Status)
	require.NotNil(t, reloaded.ReleasedAt)

	// A second run must not re-release.
	err = repo.MarkReleased(ctx, hold, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyReleased)

	unchanged, err := repo.FindByOrderID(ctx, hold.OrderID)
	require.NoError(t, err)
	assert.True(t, unchanged.ReleasedAt.Equal(now), "released_at = %s, want %s", unchanged.ReleasedAt, now)
}

func TestRepository_ListByVendorIDPaginates(t *testing.T) {
	db := setupEscrowTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	vendorID := uuid.New()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedHold(t, repo, vendorID, enums.EscrowHoldStatusReleased, base.Add(14*24*time.Hour), base.Add(-2*time.Hour))
	middle := seedHold(t, repo, vendorID, enums.EscrowHoldStatusHeld, base.Add(14*24*time.Hour), base.Add(-time.Hour))
	newest := seedHold(t, repo, vendorID, enums.EscrowHoldStatusHeld, base.Add(14*24*time.Hour), base)
	seedHold(t, repo, uuid.New(), enums.EscrowHoldStatusHeld, base.Add(14*24*time.Hour), base)

	page, next, err := repo.ListByVendorID(ctx, listHoldsParams{VendorID: vendorID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest.ID, page[0].ID)
	assert.Equal(t, middle.ID, page[1].ID)
	require.NotNil(t, next)

	rest, last, err := repo.ListByVendorID(ctx, listHoldsParams{VendorID: vendorID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, oldest.ID, rest[0].ID)
	assert.Nil(t, last)

	held := enums.EscrowHoldStatusHeld
	heldOnly, _, err := repo.ListByVendorID(ctx, listHoldsParams{VendorID: vendorID, Limit: 10, Status: &held})
	require.NoError(t, err)
	require.Len(t, heldOnly, 2)
}
