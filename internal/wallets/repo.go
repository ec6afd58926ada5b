package wallets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/db/models"
)

// ErrVersionConflict signals that a concurrent writer advanced the wallet
// version between read and update. Callers retry with fresh state.
var ErrVersionConflict = errors.New("wallet version conflict")

// Repository manages persistence for vendor wallets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.VendorWallet) error
	FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
	UpdateBalances(ctx context.Context, wallet *models.VendorWallet) error
	List(ctx context.Context, limit, offset int) ([]models.VendorWallet, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.VendorWallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) FindByVendorID(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error) {
	var wallet models.VendorWallet
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		First(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// UpdateBalances writes the wallet's balance columns guarded by the version
// token. The row is only touched when the stored version still matches the
// one the caller read; otherwise ErrVersionConflict is returned and no state
// changes.
func (r *repository) UpdateBalances(ctx context.Context, wallet *models.VendorWallet) error {
	result := r.db.WithContext(ctx).
		Model(&models.VendorWallet{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]any{
			"pending_balance":   wallet.PendingBalance,
			"available_balance": wallet.AvailableBalance,
			"lifetime_earnings": wallet.LifetimeEarnings,
			"lifetime_payouts":  wallet.LifetimePayouts,
			"version":           wallet.Version + 1,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	wallet.Version++
	return nil
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.VendorWallet, error) {
	var rows []models.VendorWallet
	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
