package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	"github.com/hirfahq/hirfa-backend/pkg/pagination"
)

// ErrAlreadyReleased signals that a hold was released by an earlier run and
// the conditional status flip matched no row.
var ErrAlreadyReleased = errors.New("escrow hold already released")

type listHoldsParams struct {
	VendorID uuid.UUID
	Limit    int
	Cursor   *pagination.Cursor
	Status   *enums.EscrowHoldStatus
}

// Repository persists escrow holds.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, hold *models.EscrowHold) error
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowHold, error)
	FindDue(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowHold, error)
	MarkReleased(ctx context.Context, hold *models.EscrowHold, releasedAt time.Time) error
	ListByVendorID(ctx context.Context, params listHoldsParams) ([]models.EscrowHold, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an escrow hold repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, hold *models.EscrowHold) error {
	return r.db.WithContext(ctx).Create(hold).Error
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.EscrowHold, error) {
	var hold models.EscrowHold
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

// FindDue returns held rows whose release date has passed, oldest first so a
// backlog drains in release order.
func (r *repository) FindDue(ctx context.Context, cutoff time.Time, limit int) ([]models.EscrowHold, error) {
	var holds []models.EscrowHold
	query := r.db.WithContext(ctx).
		Where("status = ?", enums.EscrowHoldStatusHeld).
		Where("release_at <= ?", cutoff).
		Order("release_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&holds).Error; err != nil {
		return nil, err
	}
	return holds, nil
}

// MarkReleased flips the hold to released only when it is still held, so two
// racing release runs cannot both credit the wallet.
func (r *repository) MarkReleased(ctx context.Context, hold *models.EscrowHold, releasedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.EscrowHold{}).
		Where("id = ? AND status = ?", hold.ID, enums.EscrowHoldStatusHeld).
		Updates(map[string]any{
			"status":      enums.EscrowHoldStatusReleased,
			"released_at": releasedAt,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyReleased
	}
	hold.Status = enums.EscrowHoldStatusReleased
	hold.ReleasedAt = &releasedAt
	return nil
}

func (r *repository) ListByVendorID(ctx context.Context, params listHoldsParams) ([]models.EscrowHold, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", params.VendorID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var holds []models.EscrowHold
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(limit)).Find(&holds).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(holds) > limit {
		holds = holds[:limit]
		last := holds[len(holds)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return holds, next, nil
}
