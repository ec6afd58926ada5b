package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category holds the marketplace commission configuration for a product
// category. DefaultUpliftRate is the fraction applied when a pricing input
// carries no manual override.
type Category struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug              string          `gorm:"column:slug;not null;uniqueIndex:ux_categories_slug"`
	Name              string          `gorm:"column:name;not null"`
	DefaultUpliftRate decimal.Decimal `gorm:"column:default_uplift_rate;type:numeric(6,4);not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
