package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/db/models"
)

func setupCategoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  slug TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  default_uplift_rate NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func seedCategory(t *testing.T, repo Repository, slug, name, rate string) *models.Category {
	t.Helper()
	category := &models.Category{
		ID:                uuid.New(),
		Slug:              slug,
		Name:              name,
		DefaultUpliftRate: decimal.RequireFromString(rate),
	}
	require.NoError(t, repo.Create(context.Background(), category))
	return category
}

func TestRepository_CreateAndFindBySlug(t *testing.T) {
	repo := NewRepository(setupCategoryTestDB(t))
	ctx := context.Background()

	seeded := seedCategory(t, repo, "handmade-rugs", "Handmade Rugs", "0.25")

	found, err := repo.FindBySlug(ctx, "handmade-rugs")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, seeded.ID, found.ID)
	assert.True(t, found.DefaultUpliftRate.Equal(decimal.RequireFromString("0.25")))

	missing, err := repo.FindBySlug(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_CreateRejectsDuplicateSlug(t *testing.T) {
	repo := NewRepository(setupCategoryTestDB(t))
	ctx := context.Background()

	seedCategory(t, repo, "ceramics", "Ceramics", "0.15")

	err := repo.Create(ctx, &models.Category{
		ID:                uuid.New(),
		Slug:              "ceramics",
		Name:              "Ceramics Again",
		DefaultUpliftRate: decimal.RequireFromString("0.10"),
	})
	assert.Error(t, err)
}

func TestRepository_UpdatePersistsRateChange(t *testing.T) {
	repo := NewRepository(setupCategoryTestDB(t))
	ctx := context.Background()

	category := seedCategory(t, repo, "jewelry", "Jewelry", "0.20")

	category.Name = "Jewelry & Accessories"
	category.DefaultUpliftRate = decimal.RequireFromString("0.22")
	require.NoError(t, repo.Update(ctx, category))

	found, err := repo.FindBySlug(ctx, "jewelry")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Jewelry & Accessories", found.Name)
	assert.True(t, found.DefaultUpliftRate.Equal(decimal.RequireFromString("0.22")))
}

func TestRepository_ListOrdersBySlug(t *testing.T) {
	repo := NewRepository(setupCategoryTestDB(t))
	ctx := context.Background()

	seedCategory(t, repo, "woodwork", "Woodwork", "0.12")
	seedCategory(t, repo, "ceramics", "Ceramics", "0.15")
	seedCategory(t, repo, "leather", "Leather Goods", "0.18")

	categories, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "ceramics", categories[0].Slug)
	assert.Equal(t, "leather", categories[1].Slug)
	assert.Equal(t, "woodwork", categories[2].Slug)
}
