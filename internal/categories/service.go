package categories

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/hirfahq/hirfa-backend/pkg/db"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the category catalogue that pricing resolves commission
// rates from. Slugs are normalized to lowercase so lookups are spelled the
// same everywhere.
type Service interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	Upsert(ctx context.Context, input UpsertCategoryInput) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// UpsertCategoryInput creates a category or retunes an existing one's
// commission configuration, keyed by slug.
type UpsertCategoryInput struct {
	Slug              string
	Name              string
	DefaultUpliftRate decimal.Decimal
}

// NewService wires a category service with the provided dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "category repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// FindBySlug returns nil when the slug is unknown. Pricing treats that as a
// validation failure rather than falling back to a default rate.
func (s *service) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	normalized := normalizeSlug(slug)
	if normalized == "" {
		return nil, nil
	}
	category, err := s.repo.FindBySlug(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
	}
	return category, nil
}

func (s *service) Upsert(ctx context.Context, input UpsertCategoryInput) (*models.Category, error) {
	slug := normalizeSlug(input.Slug)
	name := strings.TrimSpace(input.Name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category slug required")
	}
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name required")
	}
	if input.DefaultUpliftRate.IsNegative() || input.DefaultUpliftRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default uplift rate must be in [0, 1)").
			WithDetails(map[string]any{"default_uplift_rate": input.DefaultUpliftRate.String()})
	}

	var result *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindBySlug(ctx, slug)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load category")
		}
		if existing != nil {
			existing.Name = name
			existing.DefaultUpliftRate = input.DefaultUpliftRate
			if err := repo.Update(ctx, existing); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update category")
			}
			result = existing
			return nil
		}
		category := &models.Category{
			ID:                uuid.New(),
			Slug:              slug,
			Name:              name,
			DefaultUpliftRate: input.DefaultUpliftRate,
		}
		if err := repo.Create(ctx, category); err != nil {
			return err
		}
		result = category
		return nil
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_categories_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category was created concurrently, retry").
				WithDetails(map[string]any{"slug": slug})
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert category")
	}
	return result, nil
}

func (s *service) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return categories, nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
