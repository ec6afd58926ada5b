package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	categorysvc "github.com/hirfahq/hirfa-backend/internal/categories"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
)

// CategoryService describes the category methods used by the HTTP controllers.
type CategoryService interface {
	List(ctx context.Context) ([]models.Category, error)
	Upsert(ctx context.Context, input categorysvc.UpsertCategoryInput) (*models.Category, error)
}

type categoryUpsertRequest struct {
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	DefaultUpliftRate decimal.Decimal `json:"default_uplift_rate"`
}

type categoryResponse struct {
	ID                string `json:"id"`
	Slug              string `json:"slug"`
	Name              string `json:"name"`
	DefaultUpliftRate string `json:"default_uplift_rate"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
}

func CategoriesList(svc CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categories, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result := make([]categoryResponse, 0, len(categories))
		for i := range categories {
			result = append(result, categoryToResponse(&categories[i]))
		}

		responses.WriteSuccess(w, categoryListResponse{Categories: result})
	}
}

func CategoryUpsert(svc CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var payload categoryUpsertRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		category, err := svc.Upsert(ctx, categorysvc.UpsertCategoryInput{
			Slug:              payload.Slug,
			Name:              validators.SanitizeString(payload.Name, 120),
			DefaultUpliftRate: payload.DefaultUpliftRate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, categoryToResponse(category))
	}
}

func categoryToResponse(category *models.Category) categoryResponse {
	return categoryResponse{
		ID:                category.ID.String(),
		Slug:              category.Slug,
		Name:              category.Name,
		DefaultUpliftRate: category.DefaultUpliftRate.String(),
		CreatedAt:         category.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         category.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
