package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	deviationsvc "github.com/hirfahq/hirfa-backend/internal/deviation"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
)

// DeviationService describes the price moderation methods used by the HTTP
// controllers.
type DeviationService interface {
	CheckDeviation(ctx context.Context, input deviationsvc.CheckInput) (*deviationsvc.Result, error)
	FlagIfDeviant(ctx context.Context, input deviationsvc.FlagInput) (*deviationsvc.Result, error)
}

// A check with both product_id and vendor_id flags breaches for moderation;
// without them the check is advisory and records nothing.
type deviationCheckRequest struct {
	ProposedPrice  decimal.Decimal  `json:"proposed_price"`
	BenchmarkPrice decimal.Decimal  `json:"benchmark_price"`
	Threshold      *decimal.Decimal `json:"threshold,omitempty"`
	ProductID      string           `json:"product_id,omitempty"`
	VendorID       string           `json:"vendor_id,omitempty"`
}

type deviationCheckResponse struct {
	ProposedPrice  string `json:"proposed_price"`
	BenchmarkPrice string `json:"benchmark_price"`
	Deviation      string `json:"deviation"`
	Threshold      string `json:"threshold"`
	Flagged        bool   `json:"flagged"`
}

func DeviationCheck(svc DeviationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deviation service unavailable"))
			return
		}

		var payload deviationCheckRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		check := deviationsvc.CheckInput{
			ProposedPrice:  payload.ProposedPrice,
			BenchmarkPrice: payload.BenchmarkPrice,
			Threshold:      payload.Threshold,
		}

		var result *deviationsvc.Result
		var err error
		if payload.ProductID != "" || payload.VendorID != "" {
			productID, parseErr := uuid.Parse(payload.ProductID)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid product_id"))
				return
			}
			vendorID, parseErr := uuid.Parse(payload.VendorID)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid vendor_id"))
				return
			}
			result, err = svc.FlagIfDeviant(ctx, deviationsvc.FlagInput{
				CheckInput: check,
				ProductID:  productID,
				VendorID:   vendorID,
			})
		} else {
			result, err = svc.CheckDeviation(ctx, check)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, deviationCheckResponse{
			ProposedPrice:  result.ProposedPrice.StringFixed(2),
			BenchmarkPrice: result.BenchmarkPrice.StringFixed(2),
			Deviation:      result.Deviation.String(),
			Threshold:      result.Threshold.String(),
			Flagged:        result.Flagged,
		})
	}
}
