package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	payoutsvc "github.com/hirfahq/hirfa-backend/internal/payouts"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
)

// PayoutService describes the payout methods used by the HTTP controllers.
type PayoutService interface {
	RequestPayout(ctx context.Context, input payoutsvc.RequestPayoutInput) (*models.LedgerEntry, error)
}

type payoutCreateRequest struct {
	VendorID string          `json:"vendor_id"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

func PayoutCreate(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payout service unavailable"))
			return
		}

		var payload payoutCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}

		entry, err := svc.RequestPayout(ctx, payoutsvc.RequestPayoutInput{
			VendorID: vendorID,
			Amount:   payload.Amount,
			Note:     strings.TrimSpace(payload.Note),
			Actor:    &outbox.ActorRef{VendorID: &vendorID},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, entryToResponse(entry))
	}
}
