package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	escrowsvc "github.com/hirfahq/hirfa-backend/internal/escrow"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
)

// EscrowService describes the escrow methods used by the HTTP controllers.
type EscrowService interface {
	ScheduleRelease(deliveredAt time.Time) (*escrowsvc.Schedule, error)
	OpenHold(ctx context.Context, input escrowsvc.OpenHoldInput) (*models.EscrowHold, error)
	ListByVendor(ctx context.Context, params escrowsvc.ListHoldsParams) (*escrowsvc.HoldListResult, error)
}

type escrowScheduleRequest struct {
	DeliveredAt time.Time `json:"delivered_at"`
}

type escrowScheduleResponse struct {
	DeliveredAt string `json:"delivered_at"`
	ReleaseAt   string `json:"release_at"`
	HoldDays    int    `json:"hold_days"`
	Released    bool   `json:"released"`
}

type escrowHoldCreateRequest struct {
	VendorID         string          `json:"vendor_id"`
	OrderID          string          `json:"order_id"`
	Amount           decimal.Decimal `json:"amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	DeliveredAt      time.Time       `json:"delivered_at"`
	Description      string          `json:"description,omitempty"`
}

type escrowHoldResponse struct {
	ID            string  `json:"id"`
	VendorID      string  `json:"vendor_id"`
	OrderID       string  `json:"order_id"`
	LedgerEntryID string  `json:"ledger_entry_id"`
	Amount        string  `json:"amount"`
	DeliveredAt   string  `json:"delivered_at"`
	ReleaseAt     string  `json:"release_at"`
	Status        string  `json:"status"`
	ReleasedAt    *string `json:"released_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type escrowHoldListResponse struct {
	Holds  []escrowHoldResponse `json:"holds"`
	Cursor string               `json:"cursor,omitempty"`
}

// EscrowSchedulePreview computes the release date for a delivery without
// persisting anything.
func EscrowSchedulePreview(svc EscrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		var payload escrowScheduleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		schedule, err := svc.ScheduleRelease(payload.DeliveredAt)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, escrowScheduleResponse{
			DeliveredAt: schedule.DeliveredAt.UTC().Format(time.RFC3339),
			ReleaseAt:   schedule.ReleaseAt.UTC().Format(time.RFC3339),
			HoldDays:    schedule.HoldDays,
			Released:    schedule.Released,
		})
	}
}

func EscrowHoldCreate(svc EscrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		var payload escrowHoldCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}
		orderID, err := uuid.Parse(strings.TrimSpace(payload.OrderID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id"))
			return
		}

		hold, err := svc.OpenHold(ctx, escrowsvc.OpenHoldInput{
			VendorID:         vendorID,
			OrderID:          orderID,
			Amount:           payload.Amount,
			CommissionAmount: payload.CommissionAmount,
			VATAmount:        payload.VATAmount,
			DeliveredAt:      payload.DeliveredAt,
			Description:      strings.TrimSpace(payload.Description),
			Actor:            &outbox.ActorRef{VendorID: &vendorID},
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, holdToResponse(hold))
	}
}

func EscrowHoldsList(svc EscrowService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		vendorID, err := validators.ParseQueryUUID(r, "vendor_id", true)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := escrowsvc.ListHoldsParams{
			VendorID: vendorID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
			status, parseErr := enums.ParseEscrowHoldStatus(statusParam)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			params.Status = &status
		}

		page, err := svc.ListByVendor(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		holds := make([]escrowHoldResponse, 0, len(page.Items))
		for i := range page.Items {
			holds = append(holds, holdToResponse(&page.Items[i]))
		}

		responses.WriteSuccess(w, escrowHoldListResponse{Holds: holds, Cursor: page.Cursor})
	}
}

func holdToResponse(hold *models.EscrowHold) escrowHoldResponse {
	resp := escrowHoldResponse{
		ID:            hold.ID.String(),
		VendorID:      hold.VendorID.String(),
		OrderID:       hold.OrderID.String(),
		LedgerEntryID: hold.LedgerEntryID.String(),
		Amount:        hold.Amount.StringFixed(2),
		DeliveredAt:   hold.DeliveredAt.UTC().Format(time.RFC3339),
		ReleaseAt:     hold.ReleaseAt.UTC().Format(time.RFC3339),
		Status:        string(hold.Status),
		CreatedAt:     hold.CreatedAt.UTC().Format(time.RFC3339),
	}
	if hold.ReleasedAt != nil {
		released := hold.ReleasedAt.UTC().Format(time.RFC3339)
		resp.ReleasedAt = &released
	}
	return resp
}
