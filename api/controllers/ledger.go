package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	ledgersvc "github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
)

// LedgerService describes the ledger methods used by the HTTP controllers.
type LedgerService interface {
	RecordEntry(ctx context.Context, input ledgersvc.RecordEntryInput) (*models.LedgerEntry, error)
	EntriesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error)
}

type ledgerEntryCreateRequest struct {
	VendorID         string          `json:"vendor_id"`
	OrderID          string          `json:"order_id,omitempty"`
	EntryType        string          `json:"entry_type"`
	BalanceStatus    string          `json:"balance_status"`
	Amount           decimal.Decimal `json:"amount"`
	VendorAmount     decimal.Decimal `json:"vendor_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	Description      string          `json:"description,omitempty"`
}

type ledgerEntryResponse struct {
	ID               string  `json:"id"`
	VendorID         string  `json:"vendor_id"`
	WalletID         string  `json:"wallet_id"`
	OrderID          *string `json:"order_id,omitempty"`
	EntryType        string  `json:"entry_type"`
	BalanceStatus    string  `json:"balance_status"`
	Amount           string  `json:"amount"`
	VendorAmount     string  `json:"vendor_amount"`
	CommissionAmount string  `json:"commission_amount"`
	VATAmount        string  `json:"vat_amount"`
	Description      string  `json:"description"`
	CreatedAt        string  `json:"created_at"`
}

func LedgerEntryCreate(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var payload ledgerEntryCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}

		entryType, err := enums.ParseLedgerEntryType(strings.TrimSpace(payload.EntryType))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry_type"))
			return
		}
		balanceStatus, err := enums.ParseBalanceStatus(strings.TrimSpace(payload.BalanceStatus))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid balance_status"))
			return
		}

		input := ledgersvc.RecordEntryInput{
			VendorID:         vendorID,
			EntryType:        entryType,
			BalanceStatus:    balanceStatus,
			Amount:           payload.Amount,
			VendorAmount:     payload.VendorAmount,
			CommissionAmount: payload.CommissionAmount,
			VATAmount:        payload.VATAmount,
			Description:      strings.TrimSpace(payload.Description),
			Actor:            &outbox.ActorRef{VendorID: &vendorID},
		}

		if orderParam := strings.TrimSpace(payload.OrderID); orderParam != "" {
			orderID, parseErr := uuid.Parse(orderParam)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid order_id"))
				return
			}
			input.OrderID = &orderID
		}

		entry, err := svc.RecordEntry(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, entryToResponse(entry))
	}
}

// LedgerOrderEntries serves every entry linked to one order, including the
// offsetting corrections appended after the original postings.
func LedgerOrderEntries(svc LedgerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "orderID"))
		if raw == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}
		orderID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		entries, err := svc.EntriesByOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items := make([]ledgerEntryResponse, 0, len(entries))
		for i := range entries {
			items = append(items, entryToResponse(&entries[i]))
		}
		responses.WriteSuccess(w, orderEntriesResponse{Entries: items})
	}
}

type orderEntriesResponse struct {
	Entries []ledgerEntryResponse `json:"entries"`
}

func entryToResponse(entry *models.LedgerEntry) ledgerEntryResponse {
	resp := ledgerEntryResponse{
		ID:               entry.ID.String(),
		VendorID:         entry.VendorID.String(),
		WalletID:         entry.WalletID.String(),
		EntryType:        string(entry.EntryType),
		BalanceStatus:    string(entry.BalanceStatus),
		Amount:           entry.Amount.StringFixed(2),
		VendorAmount:     entry.VendorAmount.StringFixed(2),
		CommissionAmount: entry.CommissionAmount.StringFixed(2),
		VATAmount:        entry.VATAmount.StringFixed(2),
		Description:      entry.Description,
		CreatedAt:        entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.OrderID != nil {
		orderID := entry.OrderID.String()
		resp.OrderID = &orderID
	}
	return resp
}
