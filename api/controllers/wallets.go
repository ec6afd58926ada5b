package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	ledgersvc "github.com/hirfahq/hirfa-backend/internal/ledger"
	walletsvc "github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
)

// WalletService describes the wallet methods used by the HTTP controllers.
type WalletService interface {
	Provision(ctx context.Context, input walletsvc.ProvisionInput) (*models.VendorWallet, error)
	GetByVendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
}

// StatementService serves a wallet's ledger history.
type StatementService interface {
	Statement(ctx context.Context, params ledgersvc.StatementParams) (*ledgersvc.StatementResult, error)
}

type walletProvisionRequest struct {
	VendorID string `json:"vendor_id"`
	Currency string `json:"currency,omitempty"`
}

type walletResponse struct {
	ID               string `json:"id"`
	VendorID         string `json:"vendor_id"`
	Currency         string `json:"currency"`
	PendingBalance   string `json:"pending_balance"`
	AvailableBalance string `json:"available_balance"`
	LifetimeEarnings string `json:"lifetime_earnings"`
	LifetimePayouts  string `json:"lifetime_payouts"`
	Version          int64  `json:"version"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type statementResponse struct {
	Entries []ledgerEntryResponse `json:"entries"`
	Cursor  string                `json:"cursor,omitempty"`
}

func WalletProvision(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		var payload walletProvisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(strings.TrimSpace(payload.VendorID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
			return
		}

		input := walletsvc.ProvisionInput{VendorID: vendorID}
		if currencyParam := strings.TrimSpace(payload.Currency); currencyParam != "" {
			currency, parseErr := enums.ParseCurrency(currencyParam)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid currency"))
				return
			}
			input.Currency = currency
		}

		wallet, err := svc.Provision(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, walletToResponse(wallet))
	}
}

func WalletDetail(svc WalletService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}

		vendorID, err := vendorIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		wallet, err := svc.GetByVendor(ctx, vendorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, walletToResponse(wallet))
	}
}

func WalletStatement(svc StatementService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		vendorID, err := vendorIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := ledgersvc.StatementParams{
			VendorID: vendorID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if typeParam := strings.TrimSpace(r.URL.Query().Get("entry_type")); typeParam != "" {
			entryType, parseErr := enums.ParseLedgerEntryType(typeParam)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid entry_type"))
				return
			}
			params.EntryType = &entryType
		}
		if statusParam := strings.TrimSpace(r.URL.Query().Get("balance_status")); statusParam != "" {
			status, parseErr := enums.ParseBalanceStatus(statusParam)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid balance_status"))
				return
			}
			params.BalanceStatus = &status
		}

		page, err := svc.Statement(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		entries := make([]ledgerEntryResponse, 0, len(page.Items))
		for i := range page.Items {
			entries = append(entries, entryToResponse(&page.Items[i]))
		}

		responses.WriteSuccess(w, statementResponse{Entries: entries, Cursor: page.Cursor})
	}
}

func vendorIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "vendorID"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id is required")
	}
	vendorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id")
	}
	return vendorID, nil
}

func walletToResponse(wallet *models.VendorWallet) walletResponse {
	return walletResponse{
		ID:               wallet.ID.String(),
		VendorID:         wallet.VendorID.String(),
		Currency:         string(wallet.Currency),
		PendingBalance:   wallet.PendingBalance.StringFixed(2),
		AvailableBalance: wallet.AvailableBalance.StringFixed(2),
		LifetimeEarnings: wallet.LifetimeEarnings.StringFixed(2),
		LifetimePayouts:  wallet.LifetimePayouts.StringFixed(2),
		Version:          wallet.Version,
		CreatedAt:        wallet.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        wallet.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
