package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	payoutsvc "github.com/hirfahq/hirfa-backend/internal/payouts"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
)

type stubPayoutService struct {
	requested *payoutsvc.RequestPayoutInput
	entry     *models.LedgerEntry
	err       error
}

func (s *stubPayoutService) RequestPayout(ctx context.Context, input payoutsvc.RequestPayoutInput) (*models.LedgerEntry, error) {
	s.requested = &input
	return s.entry, s.err
}

func TestPayoutCreateMapsInput(t *testing.T) {
	vendorID := uuid.New()
	service := &stubPayoutService{
		entry: &models.LedgerEntry{
			ID:            uuid.New(),
			VendorID:      vendorID,
			WalletID:      uuid.New(),
			EntryType:     enums.LedgerEntryTypePayout,
			BalanceStatus: enums.BalanceStatusWithdrawn,
			Amount:        decimal.NewFromInt(-500),
			VendorAmount:  decimal.NewFromInt(-500),
			Description:   "vendor payout",
		},
	}

	body := `{"vendor_id":"` + vendorID.String() + `","amount":"500","note":"weekly withdrawal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PayoutCreate(service, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if service.requested == nil {
		t.Fatalf("expected RequestPayout to run")
	}
	if service.requested.VendorID != vendorID {
		t.Fatalf("expected vendor id, got %s", service.requested.VendorID)
	}
	if !service.requested.Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected amount 500, got %s", service.requested.Amount)
	}
	if service.requested.Note != "weekly withdrawal" {
		t.Fatalf("expected note, got %q", service.requested.Note)
	}
	if service.requested.Actor == nil || service.requested.Actor.VendorID == nil || *service.requested.Actor.VendorID != vendorID {
		t.Fatalf("expected actor vendor, got %+v", service.requested.Actor)
	}

	var envelope struct {
		Data ledgerEntryResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.EntryType != string(enums.LedgerEntryTypePayout) {
		t.Fatalf("expected payout entry, got %s", envelope.Data.EntryType)
	}
	if envelope.Data.Amount != "-500.00" {
		t.Fatalf("expected amount -500.00, got %s", envelope.Data.Amount)
	}
}

func TestPayoutCreateRejectsBadVendorID(t *testing.T) {
	service := &stubPayoutService{}
	body := `{"vendor_id":"not-a-uuid","amount":"500"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PayoutCreate(service, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if service.requested != nil {
		t.Fatalf("service should not run on invalid vendor id")
	}
}

func TestPayoutCreateMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "below minimum",
			err:        pkgerrors.New(pkgerrors.CodeBelowMinimumPayout, "amount is below the minimum payout threshold"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "insufficient balance",
			err:        pkgerrors.New(pkgerrors.CodeInsufficientBalance, "payout exceeds available balance"),
			wantStatus: http.StatusConflict,
		},
		{
			name:       "wallet missing",
			err:        pkgerrors.New(pkgerrors.CodeWalletNotFound, "no wallet exists for vendor"),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubPayoutService{err: tc.err}
			body := `{"vendor_id":"` + uuid.NewString() + `","amount":"500"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/payouts", strings.NewReader(body))
			resp := httptest.NewRecorder()
			PayoutCreate(service, nil)(resp, req)

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, resp.Code, resp.Body.String())
			}
		})
	}
}
