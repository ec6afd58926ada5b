package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/api/responses"
	"github.com/hirfahq/hirfa-backend/api/validators"
	pricingsvc "github.com/hirfahq/hirfa-backend/internal/pricing"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/logger"
)

// PricingService describes the pricing methods used by the HTTP controllers.
type PricingService interface {
	CalculatePrice(ctx context.Context, input pricingsvc.Input) (*pricingsvc.Breakdown, error)
}

type parentUpliftRequest struct {
	Kind  string          `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

type pricingQuoteRequest struct {
	BasePrice          decimal.Decimal      `json:"base_price"`
	CategorySlug       string               `json:"category_slug"`
	VATRegistered      bool                 `json:"vat_registered"`
	Legalized          bool                 `json:"legalized"`
	ParentUplift       *parentUpliftRequest `json:"parent_uplift,omitempty"`
	CommissionOverride *decimal.Decimal     `json:"commission_override,omitempty"`
}

type pricingQuoteResponse struct {
	BasePrice          string `json:"base_price"`
	CooperativeFee     string `json:"cooperative_fee"`
	ParentUpliftAmount string `json:"parent_uplift_amount"`
	MarketplaceUplift  string `json:"marketplace_uplift"`
	LogisticsSurcharge string `json:"logistics_surcharge"`
	VendorRevenue      string `json:"vendor_revenue"`
	VendorVAT          string `json:"vendor_vat"`
	PlatformRevenue    string `json:"platform_revenue"`
	PlatformVAT        string `json:"platform_vat"`
	FinalPrice         string `json:"final_price"`
	VendorNetPayout    string `json:"vendor_net_payout"`
	CommissionRate     string `json:"commission_rate"`
	VATRate            string `json:"vat_rate"`
	TotalVAT           string `json:"total_vat"`
	PlatformMargin     string `json:"platform_margin"`
	MarginPercent      string `json:"margin_percent"`
}

func PricingQuote(svc PricingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var payload pricingQuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := pricingsvc.Input{
			BasePrice:          payload.BasePrice,
			CategorySlug:       strings.TrimSpace(payload.CategorySlug),
			VATRegistered:      payload.VATRegistered,
			Legalized:          payload.Legalized,
			CommissionOverride: payload.CommissionOverride,
		}

		if payload.ParentUplift != nil {
			kind, err := enums.ParseUpliftKind(payload.ParentUplift.Kind)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid uplift kind"))
				return
			}
			input.ParentUplift = &pricingsvc.ParentUplift{
				Kind:  kind,
				Value: payload.ParentUplift.Value,
			}
		}

		breakdown, err := svc.CalculatePrice(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, breakdownToResponse(breakdown))
	}
}

func breakdownToResponse(b *pricingsvc.Breakdown) pricingQuoteResponse {
	return pricingQuoteResponse{
		BasePrice:          b.BasePrice.StringFixed(2),
		CooperativeFee:     b.CooperativeFee.StringFixed(2),
		ParentUpliftAmount: b.ParentUpliftAmount.StringFixed(2),
		MarketplaceUplift:  b.MarketplaceUplift.StringFixed(2),
		LogisticsSurcharge: b.LogisticsSurcharge.StringFixed(2),
		VendorRevenue:      b.VendorRevenue.StringFixed(2),
		VendorVAT:          b.VendorVAT.StringFixed(2),
		PlatformRevenue:    b.PlatformRevenue.StringFixed(2),
		PlatformVAT:        b.PlatformVAT.StringFixed(2),
		FinalPrice:         b.FinalPrice.StringFixed(2),
		VendorNetPayout:    b.VendorNetPayout.StringFixed(2),
		CommissionRate:     b.CommissionRate.String(),
		VATRate:            b.VATRate.String(),
		TotalVAT:           b.TotalVAT.StringFixed(2),
		PlatformMargin:     b.PlatformMargin.StringFixed(2),
		MarginPercent:      b.MarginPercent.String(),
	}
}
