package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
)

// moneyScale is the monetary precision. Amounts are rounded half-up to this
// scale once at each bucket boundary, never mid-calculation, so rounding
// error cannot compound across steps.
const moneyScale = 2

type categoryProvider interface {
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Service turns a vendor's quoted price into the customer-facing price with
// its full revenue split. Calculation is pure: no state is read or written
// beyond the category rate lookup.
type Service interface {
	CalculatePrice(ctx context.Context, input Input) (*Breakdown, error)
}

type service struct {
	categories categoryProvider
	policy     config.PolicyConfig
}

// ParentUplift is an additive markup a parent vendor layers on top of a
// sub-vendor's quote, either a fixed amount or a percentage of the base.
type ParentUplift struct {
	Kind  enums.UpliftKind
	Value decimal.Decimal
}

// Input carries everything one price calculation needs. CommissionOverride,
// when set, replaces the category's default uplift rate entirely.
type Input struct {
	BasePrice          decimal.Decimal
	CategorySlug       string
	VATRegistered      bool
	Legalized          bool
	ParentUplift       *ParentUplift
	CommissionOverride *decimal.Decimal
}

// Breakdown splits a final price into four buckets by recipient and tax
// treatment: vendor revenue, vendor VAT, platform revenue, platform VAT.
// FinalPrice always equals the sum of the four buckets.
type Breakdown struct {
	BasePrice          decimal.Decimal
	CooperativeFee     decimal.Decimal
	ParentUpliftAmount decimal.Decimal
	MarketplaceUplift  decimal.Decimal
	LogisticsSurcharge decimal.Decimal
	VendorRevenue      decimal.Decimal
	VendorVAT          decimal.Decimal
	PlatformRevenue    decimal.Decimal
	PlatformVAT        decimal.Decimal
	FinalPrice         decimal.Decimal
	VendorNetPayout    decimal.Decimal
	CommissionRate     decimal.Decimal
	VATRate            decimal.Decimal
	TotalVAT           decimal.Decimal
	PlatformMargin     decimal.Decimal
	MarginPercent      decimal.Decimal
}

// NewService wires a pricing service with the provided dependencies.
func NewService(categories categoryProvider, policy config.PolicyConfig) (Service, error) {
	if categories == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "category provider required")
	}
	return &service{categories: categories, policy: policy}, nil
}

// CalculatePrice computes the customer-facing price for a vendor quote. All
// uplifts are additive: the vendor's quoted price is never reduced, so the
// cooperative fee and marketplace uplift land in the platform bucket while
// the vendor keeps its full quote plus any parent uplift.
func (s *service) CalculatePrice(ctx context.Context, input Input) (*Breakdown, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(input.CategorySlug)
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown category").
			WithDetails(map[string]any{"category": slug})
	}

	cooperativeFee := decimal.Zero
	if !input.Legalized {
		cooperativeFee = input.BasePrice.Mul(s.policy.CooperativeFeeRate).Round(moneyScale)
	}

	parentUplift := decimal.Zero
	if input.ParentUplift != nil {
		switch input.ParentUplift.Kind {
		case enums.UpliftKindFixedAmount:
			parentUplift = input.ParentUplift.Value.Round(moneyScale)
		case enums.UpliftKindPercentage:
			parentUplift = input.BasePrice.Mul(input.ParentUplift.Value).Round(moneyScale)
		}
	}

	commissionRate := category.DefaultUpliftRate
	if input.CommissionOverride != nil {
		commissionRate = *input.CommissionOverride
	}

	vendorRevenue := input.BasePrice.Add(parentUplift).Round(moneyScale)
	marketplaceUplift := vendorRevenue.Mul(commissionRate).Round(moneyScale)
	logisticsSurcharge := s.policy.LogisticsSurcharge.Round(moneyScale)

	vendorVAT := decimal.Zero
	if input.VATRegistered {
		vendorVAT = vendorRevenue.Mul(s.policy.VATRate).Round(moneyScale)
	}

	platformRevenue := cooperativeFee.Add(marketplaceUplift).Add(logisticsSurcharge)
	// The platform is always tax-registered, so its bucket carries VAT even
	// when the vendor's does not.
	platformVAT := platformRevenue.Mul(s.policy.VATRate).Round(moneyScale)

	finalPrice := vendorRevenue.Add(vendorVAT).Add(platformRevenue).Add(platformVAT)

	marginPercent := decimal.Zero
	if finalPrice.IsPositive() {
		marginPercent = platformRevenue.Div(finalPrice).Mul(decimal.NewFromInt(100)).Round(moneyScale)
	}

	return &Breakdown{
		BasePrice:          input.BasePrice,
		CooperativeFee:     cooperativeFee,
		ParentUpliftAmount: parentUplift,
		MarketplaceUplift:  marketplaceUplift,
		LogisticsSurcharge: logisticsSurcharge,
		VendorRevenue:      vendorRevenue,
		VendorVAT:          vendorVAT,
		PlatformRevenue:    platformRevenue,
		PlatformVAT:        platformVAT,
		FinalPrice:         finalPrice,
		VendorNetPayout:    vendorRevenue.Add(vendorVAT),
		CommissionRate:     commissionRate,
		VATRate:            s.policy.VATRate,
		TotalVAT:           vendorVAT.Add(platformVAT),
		PlatformMargin:     platformRevenue,
		MarginPercent:      marginPercent,
	}, nil
}

func validateInput(input Input) error {
	if !input.BasePrice.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "base price must be positive").
			WithDetails(map[string]any{"base_price": input.BasePrice.String()})
	}
	if strings.TrimSpace(input.CategorySlug) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.ParentUplift != nil {
		if !input.ParentUplift.Kind.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid uplift kind").
				WithDetails(map[string]any{"kind": string(input.ParentUplift.Kind)})
		}
		if input.ParentUplift.Value.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "uplift value must not be negative").
				WithDetails(map[string]any{"value": input.ParentUplift.Value.String()})
		}
	}
	if input.CommissionOverride != nil {
		override := *input.CommissionOverride
		if override.IsNegative() || override.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "commission override must be a fraction below 1").
				WithDetails(map[string]any{"override": override.String()})
		}
	}
	return nil
}
