package deviation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service compares candidate prices against category benchmarks. The check
// itself is a pure calculation; FlagIfDeviant additionally records a flag
// event for the moderation queue when the threshold is breached.
type Service interface {
	CheckDeviation(ctx context.Context, input CheckInput) (*Result, error)
	FlagIfDeviant(ctx context.Context, input FlagInput) (*Result, error)
}

type service struct {
	tx     txRunner
	outbox outboxEmitter
	policy config.PolicyConfig
}

// CheckInput is one deviation check. Threshold falls back to the configured
// default when absent.
type CheckInput struct {
	ProposedPrice  decimal.Decimal
	BenchmarkPrice decimal.Decimal
	Threshold      *decimal.Decimal
}

// FlagInput identifies the product under moderation alongside the check.
type FlagInput struct {
	CheckInput
	ProductID uuid.UUID
	VendorID  uuid.UUID
}

// Result reports how far a proposed price strays from its benchmark.
// Deviation is the absolute ratio |proposed − benchmark| / benchmark.
type Result struct {
	ProposedPrice  decimal.Decimal
	BenchmarkPrice decimal.Decimal
	Deviation      decimal.Decimal
	Threshold      decimal.Decimal
	Flagged        bool
}

// PriceDeviationFlaggedEvent is emitted when a moderated price breaches the
// deviation threshold.
type PriceDeviationFlaggedEvent struct {
	ProductID      uuid.UUID       `json:"product_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	ProposedPrice  decimal.Decimal `json:"proposed_price"`
	BenchmarkPrice decimal.Decimal `json:"benchmark_price"`
	DeviationRatio decimal.Decimal `json:"deviation_ratio"`
	Threshold      decimal.Decimal `json:"threshold"`
}

// NewService wires a deviation service with the provided dependencies.
func NewService(tx txRunner, outboxSvc outboxEmitter, policy config.PolicyConfig) (Service, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{tx: tx, outbox: outboxSvc, policy: policy}, nil
}

// CheckDeviation computes the deviation ratio without recording anything.
func (s *service) CheckDeviation(_ context.Context, input CheckInput) (*Result, error) {
	return s.check(input)
}

// FlagIfDeviant runs the check and, when the threshold is breached, queues a
// price_deviation_flagged event for the moderation workflow.
func (s *service) FlagIfDeviant(ctx context.Context, input FlagInput) (*Result, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	result, err := s.check(input.CheckInput)
	if err != nil {
		return nil, err
	}
	if !result.Flagged {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPriceDeviationFlagged,
			AggregateType: enums.AggregatePricing,
			AggregateID:   input.ProductID,
			Version:       1,
			Data: PriceDeviationFlaggedEvent{
				ProductID:      input.ProductID,
				VendorID:       input.VendorID,
				ProposedPrice:  result.ProposedPrice,
				BenchmarkPrice: result.BenchmarkPrice,
				DeviationRatio: result.Deviation,
				Threshold:      result.Threshold,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record deviation flag")
	}
	return result, nil
}

func (s *service) check(input CheckInput) (*Result, error) {
	if !input.BenchmarkPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "benchmark price must be positive").
			WithDetails(map[string]any{"benchmark_price": input.BenchmarkPrice.String()})
	}
	if !input.ProposedPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposed price must be positive").
			WithDetails(map[string]any{"proposed_price": input.ProposedPrice.String()})
	}

	threshold := s.policy.DeviationThreshold
	if input.Threshold != nil {
		if !input.Threshold.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "threshold must be positive").
				WithDetails(map[string]any{"threshold": input.Threshold.String()})
		}
		threshold = *input.Threshold
	}

	deviation := input.ProposedPrice.Sub(input.BenchmarkPrice).Abs().Div(input.BenchmarkPrice)

	return &Result{
		ProposedPrice:  input.ProposedPrice,
		BenchmarkPrice: input.BenchmarkPrice,
		Deviation:      deviation,
		Threshold:      threshold,
		Flagged:        deviation.GreaterThan(threshold),
	}, nil
}
