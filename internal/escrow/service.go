package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hirfahq/hirfa-backend/internal/ledger"
	"github.com/hirfahq/hirfa-backend/internal/wallets"
	"github.com/hirfahq/hirfa-backend/pkg/config"
	dbpkg "github.com/hirfahq/hirfa-backend/pkg/db"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	pkgerrors "github.com/hirfahq/hirfa-backend/pkg/errors"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
	"github.com/hirfahq/hirfa-backend/pkg/pagination"
)

// maxApplyAttempts bounds optimistic retries when the hold's wallet is being
// written concurrently.
const maxApplyAttempts = 3

// releaseJobActor identifies ledger entries and events written by the
// scheduled release run rather than an API caller.
const releaseJobActor = "escrow-release"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerAccountant interface {
	ApplyEntryTx(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.LedgerEntry, error)
}

// Service manages the escrow lifecycle: scheduling release dates, opening
// holds when orders are delivered, and promoting matured holds from pending
// to available funds.
type Service interface {
	ScheduleRelease(deliveredAt time.Time) (*Schedule, error)
	OpenHold(ctx context.Context, input OpenHoldInput) (*models.EscrowHold, error)
	ListByVendor(ctx context.Context, params ListHoldsParams) (*HoldListResult, error)
	ReleaseDue(ctx context.Context) (*ReleaseReport, error)
}

type service struct {
	repo      Repository
	accounts  ledgerAccountant
	tx        txRunner
	outbox    outboxEmitter
	policy    config.PolicyConfig
	batchSize int
	now       func() time.Time
}

// Schedule reports when delivered funds leave the dispute window. Released is
// recomputed against the clock on every call and never persisted.
type Schedule struct {
	DeliveredAt time.Time
	ReleaseAt   time.Time
	HoldDays    int
	Released    bool
}

// OpenHoldInput describes the delivered-order funds entering escrow. Amount
// is the vendor's portion; commission and VAT ride along on the ledger entry
// for bookkeeping.
type OpenHoldInput struct {
	VendorID         uuid.UUID
	OrderID          uuid.UUID
	Amount           decimal.Decimal
	CommissionAmount decimal.Decimal
	VATAmount        decimal.Decimal
	DeliveredAt      time.Time
	Description      string
	Actor            *outbox.ActorRef
}

// ListHoldsParams filter a vendor's escrow holds.
type ListHoldsParams struct {
	VendorID uuid.UUID
	Limit    int
	Cursor   string
	Status   *enums.EscrowHoldStatus
}

// HoldListResult is one page of holds plus the cursor for the next.
type HoldListResult struct {
	Items  []models.EscrowHold
	Cursor string
}

// ReleaseReport summarizes one release run.
type ReleaseReport struct {
	Scanned  int
	Released int
	Skipped  int
}

// EscrowHoldCreatedEvent is emitted when delivered funds enter escrow.
type EscrowHoldCreatedEvent struct {
	HoldID      uuid.UUID       `json:"hold_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Amount      decimal.Decimal `json:"amount"`
	DeliveredAt time.Time       `json:"delivered_at"`
	ReleaseAt   time.Time       `json:"release_at"`
}

// EscrowHoldReleasedEvent is emitted when held funds become available.
type EscrowHoldReleasedEvent struct {
	HoldID     uuid.UUID       `json:"hold_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	VendorID   uuid.UUID       `json:"vendor_id"`
	Amount     decimal.Decimal `json:"amount"`
	EntryID    uuid.UUID       `json:"entry_id"`
	ReleasedAt time.Time       `json:"released_at"`
}

// NewService wires an escrow service with the provided dependencies. The
// clock defaults to time.Now when nil.
func NewService(
	repo Repository,
	accounts ledgerAccountant,
	tx txRunner,
	outboxSvc outboxEmitter,
	policy config.PolicyConfig,
	batchSize int,
	now func() time.Time,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "escrow repository required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger accountant required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      repo,
		accounts:  accounts,
		tx:        tx,
		outbox:    outboxSvc,
		policy:    policy,
		batchSize: batchSize,
		now:       now,
	}, nil
}

// ScheduleRelease computes the release date for a delivery. Pure: nothing is
// stored, and eligibility reflects the clock at this instant.
func (s *service) ScheduleRelease(deliveredAt time.Time) (*Schedule, error) {
	if deliveredAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery timestamp required")
	}
	releaseAt := deliveredAt.Add(time.Duration(s.policy.EscrowHoldDays) * 24 * time.Hour)
	return &Schedule{
		DeliveredAt: deliveredAt,
		ReleaseAt:   releaseAt,
		HoldDays:    s.policy.EscrowHoldDays,
		Released:    !s.now().Before(releaseAt),
	}, nil
}

// OpenHold records the hold and its Pending ledger entry in one transaction.
// Idempotent on order: a second call for the same order returns the existing
// hold untouched.
func (s *service) OpenHold(ctx context.Context, input OpenHoldInput) (*models.EscrowHold, error) {
	if err := validateOpenHold(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrderID(ctx, input.OrderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load escrow hold")
	}

	schedule, err := s.ScheduleRelease(input.DeliveredAt)
	if err != nil {
		return nil, err
	}

	description := input.Description
	if description == "" {
		description = fmt.Sprintf("escrow hold for order %s", input.OrderID)
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var hold *models.EscrowHold
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			orderID := input.OrderID
			entry, applyErr := s.accounts.ApplyEntryTx(ctx, tx, ledger.RecordEntryInput{
				VendorID:         input.VendorID,
				OrderID:          &orderID,
				EntryType:        enums.LedgerEntryTypeSale,
				BalanceStatus:    enums.BalanceStatusPending,
				Amount:           input.Amount.Add(input.CommissionAmount).Add(input.VATAmount),
				VendorAmount:     input.Amount,
				CommissionAmount: input.CommissionAmount,
				VATAmount:        input.VATAmount,
				Description:      description,
				Actor:            input.Actor,
			})
			if applyErr != nil {
				return applyErr
			}

			hold = &models.EscrowHold{
				ID:            uuid.New(),
				VendorID:      input.VendorID,
				OrderID:       input.OrderID,
				LedgerEntryID: entry.ID,
				Amount:        input.Amount,
				DeliveredAt:   input.DeliveredAt,
				ReleaseAt:     schedule.ReleaseAt,
				Status:        enums.EscrowHoldStatusHeld,
			}
			if createErr := s.repo.WithTx(tx).Create(ctx, hold); createErr != nil {
				return createErr
			}

			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEscrowHoldCreated,
				AggregateType: enums.AggregateEscrowHold,
				AggregateID:   hold.ID,
				Actor:         input.Actor,
				Version:       1,
				Data: EscrowHoldCreatedEvent{
					HoldID:      hold.ID,
					OrderID:     hold.OrderID,
					VendorID:    hold.VendorID,
					Amount:      hold.Amount,
					DeliveredAt: hold.DeliveredAt,
					ReleaseAt:   hold.ReleaseAt,
				},
			})
		})
		if err == nil {
			return hold, nil
		}
		if errors.Is(err, wallets.ErrVersionConflict) {
			continue
		}
		// Lost an open race for the same order; the winner's hold stands.
		if dbpkg.IsUniqueViolation(err, "") {
			winner, findErr := s.repo.FindByOrderID(ctx, input.OrderID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load escrow hold")
			}
			return winner, nil
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open escrow hold")
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet is contended, retry the hold").
		WithDetails(map[string]any{"vendor_id": input.VendorID.String(), "order_id": input.OrderID.String()})
}

func (s *service) ListByVendor(ctx context.Context, params ListHoldsParams) (*HoldListResult, error) {
	if params.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid hold status").
			WithDetails(map[string]any{"status": string(*params.Status)})
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	holds, next, err := s.repo.ListByVendorID(ctx, listHoldsParams{
		VendorID: params.VendorID,
		Limit:    params.Limit,
		Cursor:   cursor,
		Status:   params.Status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list escrow holds")
	}

	result := &HoldListResult{Items: holds}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

// ReleaseDue promotes every matured hold to available funds. Each hold gets
// its own transaction so one failure cannot poison the batch; failures are
// collected and reported together.
func (s *service) ReleaseDue(ctx context.Context) (*ReleaseReport, error) {
	now := s.now().UTC()
	holds, err := s.repo.FindDue(ctx, now, s.batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find due escrow holds")
	}

	report := &ReleaseReport{Scanned: len(holds)}
	var errs error
	for i := range holds {
		released, releaseErr := s.releaseOne(ctx, &holds[i], now)
		if releaseErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("release hold %s: %w", holds[i].ID, releaseErr))
			continue
		}
		if released {
			report.Released++
		} else {
			report.Skipped++
		}
	}
	return report, errs
}

func (s *service) releaseOne(ctx context.Context, hold *models.EscrowHold, releasedAt time.Time) (bool, error) {
	actor := &outbox.ActorRef{Job: releaseJobActor}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		skipped := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			// Flip the status first: if another run already released this
			// hold, nothing else may touch the wallet.
			if markErr := s.repo.WithTx(tx).MarkReleased(ctx, hold, releasedAt); markErr != nil {
				if errors.Is(markErr, ErrAlreadyReleased) {
					skipped = true
					return nil
				}
				return markErr
			}

			orderID := hold.OrderID
			entry, applyErr := s.accounts.ApplyEntryTx(ctx, tx, ledger.RecordEntryInput{
				VendorID:      hold.VendorID,
				OrderID:       &orderID,
				EntryType:     enums.LedgerEntryTypeSale,
				BalanceStatus: enums.BalanceStatusAvailable,
				Amount:        hold.Amount,
				VendorAmount:  hold.Amount,
				Description:   fmt.Sprintf("escrow release for order %s", hold.OrderID),
				Actor:         actor,
			})
			if applyErr != nil {
				return applyErr
			}

			return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventEscrowHoldReleased,
				AggregateType: enums.AggregateEscrowHold,
				AggregateID:   hold.ID,
				Actor:         actor,
				Version:       1,
				Data: EscrowHoldReleasedEvent{
					HoldID:     hold.ID,
					OrderID:    hold.OrderID,
					VendorID:   hold.VendorID,
					Amount:     hold.Amount,
					EntryID:    entry.ID,
					ReleasedAt: releasedAt,
				},
			})
		})
		if err == nil {
			return !skipped, nil
		}
		if errors.Is(err, wallets.ErrVersionConflict) {
			continue
		}
		return false, err
	}
	return false, pkgerrors.New(pkgerrors.CodeConflict, "wallet is contended, release will retry next run").
		WithDetails(map[string]any{"hold_id": hold.ID.String()})
}

func validateOpenHold(input OpenHoldInput) error {
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "hold amount must be positive").
			WithDetails(map[string]any{"amount": input.Amount.String()})
	}
	if input.CommissionAmount.IsNegative() || input.VATAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "commission and vat amounts must not be negative")
	}
	if input.DeliveredAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery timestamp required")
	}
	return nil
}
