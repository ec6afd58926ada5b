package wallets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/hirfahq/hirfa-backend/pkg/db"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
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

// Service provisions and reads vendor wallets. Balance mutation is owned by
// the ledger accountant; this service never touches balances directly.
type Service interface {
	Provision(ctx context.Context, input ProvisionInput) (*models.VendorWallet, error)
	GetByVendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
}

// ProvisionInput identifies the vendor a wallet should be opened for.
type ProvisionInput struct {
	VendorID uuid.UUID
	Currency enums.Currency
}

// WalletProvisionedEvent is emitted once when a vendor's wallet is opened.
type WalletProvisionedEvent struct {
	WalletID uuid.UUID      `json:"wallet_id"`
	VendorID uuid.UUID      `json:"vendor_id"`
	Currency enums.Currency `json:"currency"`
}

// NewService wires a wallet service with the provided dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Provision opens a wallet for the vendor if none exists yet. The call is
// idempotent: re-provisioning an existing vendor returns the current wallet
// untouched and emits nothing.
func (s *service) Provision(ctx context.Context, input ProvisionInput) (*models.VendorWallet, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyEGP
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency").
			WithDetails(map[string]any{"currency": string(input.Currency)})
	}

	existing, err := s.repo.FindByVendorID(ctx, input.VendorID)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	wallet := &models.VendorWallet{
		ID:       uuid.New(),
		VendorID: input.VendorID,
		Currency: currency,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, wallet); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWalletProvisioned,
			AggregateType: enums.AggregateVendorWallet,
			AggregateID:   wallet.ID,
			Version:       1,
			Data: WalletProvisionedEvent{
				WalletID: wallet.ID,
				VendorID: wallet.VendorID,
				Currency: wallet.Currency,
			},
		})
	})
	if err != nil {
		// Lost a provisioning race; the winner's wallet is the wallet.
		if dbpkg.IsUniqueViolation(err, "") {
			return s.GetByVendor(ctx, input.VendorID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision wallet")
	}
	return wallet, nil
}

func (s *service) GetByVendor(ctx context.Context, vendorID uuid.UUID) (*models.VendorWallet, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	wallet, err := s.repo.FindByVendorID(ctx, vendorID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeWalletNotFound, "no wallet provisioned for vendor").
				WithDetails(map[string]any{"vendor_id": vendorID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}
