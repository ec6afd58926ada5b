package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hirfahq/hirfa-backend/pkg/config"
	"github.com/hirfahq/hirfa-backend/pkg/db/models"
	"github.com/hirfahq/hirfa-backend/pkg/enums"
	"github.com/hirfahq/hirfa-backend/pkg/outbox"
	"github.com/hirfahq/hirfa-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	walletID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.PayoutRecordedEvent{
		EntryID:          uuid.New(),
		WalletID:         walletID,
		VendorID:         uuid.New(),
		Amount:           decimal.NewFromInt(750),
		AvailableBalance: decimal.NewFromInt(50),
	})

	event := models.OutboxEvent{
		EventType:     enums.EventPayoutRecorded,
		AggregateType: enums.AggregatePayout,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "domain-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	if resolved.Descriptor.EventType != enums.EventPayoutRecorded {
		t.Fatalf("unexpected event type %s", resolved.Descriptor.EventType)
	}
	payload, ok := resolved.Payload.(*payloads.PayoutRecordedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.WalletID != walletID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if !payload.Amount.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("unexpected amount %s", payload.Amount)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryResolveEveryFinancialEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	cases := []struct {
		eventType enums.OutboxEventType
		aggregate enums.OutboxAggregateType
		payload   interface{}
	}{
		{enums.EventWalletProvisioned, enums.AggregateVendorWallet, payloads.WalletProvisionedEvent{WalletID: uuid.New(), VendorID: uuid.New(), Currency: enums.CurrencyEGP}},
		{enums.EventLedgerEntryRecorded, enums.AggregateLedgerEntry, payloads.LedgerEntryRecordedEvent{EntryID: uuid.New(), WalletID: uuid.New(), VendorID: uuid.New(), EntryType: enums.LedgerEntryTypeSale, BalanceStatus: enums.BalanceStatusPending, Amount: decimal.NewFromInt(200)}},
		{enums.EventEscrowHoldCreated, enums.AggregateEscrowHold, payloads.EscrowHoldCreatedEvent{HoldID: uuid.New(), OrderID: uuid.New(), VendorID: uuid.New(), Amount: decimal.NewFromInt(120), DeliveredAt: time.Now().UTC(), ReleaseAt: time.Now().UTC().Add(14 * 24 * time.Hour)}},
		{enums.EventEscrowHoldReleased, enums.AggregateEscrowHold, payloads.EscrowHoldReleasedEvent{HoldID: uuid.New(), OrderID: uuid.New(), VendorID: uuid.New(), Amount: decimal.NewFromInt(120), EntryID: uuid.New(), ReleasedAt: time.Now().UTC()}},
		{enums.EventPriceDeviationFlagged, enums.AggregatePricing, payloads.PriceDeviationFlaggedEvent{ProductID: uuid.New(), VendorID: uuid.New(), ProposedPrice: decimal.NewFromInt(130), BenchmarkPrice: decimal.NewFromInt(100), DeviationRatio: decimal.NewFromFloat(0.3), Threshold: decimal.NewFromFloat(0.2)}},
	}

	for _, tc := range cases {
		event := models.OutboxEvent{
			EventType:     tc.eventType,
			AggregateType: tc.aggregate,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, mustMarshal(t, tc.payload)),
		}
		resolved, err := reg.Resolve(event)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.eventType, err)
		}
		if resolved.Descriptor.Topic != "domain-topic" {
			t.Fatalf("%s routed to %q", tc.eventType, resolved.Descriptor.Topic)
		}
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("inventory_adjusted"),
		AggregateType: enums.AggregateVendorWallet,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventWalletProvisioned,
		AggregateType: enums.AggregateLedgerEntry,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"wallet_id":"00000000-0000-0000-0000-000000000000"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventWalletProvisioned,
		AggregateType: enums.AggregateVendorWallet,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventWalletProvisioned,
		AggregateType: enums.AggregateVendorWallet,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	cfg := config.PubSubConfig{
		DomainTopic: "domain-topic",
	}
	reg, err := NewEventRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
