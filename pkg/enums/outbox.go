package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateVendorWallet OutboxAggregateType = "vendor_wallet"
	AggregateLedgerEntry  OutboxAggregateType = "ledger_entry"
	AggregateEscrowHold   OutboxAggregateType = "escrow_hold"
	AggregatePayout       OutboxAggregateType = "payout"
	AggregatePricing      OutboxAggregateType = "pricing"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateVendorWallet,
	AggregateLedgerEntry,
	AggregateEscrowHold,
	AggregatePayout,
	AggregatePricing,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventWalletProvisioned     OutboxEventType = "wallet_provisioned"
	EventLedgerEntryRecorded   OutboxEventType = "ledger_entry_recorded"
	EventEscrowHoldCreated     OutboxEventType = "escrow_hold_created"
	EventEscrowHoldReleased    OutboxEventType = "escrow_hold_released"
	EventPayoutRecorded        OutboxEventType = "payout_recorded"
	EventPriceDeviationFlagged OutboxEventType = "price_deviation_flagged"
)

var validOutboxEventTypes = []OutboxEventType{
	EventWalletProvisioned,
	EventLedgerEntryRecorded,
	EventEscrowHoldCreated,
	EventEscrowHoldReleased,
	EventPayoutRecorded,
	EventPriceDeviationFlagged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
