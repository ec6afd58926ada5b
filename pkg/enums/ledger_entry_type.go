package enums

import "fmt"

// LedgerEntryType maps to the ledger_entry_type_enum enum in Postgres.
type LedgerEntryType string

const (
	LedgerEntryTypeSale       LedgerEntryType = "sale"
	LedgerEntryTypeCommission LedgerEntryType = "commission"
	LedgerEntryTypeVAT        LedgerEntryType = "vat"
	LedgerEntryTypeShipping   LedgerEntryType = "shipping"
	LedgerEntryTypeRefund     LedgerEntryType = "refund"
	LedgerEntryTypePayout     LedgerEntryType = "payout"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypeSale,
	LedgerEntryTypeCommission,
	LedgerEntryTypeVAT,
	LedgerEntryTypeShipping,
	LedgerEntryTypeRefund,
	LedgerEntryTypePayout,
}

// IsValid reports whether the value matches the canonical entry type enum.
func (t LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
