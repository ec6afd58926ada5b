package enums

import "fmt"

// BalanceStatus maps to the balance_status_enum enum in Postgres. It names
// the wallet bucket a ledger entry settles into.
type BalanceStatus string

const (
	BalanceStatusPending   BalanceStatus = "pending"
	BalanceStatusAvailable BalanceStatus = "available"
	BalanceStatusWithdrawn BalanceStatus = "withdrawn"
)

var validBalanceStatuses = []BalanceStatus{
	BalanceStatusPending,
	BalanceStatusAvailable,
	BalanceStatusWithdrawn,
}

// IsValid reports whether the value matches the canonical balance status enum.
func (s BalanceStatus) IsValid() bool {
	for _, candidate := range validBalanceStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseBalanceStatus converts raw input into BalanceStatus.
func ParseBalanceStatus(value string) (BalanceStatus, error) {
	for _, candidate := range validBalanceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid balance status %q", value)
}
