package enums

import "fmt"

// EscrowHoldStatus maps to the escrow_hold_status_enum enum in Postgres.
// Held funds sit in the wallet's pending bucket; released funds have been
// credited to the available bucket by the release worker.
type EscrowHoldStatus string

const (
	EscrowHoldStatusHeld     EscrowHoldStatus = "held"
	EscrowHoldStatusReleased EscrowHoldStatus = "released"
)

var validEscrowHoldStatuses = []EscrowHoldStatus{
	EscrowHoldStatusHeld,
	EscrowHoldStatusReleased,
}

// IsValid reports whether the value matches the canonical hold status enum.
func (s EscrowHoldStatus) IsValid() bool {
	for _, candidate := range validEscrowHoldStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseEscrowHoldStatus converts raw input into EscrowHoldStatus.
func ParseEscrowHoldStatus(value string) (EscrowHoldStatus, error) {
	for _, candidate := range validEscrowHoldStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid escrow hold status %q", value)
}
