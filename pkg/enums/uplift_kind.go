package enums

import "fmt"

// UpliftKind describes how a parent-vendor uplift is expressed.
type UpliftKind string

const (
	UpliftKindFixedAmount UpliftKind = "fixed_amount"
	UpliftKindPercentage  UpliftKind = "percentage"
)

var validUpliftKinds = []UpliftKind{
	UpliftKindFixedAmount,
	UpliftKindPercentage,
}

// IsValid reports whether the value matches a recognized uplift kind.
func (k UpliftKind) IsValid() bool {
	for _, candidate := range validUpliftKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseUpliftKind converts raw input into UpliftKind.
func ParseUpliftKind(value string) (UpliftKind, error) {
	for _, candidate := range validUpliftKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid uplift kind %q", value)
}
