package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodQRIS PaymentMethod = "qris"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodQRIS,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// RequiresProof reports whether the buyer must attach a transfer receipt.
func (p PaymentMethod) RequiresProof() bool {
	return p == PaymentMethodQRIS
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Blank input
// selects cash, matching the storefront's default choice.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return PaymentMethodCash, nil
	}
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
