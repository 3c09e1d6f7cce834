package enums

import "fmt"

// PaymentStatus is recorded on the order header at submission time.
type PaymentStatus string

const (
	// PaymentStatusCash marks orders paid on delivery.
	PaymentStatusCash PaymentStatus = "cash"
	// PaymentStatusPending marks QRIS orders awaiting merchant verification of the proof.
	PaymentStatusPending PaymentStatus = "pending"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusCash,
	PaymentStatusPending,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// InitialPaymentStatus derives the status stored when an order is created.
func InitialPaymentStatus(method PaymentMethod) PaymentStatus {
	if method == PaymentMethodCash {
		return PaymentStatusCash
	}
	return PaymentStatusPending
}
