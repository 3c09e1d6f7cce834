package confirmation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/internal/cart"
	"github.com/rowncoffee/rown-backend/pkg/enums"
)

// Snapshot is what the confirmation page shows for the order just placed.
type Snapshot struct {
	OrderID         uuid.UUID           `json:"order_id"`
	CustomerName    string              `json:"customer_name"`
	CustomerPhone   string              `json:"customer_phone"`
	CustomerAddress string              `json:"customer_address"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	Total           decimal.Decimal     `json:"total"`
	Items           []cart.Line         `json:"items"`
	HasPaymentProof bool                `json:"has_payment_proof"`
	PlacedAt        time.Time           `json:"placed_at"`
}

// ItemCount is the number of units ordered.
func (s Snapshot) ItemCount() int {
	total := 0
	for _, item := range s.Items {
		total += item.Quantity
	}
	return total
}
