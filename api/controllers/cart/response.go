package cart

import (
	"github.com/shopspring/decimal"

	cartsvc "github.com/rowncoffee/rown-backend/internal/cart"
)

// CartResponse is the cart as rendered to the storefront.
type CartResponse struct {
	Items          []LineResponse  `json:"items"`
	TotalItemCount int             `json:"total_item_count"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}

type LineResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCartResponse(store *cartsvc.Store) CartResponse {
	lines := store.Items()
	items := make([]LineResponse, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.UnitPrice,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal(),
		})
	}
	return CartResponse{
		Items:          items,
		TotalItemCount: store.TotalItemCount(),
		TotalPrice:     store.TotalPrice(),
	}
}
