package product

import (
	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// ProductDTO is the catalog entry returned to clients.
type ProductDTO struct {
	ID          int64           `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsAvailable bool            `json:"is_available"`
}

func NewProductDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		IsAvailable: p.IsAvailable,
	}
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductDTO(p))
	}
	return out
}
