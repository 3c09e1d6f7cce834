package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// Repository defines the persistence surface required by the order gateway.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
