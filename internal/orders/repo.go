package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// itemBatchSize caps the rows sent per INSERT for unusually large carts.
const itemBatchSize = 100

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns the gorm backed order store. A nil db yields nil so
// the gateway reports the store as unconfigured.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

// CreateOrder writes the orders row. order.ID is assigned before the insert.
func (r *gormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateOrderItems writes the order_items rows for an existing order.
func (r *gormRepository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&items, itemBatchSize).Error
}
