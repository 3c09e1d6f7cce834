package product

import (
	"context"

	"gorm.io/gorm"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
)

// Repository reads the product catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListAvailable returns every product flagged available, ordered by id.
func (r *Repository) ListAvailable(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("product_id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
