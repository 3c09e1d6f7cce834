package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a menu entry served by the catalog. Rows are managed outside the API.
type Product struct {
	ID          int64           `gorm:"column:product_id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	IsAvailable bool            `gorm:"column:is_available;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
