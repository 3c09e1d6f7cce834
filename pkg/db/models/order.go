package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rowncoffee/rown-backend/pkg/enums"
)

// Order is the header row written first during submission.
type Order struct {
	ID              uuid.UUID           `gorm:"column:order_id;type:uuid;primaryKey"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerPhone   string              `gorm:"column:customer_phone;not null"`
	CustomerAddress string              `gorm:"column:customer_address;not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PaymentProofURL *string             `gorm:"column:payment_proof_url"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }

// BeforeCreate assigns the order id client side so the same value can be
// reported even when the database does not return generated columns.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
