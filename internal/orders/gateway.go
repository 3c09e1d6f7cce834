package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
	"github.com/rowncoffee/rown-backend/pkg/enums"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

const (
	stepOrderInsert = "order_insert"
	stepItemsInsert = "order_items_insert"
)

var (
	// ErrOrderNotSaved marks a failed header insert; nothing was written.
	ErrOrderNotSaved = errors.New("order not saved")
	// ErrItemsNotSaved marks a failed items insert after the header row was written.
	ErrItemsNotSaved = errors.New("order created but items failed")
)

// ItemPayload is one order line priced at submission time.
type ItemPayload struct {
	ProductID    int64
	Quantity     int
	PriceAtOrder decimal.Decimal
}

// Payload is everything written for one submission.
type Payload struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	PaymentMethod   enums.PaymentMethod
	TotalAmount     decimal.Decimal
	Items           []ItemPayload
	PaymentProofURL *string
}

// Gateway writes orders to the order store.
type Gateway interface {
	// CreateOrder inserts the order and then its items, returning the
	// generated order id. A failed items insert leaves the order row in place
	// unless atomic writes are enabled.
	CreateOrder(ctx context.Context, payload Payload) (uuid.UUID, error)
}

type gateway struct {
	repo   Repository
	tx     txRunner
	atomic bool
}

// NewGateway builds the order gateway. A nil repo yields a gateway that reports
// the store as unconfigured; tx is only consulted when atomic is set.
func NewGateway(repo Repository, tx txRunner, atomic bool) (Gateway, error) {
	if atomic && repo != nil && tx == nil {
		return nil, fmt.Errorf("transaction runner required for atomic order writes")
	}
	return &gateway{repo: repo, tx: tx, atomic: atomic}, nil
}

func (g *gateway) CreateOrder(ctx context.Context, payload Payload) (uuid.UUID, error) {
	if g.repo == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeDependency, "order store not configured")
	}

	if !g.atomic {
		return g.write(ctx, g.repo, payload, false)
	}

	var orderID uuid.UUID
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		id, err := g.write(ctx, g.repo.WithTx(tx), payload, true)
		if err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, fmt.Sprintf("error creating order: %v", err)).
				WithDetails(map[string]any{"step": stepOrderInsert})
		}
		return uuid.Nil, err
	}
	return orderID, nil
}

func (g *gateway) write(ctx context.Context, repo Repository, payload Payload, atomic bool) (uuid.UUID, error) {
	order := newOrder(payload)
	if err := repo.CreateOrder(ctx, order); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodePersistence, fmt.Errorf("%w: %w", ErrOrderNotSaved, err), fmt.Sprintf("error creating order: %v", err)).
			WithDetails(map[string]any{"step": stepOrderInsert})
	}

	if len(payload.Items) == 0 {
		return order.ID, nil
	}

	if err := repo.CreateOrderItems(ctx, newOrderItems(order.ID, payload.Items)); err != nil {
		details := map[string]any{
			"step":     stepItemsInsert,
			"order_id": order.ID.String(),
		}
		msg := fmt.Sprintf("%s: %v", ErrItemsNotSaved.Error(), err)
		if atomic {
			details["rolled_back"] = true
			msg = fmt.Sprintf("error creating order items: %v", err)
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodePersistence, fmt.Errorf("%w: %w", ErrItemsNotSaved, err), msg).
			WithDetails(details)
	}

	return order.ID, nil
}

func newOrder(p Payload) *models.Order {
	var proofURL *string
	if p.PaymentProofURL != nil {
		if v := strings.TrimSpace(*p.PaymentProofURL); v != "" {
			proofURL = &v
		}
	}
	return &models.Order{
		CustomerName:    p.CustomerName,
		CustomerPhone:   p.CustomerPhone,
		CustomerAddress: p.CustomerAddress,
		PaymentMethod:   p.PaymentMethod,
		TotalAmount:     p.TotalAmount,
		PaymentStatus:   enums.InitialPaymentStatus(p.PaymentMethod),
		PaymentProofURL: proofURL,
	}
}

func newOrderItems(orderID uuid.UUID, items []ItemPayload) []models.OrderItem {
	rows := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.OrderItem{
			OrderID:      orderID,
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			PriceAtOrder: item.PriceAtOrder,
		})
	}
	return rows
}
