package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/internal/confirmation"
	"github.com/rowncoffee/rown-backend/pkg/enums"
)

const (
	EventOrderPlaced      = "order.placed"
	defaultPublishTimeout = 10 * time.Second
)

// Publisher announces placed orders to downstream consumers (kitchen display, reporting).
type Publisher interface {
	OrderPlaced(ctx context.Context, snapshot confirmation.Snapshot) error
}

// OrderPlacedEvent is the JSON body of an order.placed message.
type OrderPlacedEvent struct {
	Event           string              `json:"event"`
	EventID         string              `json:"event_id"`
	OrderID         uuid.UUID           `json:"order_id"`
	Total           decimal.Decimal     `json:"total"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	HasPaymentProof bool                `json:"has_payment_proof"`
	ItemCount       int                 `json:"item_count"`
	PlacedAt        time.Time           `json:"placed_at"`
}

type messagePublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher sends order events to a Pub/Sub topic and waits for the server ack.
type PubSubPublisher struct {
	pub     messagePublisher
	timeout time.Duration
}

func NewPubSubPublisher(p *gcppubsub.Publisher) (*PubSubPublisher, error) {
	if p == nil {
		return nil, fmt.Errorf("pubsub publisher required")
	}
	return newPubSubPublisher(&gcpPublisher{Publisher: p}), nil
}

func newPubSubPublisher(pub messagePublisher) *PubSubPublisher {
	return &PubSubPublisher{pub: pub, timeout: defaultPublishTimeout}
}

func (p *PubSubPublisher) OrderPlaced(ctx context.Context, snapshot confirmation.Snapshot) error {
	event := NewOrderPlacedEvent(snapshot)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"event_id":       event.EventID,
			"event_type":     event.Event,
			"order_id":       event.OrderID.String(),
			"payment_method": string(event.PaymentMethod),
			"created_at":     event.PlacedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}

// NewOrderPlacedEvent derives the event body from a confirmation snapshot.
func NewOrderPlacedEvent(snapshot confirmation.Snapshot) OrderPlacedEvent {
	placedAt := snapshot.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}
	return OrderPlacedEvent{
		Event:           EventOrderPlaced,
		EventID:         uuid.NewString(),
		OrderID:         snapshot.OrderID,
		Total:           snapshot.Total,
		PaymentMethod:   snapshot.PaymentMethod,
		HasPaymentProof: snapshot.HasPaymentProof,
		ItemCount:       snapshot.ItemCount(),
		PlacedAt:        placedAt,
	}
}

// NopPublisher is used when no orders topic is configured.
type NopPublisher struct{}

func (NopPublisher) OrderPlaced(context.Context, confirmation.Snapshot) error {
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
