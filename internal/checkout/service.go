package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/internal/cart"
	"github.com/rowncoffee/rown-backend/internal/confirmation"
	"github.com/rowncoffee/rown-backend/internal/notifications"
	"github.com/rowncoffee/rown-backend/internal/orders"
	"github.com/rowncoffee/rown-backend/internal/paymentproof"
	pkgcheckout "github.com/rowncoffee/rown-backend/pkg/checkout"
	"github.com/rowncoffee/rown-backend/pkg/enums"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"github.com/rowncoffee/rown-backend/pkg/metrics"
)

const MsgProofRequired = "please upload the QRIS payment proof"

type cartOpener interface {
	Open(ctx context.Context, sessionID string) (*cart.Store, error)
}

type handoffWriter interface {
	Store(ctx context.Context, sessionID string, snapshot confirmation.Snapshot) error
}

type checkoutRecorder interface {
	ObserveCheckout(outcome, paymentMethod string, duration time.Duration)
}

var now = time.Now

// OrderDraft is what the buyer submits from the checkout form.
type OrderDraft struct {
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	PaymentMethod   enums.PaymentMethod
	AgreedToTerms   bool
	Proof           *paymentproof.File
}

// Receipt is returned for an accepted order.
type Receipt struct {
	OrderID  uuid.UUID
	Snapshot confirmation.Snapshot
}

// Service submits orders for guest sessions.
type Service interface {
	Submit(ctx context.Context, sessionID string, draft OrderDraft) (*Receipt, error)
}

type service struct {
	carts       cartOpener
	uploader    paymentproof.Uploader
	orders      orders.Gateway
	handoff     handoffWriter
	publisher   notifications.Publisher
	deliveryFee decimal.Decimal
	metrics     checkoutRecorder
	logg        *logger.Logger
}

// NewService builds the order submission orchestrator. uploader may be nil
// when proof storage is not configured; QRIS submissions then fail with a
// dependency error after validation.
func NewService(
	carts cartOpener,
	uploader paymentproof.Uploader,
	gateway orders.Gateway,
	handoff handoffWriter,
	publisher notifications.Publisher,
	deliveryFee decimal.Decimal,
	recorder checkoutRecorder,
	logg *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if handoff == nil {
		return nil, fmt.Errorf("confirmation handoff required")
	}
	if deliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		carts:       carts,
		uploader:    uploader,
		orders:      gateway,
		handoff:     handoff,
		publisher:   publisher,
		deliveryFee: deliveryFee,
		metrics:     recorder,
		logg:        logg,
	}, nil
}

func (s *service) Submit(ctx context.Context, sessionID string, draft OrderDraft) (*Receipt, error) {
	started := now()
	receipt, err := s.submit(ctx, sessionID, draft)
	if s.metrics != nil {
		s.metrics.ObserveCheckout(outcomeFor(err), string(draft.PaymentMethod), now().Sub(started))
	}
	return receipt, err
}

func (s *service) submit(ctx context.Context, sessionID string, draft OrderDraft) (*Receipt, error) {
	method := draft.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").WithDetails(map[string]any{
			"field": "payment_method",
		})
	}

	customer := pkgcheckout.CustomerDetails{
		Name:    draft.CustomerName,
		Phone:   draft.CustomerPhone,
		Address: draft.CustomerAddress,
	}.Normalize()
	if err := pkgcheckout.ValidateCustomer(customer); err != nil {
		return nil, err
	}
	if err := pkgcheckout.ValidateTerms(draft.AgreedToTerms); err != nil {
		return nil, err
	}
	if method.RequiresProof() {
		if draft.Proof == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, MsgProofRequired).WithDetails(map[string]any{
				"field": "payment_proof",
			})
		}
		if err := paymentproof.Validate(draft.Proof.FileInfo, paymentproof.ScopeCheckout); err != nil {
			return nil, err
		}
	}

	store, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var proofURL *string
	if method.RequiresProof() {
		url, err := s.uploadProof(ctx, *draft.Proof)
		if err != nil {
			return nil, err
		}
		proofURL = &url
	}

	lines := store.Items()
	total := store.TotalPrice().Add(s.deliveryFee)
	payload := orders.Payload{
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		PaymentMethod:   method,
		TotalAmount:     total,
		Items:           itemPayloads(lines),
		PaymentProofURL: proofURL,
	}

	orderID, err := s.orders.CreateOrder(ctx, payload)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithPaymentMethod(s.logg.WithOrderID(ctx, orderID.String()), string(method))
	snapshot := confirmation.Snapshot{
		OrderID:         orderID,
		CustomerName:    customer.Name,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		PaymentMethod:   method,
		Total:           total,
		Items:           lines,
		HasPaymentProof: proofURL != nil,
		PlacedAt:        now().UTC(),
	}

	// The order is already written; failures from here on are logged and the
	// submission still succeeds.
	if err := store.ClearCart(ctx); err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}
	if err := s.handoff.Store(ctx, sessionID, snapshot); err != nil {
		s.logg.Error(ctx, "checkout.handoff_failed", err)
	}
	if err := s.publisher.OrderPlaced(ctx, snapshot); err != nil {
		s.logg.Error(ctx, "checkout.publish_failed", err)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"item_count": snapshot.ItemCount(),
		"total":      total.String(),
	}), "checkout.order_placed")

	return &Receipt{OrderID: orderID, Snapshot: snapshot}, nil
}

func (s *service) uploadProof(ctx context.Context, proof paymentproof.File) (string, error) {
	if s.uploader == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "payment proof storage not configured")
	}
	stored, err := s.uploader.Upload(ctx, proof)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeUpload, err, err.Error())
	}
	if stored == nil || stored.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeUpload, "upload returned no url")
	}
	return stored.URL, nil
}

func itemPayloads(lines []cart.Line) []orders.ItemPayload {
	items := make([]orders.ItemPayload, 0, len(lines))
	for _, line := range lines {
		items = append(items, orders.ItemPayload{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			PriceAtOrder: line.UnitPrice,
		})
	}
	return items
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		return metrics.OutcomeValidation
	case pkgerrors.IsCode(err, pkgerrors.CodeUpload):
		return metrics.OutcomeUpload
	case pkgerrors.IsCode(err, pkgerrors.CodePersistence):
		return metrics.OutcomePersistence
	default:
		return metrics.OutcomeDependency
	}
}
