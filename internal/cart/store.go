package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	pkgredis "github.com/rowncoffee/rown-backend/pkg/redis"
)

// Sessions opens the persisted cart of a guest session.
type Sessions struct {
	store pkgredis.SessionStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewSessions builds a cart opener. ttl bounds how long an untouched cart survives.
func NewSessions(store pkgredis.SessionStore, ttl time.Duration, logg *logger.Logger) (*Sessions, error) {
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Sessions{store: store, ttl: ttl, logg: logg}, nil
}

// Open rehydrates the cart for sessionID. A missing or unreadable document
// yields an empty cart; only a storage failure is returned as an error.
func (s *Sessions) Open(ctx context.Context, sessionID string) (*Store, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}

	key := s.store.CartKey(sessionID)
	raw, err := s.store.Get(ctx, key)
	if err != nil && !errors.Is(err, pkgredis.Nil) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	store := &Store{sessions: s, key: key}
	if raw == "" {
		return store, nil
	}

	if err := json.Unmarshal([]byte(raw), &store.cart); err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"cart_key": key, "error": err.Error()})
		s.logg.Warn(logCtx, "cart.rehydrate_failed")
		store.cart = Cart{}
	}
	return store, nil
}

// Store is the cart of one session. Every mutation writes the whole cart back
// to the session slot before returning.
type Store struct {
	sessions *Sessions
	key      string
	cart     Cart
}

// AddToCart adds one unit of the product.
func (s *Store) AddToCart(ctx context.Context, p models.Product) error {
	return s.mutate(ctx, func(c *Cart) { c.Add(p) })
}

// UpdateQuantity sets a line quantity; values of 0 or less remove the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	return s.mutate(ctx, func(c *Cart) { c.UpdateQuantity(productID, quantity) })
}

func (s *Store) RemoveFromCart(ctx context.Context, productID int64) error {
	return s.mutate(ctx, func(c *Cart) { c.Remove(productID) })
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func(c *Cart) { c.Clear() })
}

func (s *Store) Items() []Line {
	return s.cart.Lines()
}

func (s *Store) TotalItemCount() int {
	return s.cart.TotalItemCount()
}

func (s *Store) TotalPrice() decimal.Decimal {
	return s.cart.TotalPrice()
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() Cart {
	return New(s.cart.Lines()...)
}

func (s *Store) mutate(ctx context.Context, fn func(*Cart)) error {
	next := s.Snapshot()
	fn(&next)

	payload, err := json.Marshal(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.sessions.store.Set(ctx, s.key, string(payload), s.sessions.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	s.cart = next
	return nil
}
