package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowncoffee/rown-backend/api/middleware"
	cartsvc "github.com/rowncoffee/rown-backend/internal/cart"
	"github.com/rowncoffee/rown-backend/pkg/db/models"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"github.com/rowncoffee/rown-backend/pkg/redis/redistest"
)

const testSession = "c0ffee00-1111-4222-8333-444455556666"

type stubCatalog struct {
	products map[int64]models.Product
}

func (s stubCatalog) GetAvailableProduct(_ context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func testCatalog() stubCatalog {
	return stubCatalog{products: map[int64]models.Product{
		2: {ID: 2, Name: "Americano", Price: decimal.NewFromInt(24000), IsAvailable: true},
		3: {ID: 3, Name: "Latte", Price: decimal.NewFromInt(28000), IsAvailable: true},
	}}
}

func newSessions(t *testing.T) *cartsvc.Sessions {
	t.Helper()
	sessions, err := cartsvc.NewSessions(redistest.NewStore(), time.Hour, logger.Nop())
	require.NoError(t, err)
	return sessions
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithSessionID(ctx, testSession)
	return req.WithContext(ctx)
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var envelope struct {
		Data CartResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCartAddAndFetch(t *testing.T) {
	sessions := newSessions(t)
	add := CartAddItem(sessions, testCatalog(), logger.Nop())

	for _, body := range []string{`{"product_id":3}`, `{"product_id":3}`, `{"product_id":2}`} {
		rec := serve(add, newRequest(http.MethodPost, "/api/v1/cart/items", body, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := serve(CartFetch(sessions, logger.Nop()), newRequest(http.MethodGet, "/api/v1/cart", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	cart := decodeCart(t, rec)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(3), cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].Subtotal.Equal(decimal.NewFromInt(56000)))
	assert.Equal(t, 3, cart.TotalItemCount)
	assert.True(t, cart.TotalPrice.Equal(decimal.NewFromInt(80000)), "total %s", cart.TotalPrice)
}

func TestCartAddUnknownProduct(t *testing.T) {
	rec := serve(CartAddItem(newSessions(t), testCatalog(), logger.Nop()),
		newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":99}`, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartAddRejectsInvalidBody(t *testing.T) {
	rec := serve(CartAddItem(newSessions(t), testCatalog(), logger.Nop()),
		newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":0}`, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateQuantity(t *testing.T) {
	sessions := newSessions(t)
	add := CartAddItem(sessions, testCatalog(), logger.Nop())
	serve(add, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`, nil))
	serve(add, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`, nil))

	update := CartUpdateItem(sessions, logger.Nop())
	rec := serve(update, newRequest(http.MethodPatch, "/api/v1/cart/items/3", `{"quantity":4}`, map[string]string{"productId": "3"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decodeCart(t, rec).TotalItemCount)

	for _, qty := range []string{"0", "-1"} {
		rec = serve(update, newRequest(http.MethodPatch, "/api/v1/cart/items/2", `{"quantity":`+qty+`}`, map[string]string{"productId": "2"}))
		require.Equal(t, http.StatusOK, rec.Code)
		cart := decodeCart(t, rec)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, int64(3), cart.Items[0].ProductID)
	}

	rec = serve(update, newRequest(http.MethodPatch, "/api/v1/cart/items/3", `{}`, map[string]string{"productId": "3"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveAndClear(t *testing.T) {
	sessions := newSessions(t)
	add := CartAddItem(sessions, testCatalog(), logger.Nop())
	serve(add, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":3}`, nil))
	serve(add, newRequest(http.MethodPost, "/api/v1/cart/items", `{"product_id":2}`, nil))

	rec := serve(CartRemoveItem(sessions, logger.Nop()), newRequest(http.MethodDelete, "/api/v1/cart/items/3", "", map[string]string{"productId": "3"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeCart(t, rec).TotalItemCount)

	rec = serve(CartClear(sessions, logger.Nop()), newRequest(http.MethodDelete, "/api/v1/cart", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeCart(t, rec)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalPrice.IsZero())
}

func TestCartRemoveInvalidPathID(t *testing.T) {
	rec := serve(CartRemoveItem(newSessions(t), logger.Nop()),
		newRequest(http.MethodDelete, "/api/v1/cart/items/abc", "", map[string]string{"productId": "abc"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRequiresSession(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := serve(CartFetch(newSessions(t), logger.Nop()), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
