package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/rowncoffee/rown-backend/api/middleware"
	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/api/validators"
	cartsvc "github.com/rowncoffee/rown-backend/internal/cart"
	"github.com/rowncoffee/rown-backend/pkg/db/models"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

type cartOpener interface {
	Open(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

type productLookup interface {
	GetAvailableProduct(ctx context.Context, id int64) (*models.Product, error)
}

// CartFetch returns the session's cart with its totals.
func CartFetch(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store))
	}
}

// CartAddItem adds one unit of a catalog product. Price, name and image come
// from the catalog, never from the client.
func CartAddItem(carts cartOpener, catalog productLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		store, err := openCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.GetAvailableProduct(r.Context(), payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.AddToCart(r.Context(), *product); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store))
	}
}

// CartUpdateItem sets a line quantity; 0 or less removes the line.
func CartUpdateItem(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := openCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := store.UpdateQuantity(r.Context(), productID, *payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store))
	}
}

func CartRemoveItem(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := openCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.RemoveFromCart(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store))
	}
}

func CartClear(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := openCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.ClearCart(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store))
	}
}

func openCart(r *http.Request, carts cartOpener) (*cartsvc.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	sessionID := strings.TrimSpace(middleware.SessionIDFromContext(r.Context()))
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return carts.Open(r.Context(), sessionID)
}
