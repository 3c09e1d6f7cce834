package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rowncoffee/rown-backend/api/controllers"
	cartcontrollers "github.com/rowncoffee/rown-backend/api/controllers/cart"
	"github.com/rowncoffee/rown-backend/api/middleware"
	"github.com/rowncoffee/rown-backend/internal/cart"
	checkoutsvc "github.com/rowncoffee/rown-backend/internal/checkout"
	"github.com/rowncoffee/rown-backend/internal/confirmation"
	"github.com/rowncoffee/rown-backend/internal/paymentproof"
	products "github.com/rowncoffee/rown-backend/internal/products"
	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"github.com/rowncoffee/rown-backend/pkg/redis"
)

// requestStore backs idempotent replays and rate limiting.
type requestStore interface {
	redis.IdempotencyStore
	redis.RateLimiter
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store requestStore,
	metricsHandler http.Handler,
	healthDeps []controllers.Dependency,
	productService products.Service,
	carts *cart.Sessions,
	checkoutService checkoutsvc.Service,
	handoff *confirmation.Handoff,
	messenger confirmation.Messenger,
	uploader paymentproof.Uploader,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.Window,
		cfg.RateLimit.CheckoutIPLimit,
	)
	uploadPolicy := middleware.NewRateLimitPolicy(
		"payment_proof",
		cfg.RateLimit.Window,
		cfg.RateLimit.UploadIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps...))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.MaxBodyBytes(cfg.Checkout.MaxRequestBytes()))
		r.Use(middleware.Session(cfg.Session, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/{productId}", controllers.ProductDetail(productService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(carts, logg))
			r.Delete("/", cartcontrollers.CartClear(carts, logg))
			r.Post("/items", cartcontrollers.CartAddItem(carts, productService, logg))
			r.Patch("/items/{productId}", cartcontrollers.CartUpdateItem(carts, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(carts, logg))
		})

		r.With(
			middleware.RateLimit(checkoutPolicy, store, logg),
			middleware.Idempotency(store, middleware.CheckoutIdempotencyTTL, logg),
		).Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Get("/confirmation", controllers.Confirmation(handoff, messenger, logg))

		r.With(
			middleware.RateLimit(uploadPolicy, store, logg),
			middleware.Idempotency(store, middleware.UploadIdempotencyTTL, logg),
		).Post("/payment-proofs", controllers.PaymentProofUpload(uploader, logg))
	})

	return r
}
