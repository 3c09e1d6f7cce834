package product

import (
	"context"

	"github.com/rowncoffee/rown-backend/pkg/db/models"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

const (
	fallbackReasonNotConfigured = "not_configured"
	fallbackReasonQueryError    = "query_error"
)

// CatalogReader is the persistence surface the catalog needs.
type CatalogReader interface {
	ListAvailable(ctx context.Context) ([]models.Product, error)
}

type fallbackRecorder interface {
	IncCatalogFallback(reason string)
}

// Service serves the storefront menu.
type Service interface {
	// ListAvailableProducts never fails: when the store is missing or errors
	// the demo menu is returned instead.
	ListAvailableProducts(ctx context.Context) []models.Product
	GetAvailableProduct(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	reader  CatalogReader
	metrics fallbackRecorder
	logg    *logger.Logger
}

// NewService builds the catalog. A nil reader means no catalog store is configured.
func NewService(reader CatalogReader, metrics fallbackRecorder, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{reader: reader, metrics: metrics, logg: logg}
}

func (s *service) ListAvailableProducts(ctx context.Context) []models.Product {
	if s.reader == nil {
		return s.fallback(ctx, fallbackReasonNotConfigured, nil)
	}

	products, err := s.reader.ListAvailable(ctx)
	if err != nil {
		return s.fallback(ctx, fallbackReasonQueryError, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products
}

func (s *service) GetAvailableProduct(ctx context.Context, id int64) (*models.Product, error) {
	for _, p := range s.ListAvailableProducts(ctx) {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
		WithDetails(map[string]any{"product_id": id})
}

func (s *service) fallback(ctx context.Context, reason string, cause error) []models.Product {
	fields := map[string]any{"reason": reason}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "catalog.fallback")
	if s.metrics != nil {
		s.metrics.IncCatalogFallback(reason)
	}
	return FallbackProducts()
}
