package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes recorded on checkout_submissions_total.
const (
	OutcomeSuccess     = "success"
	OutcomeValidation  = "validation"
	OutcomeUpload      = "upload"
	OutcomePersistence = "persistence"
	OutcomeDependency  = "dependency"
)

// Storefront records checkout, catalog and payment proof activity.
// All methods are safe on a nil receiver.
type Storefront struct {
	submissions      *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	catalogFallbacks *prometheus.CounterVec
	proofUploads     *prometheus.CounterVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Time spent handling an order submission.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	catalogFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_fallback_total",
		Help: "Catalog reads served from the built-in menu.",
	}, []string{"reason"})
	proofUploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_proof_uploads_total",
		Help: "Payment proof uploads by result.",
	}, []string{"result"})
	reg.MustRegister(submissions, checkoutDuration, catalogFallbacks, proofUploads)
	return &Storefront{
		submissions:      submissions,
		checkoutDuration: checkoutDuration,
		catalogFallbacks: catalogFallbacks,
		proofUploads:     proofUploads,
	}
}

// ObserveCheckout counts a submission outcome and its duration.
func (s *Storefront) ObserveCheckout(outcome, paymentMethod string, duration time.Duration) {
	if s == nil || s.submissions == nil {
		return
	}
	s.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
	s.checkoutDuration.WithLabelValues(normalizeLabel(paymentMethod)).Observe(duration.Seconds())
}

// IncCatalogFallback counts a catalog read answered by the fallback menu.
func (s *Storefront) IncCatalogFallback(reason string) {
	if s == nil || s.catalogFallbacks == nil {
		return
	}
	s.catalogFallbacks.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncProofUpload counts a payment proof upload attempt.
func (s *Storefront) IncProofUpload(result string) {
	if s == nil || s.proofUploads == nil {
		return
	}
	s.proofUploads.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
