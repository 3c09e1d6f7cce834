package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rowncoffee/rown-backend/api/middleware"
	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/api/validators"
	checkoutsvc "github.com/rowncoffee/rown-backend/internal/checkout"
	"github.com/rowncoffee/rown-backend/internal/paymentproof"
	"github.com/rowncoffee/rown-backend/pkg/enums"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

const (
	ConfirmationPath  = "/api/v1/confirmation"
	paymentProofField = "payment_proof"
)

// Checkout submits the session's cart as an order. It accepts either a
// multipart form carrying the payment proof or a JSON body for cash orders.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var draft checkoutsvc.OrderDraft
		if validators.IsMultipart(r) {
			draft, err = checkoutDraftFromForm(r)
		} else {
			draft, err = checkoutDraftFromJSON(r)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Submit(r.Context(), sessionID, draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:          receipt.OrderID,
			PaymentMethod:    receipt.Snapshot.PaymentMethod,
			ConfirmationPath: ConfirmationPath,
		})
	}
}

// checkoutRequest only bounds field lengths; presence and terms are checked by
// the checkout service so its messages and ordering apply to both encodings.
type checkoutRequest struct {
	CustomerName    string `json:"customer_name" validate:"max=200"`
	CustomerPhone   string `json:"customer_phone" validate:"max=32"`
	CustomerAddress string `json:"customer_address" validate:"max=500"`
	PaymentMethod   string `json:"payment_method"`
	AgreedToTerms   bool   `json:"agreed_to_terms"`
}

func (p checkoutRequest) draft() (checkoutsvc.OrderDraft, error) {
	method, err := parsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return checkoutsvc.OrderDraft{}, err
	}
	return checkoutsvc.OrderDraft{
		CustomerName:    strings.TrimSpace(p.CustomerName),
		CustomerPhone:   strings.TrimSpace(p.CustomerPhone),
		CustomerAddress: strings.TrimSpace(p.CustomerAddress),
		PaymentMethod:   method,
		AgreedToTerms:   p.AgreedToTerms,
	}, nil
}

type checkoutResponse struct {
	OrderID          uuid.UUID           `json:"order_id"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	ConfirmationPath string              `json:"confirmation_path"`
}

func checkoutDraftFromJSON(r *http.Request) (checkoutsvc.OrderDraft, error) {
	var payload checkoutRequest
	if err := validators.DecodeJSONBody(r, &payload); err != nil {
		return checkoutsvc.OrderDraft{}, err
	}
	return payload.draft()
}

func checkoutDraftFromForm(r *http.Request) (checkoutsvc.OrderDraft, error) {
	if err := validators.ParseMultipartForm(r); err != nil {
		return checkoutsvc.OrderDraft{}, err
	}
	payload := checkoutRequest{
		CustomerName:    validators.FormValue(r, "customer_name"),
		CustomerPhone:   validators.FormValue(r, "customer_phone"),
		CustomerAddress: validators.FormValue(r, "customer_address"),
		PaymentMethod:   validators.FormValue(r, "payment_method"),
		AgreedToTerms:   formBool(validators.FormValue(r, "agreed_to_terms")),
	}
	if err := validators.Struct(&payload); err != nil {
		return checkoutsvc.OrderDraft{}, err
	}
	draft, err := payload.draft()
	if err != nil {
		return checkoutsvc.OrderDraft{}, err
	}

	if header := validators.OptionalFile(r, paymentProofField); header != nil {
		file, err := paymentproof.FromMultipart(header)
		if err != nil {
			return checkoutsvc.OrderDraft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable payment proof")
		}
		draft.Proof = &file
	}
	return draft, nil
}

func parsePaymentMethod(raw string) (enums.PaymentMethod, error) {
	method, err := enums.ParsePaymentMethod(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
			WithDetails(map[string]any{"field": "payment_method"})
	}
	return method, nil
}

// formBool accepts checkbox values ("on") as well as strconv booleans.
func formBool(value string) bool {
	if strings.EqualFold(value, "on") || strings.EqualFold(value, "yes") {
		return true
	}
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}

func sessionIDFromRequest(r *http.Request) (string, error) {
	sessionID := strings.TrimSpace(middleware.SessionIDFromContext(r.Context()))
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return sessionID, nil
}
