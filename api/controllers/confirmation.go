package controllers

import (
	"context"
	"net/http"

	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/internal/confirmation"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

type confirmationReader interface {
	Take(ctx context.Context, sessionID string) (*confirmation.Snapshot, error)
}

type confirmationResponse struct {
	Order       *confirmation.Snapshot `json:"order"`
	Message     string                 `json:"message"`
	WhatsAppURL string                 `json:"whatsapp_url"`
}

// Confirmation returns the order just placed by the session together with
// the chat link the buyer uses to notify the merchant.
func Confirmation(handoff confirmationReader, messenger confirmation.Messenger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handoff == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "confirmation service unavailable"))
			return
		}

		sessionID, err := sessionIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snapshot, err := handoff.Take(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmationResponse{
			Order:       snapshot,
			Message:     messenger.Message(*snapshot),
			WhatsAppURL: messenger.Link(*snapshot),
		})
	}
}
