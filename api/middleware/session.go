package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowncoffee/rown-backend/api/responses"
	"github.com/rowncoffee/rown-backend/pkg/auth"
	"github.com/rowncoffee/rown-backend/pkg/config"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
)

// SessionHeader carries the guest session token in both directions.
const SessionHeader = "X-Session-Token"

var sessionNow = time.Now

// Session binds every request to a guest session. Requests without a token get
// a freshly minted one echoed back in SessionHeader; malformed or expired
// tokens are rejected so a client never silently loses its cart.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)

			var sessionID string
			if token == "" {
				id := uuid.New()
				minted, _, err := auth.MintSessionToken(cfg, sessionNow(), id)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session"))
					return
				}
				sessionID = id.String()
				w.Header().Set(SessionHeader, minted)
			} else {
				claims, err := auth.ParseSessionToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
					return
				}
				sessionID = claims.SessionID.String()
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(SessionHeader)); token != "" {
		return token
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
