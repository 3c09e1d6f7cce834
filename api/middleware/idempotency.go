package middleware

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rowncoffee/rown-backend/api/responses"
	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	pkgredis "github.com/rowncoffee/rown-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"

	// UploadIdempotencyTTL keeps standalone proof uploads replayable for a day.
	UploadIdempotencyTTL = 24 * time.Hour
	// CheckoutIdempotencyTTL outlives the session so a late retry never places a second order.
	CheckoutIdempotencyTTL = 7 * 24 * time.Hour

	// reservationTTL bounds how long a crashed request can block its key.
	reservationTTL = 2 * time.Minute
)

// idempotencyRecord with a zero Status is a reservation held by a request
// that has not finished yet.
type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
}

func (r idempotencyRecord) pending() bool {
	return r.Status == 0
}

// Idempotency replays the stored response when a session retries the wrapped
// route with the same Idempotency-Key. The header is optional; requests
// without it run normally. The key is reserved before the handler runs, so a
// concurrent duplicate gets CONFLICT instead of a second execution. Server
// failures and rate limit rejections release the reservation so the retry
// reaches the handler.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || ttl <= 0 || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				var maxErr *http.MaxBytesError
				if errors.As(err, &maxErr) {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := requestFingerprint(r.Header.Get("Content-Type"), body)
			key := store.IdempotencyKey(buildScope(r), idempotencyKey)

			record, found, err := loadRecord(ctx, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if !found {
				reservation, _ := json.Marshal(idempotencyRecord{RequestHash: fingerprint})
				reserved, err := store.SetNX(ctx, key, string(reservation), reservationTTL)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key"))
					return
				}
				if !reserved {
					// Lost the race; whatever won is now visible.
					if record, found, err = loadRecord(ctx, store, key); err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
						return
					}
					if !found {
						responses.WriteError(ctx, logg, w, errInFlight())
						return
					}
				}
			}
			if found {
				switch {
				case record.RequestHash != fingerprint:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case record.pending():
					responses.WriteError(ctx, logg, w, errInFlight())
				default:
					writeStoredResponse(w, record)
				}
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// The outcome is settled even if the client has gone away.
			settleCtx := context.WithoutCancel(ctx)
			if !recordable(rec.statusOrOK()) {
				if delErr := store.Del(settleCtx, key); delErr != nil {
					logError(ctx, logg, "idempotency.release_failed", delErr)
				}
				return
			}

			final := idempotencyRecord{
				Status:      rec.statusOrOK(),
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: fingerprint,
			}
			if ct := rec.Header().Get("Content-Type"); ct != "" {
				final.Headers = map[string]string{"Content-Type": ct}
			}

			payload, marshalErr := json.Marshal(final)
			if marshalErr != nil {
				logError(ctx, logg, "idempotency.marshal_failed", marshalErr)
				return
			}
			if setErr := store.Set(settleCtx, key, string(payload), ttl); setErr != nil {
				logError(ctx, logg, "idempotency.persist_failed", setErr)
			}
		})
	}
}

func loadRecord(ctx context.Context, store pkgredis.IdempotencyStore, key string) (idempotencyRecord, bool, error) {
	var record idempotencyRecord
	stored, err := store.Get(ctx, key)
	if errors.Is(err, pkgredis.Nil) {
		return record, false, nil
	}
	if err != nil {
		return record, false, err
	}
	if stored == "" {
		return record, false, nil
	}
	if err := json.Unmarshal([]byte(stored), &record); err != nil {
		return record, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return record, true, nil
}

func errInFlight() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress")
}

func recordable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusTooManyRequests
}

func buildScope(r *http.Request) string {
	parts := []string{
		SessionIDFromContext(r.Context()),
		r.Method,
		r.URL.Path,
	}
	return strings.Join(parts, "|")
}

func writeStoredResponse(w http.ResponseWriter, record idempotencyRecord) {
	w.Header().Set(replayedHeader, "true")
	if ct, ok := record.Headers["Content-Type"]; ok && ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
