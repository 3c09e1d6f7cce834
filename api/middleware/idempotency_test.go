package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/redis/redistest"
)

func checkoutRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	return req.WithContext(WithSessionID(req.Context(), "session-1"))
}

func TestIdempotencyMiddlewarePassesThroughWithoutHeader(t *testing.T) {
	store := redistest.NewStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := checkoutRequest(`{"a":1}`)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if store.Writes != 0 {
		t.Fatalf("expected no idempotency records, got %d writes", store.Writes)
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := redistest.NewStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_id":"abc"}`))
	}))

	req := checkoutRequest(`{"customer_name":"Rina"}`)
	req.Header.Set(idempotencyHeader, "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := checkoutRequest(`{"customer_name":"Rina"}`)
	replay.Header.Set(idempotencyHeader, "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get(replayedHeader) != "true" {
		t.Fatalf("expected replay marker header")
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"order_id":"abc"}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyMiddlewareDetectsBodyChange(t *testing.T) {
	store := redistest.NewStore()
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := checkoutRequest(`{"foo":"bar"}`)
	req.Header.Set(idempotencyHeader, "xyz")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	replay := checkoutRequest(`{"foo":"diff"}`)
	replay.Header.Set(idempotencyHeader, "xyz")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareDoesNotRecordServerFailures(t *testing.T) {
	store := redistest.NewStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	for i := 0; i < 2; i++ {
		req := checkoutRequest(`{}`)
		req.Header.Set(idempotencyHeader, "retry-me")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected failed request to be retried, handler ran %d times", calls)
	}
	if store.Deletes != 2 {
		t.Fatalf("expected each failed attempt to release its reservation, got %d deletes", store.Deletes)
	}
}

func TestIdempotencyMiddlewareDoesNotRecordRateLimitRejections(t *testing.T) {
	store := redistest.NewStore()
	status := http.StatusTooManyRequests
	var calls int
	handler := Idempotency(store, UploadIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	first := checkoutRequest(`{}`)
	first.Header.Set(idempotencyHeader, "later")
	handler.ServeHTTP(httptest.NewRecorder(), first)

	status = http.StatusCreated
	second := checkoutRequest(`{}`)
	second.Header.Set(idempotencyHeader, "later")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, second)

	if calls != 2 || resp.Code != http.StatusCreated {
		t.Fatalf("expected retry after 429 to reach handler, calls=%d status=%d", calls, resp.Code)
	}
	if store.Deletes != 1 {
		t.Fatalf("expected only the 429 reservation released, got %d deletes", store.Deletes)
	}

	third := checkoutRequest(`{}`)
	third.Header.Set(idempotencyHeader, "later")
	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, third)
	if calls != 2 || replay.Header().Get(replayedHeader) != "true" {
		t.Fatalf("expected the 201 to be replayed, calls=%d", calls)
	}
}

func TestIdempotencyMiddlewareScopesKeysBySession(t *testing.T) {
	store := redistest.NewStore()
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, session := range []string{"session-1", "session-2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
		req = req.WithContext(WithSessionID(req.Context(), session))
		req.Header.Set(idempotencyHeader, "shared")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected distinct sessions not to share records, handler ran %d times", calls)
	}
}

func TestIdempotencyMiddlewareRejectsDuplicateWhileInFlight(t *testing.T) {
	store := redistest.NewStore()
	var calls int
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// A duplicate arrives before the first attempt has answered.
			dup := checkoutRequest(`{"customer_name":"Rina"}`)
			dup.Header.Set(idempotencyHeader, "double-tap")
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, dup)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	req := checkoutRequest(`{"customer_name":"Rina"}`)
	req.Header.Set(idempotencyHeader, "double-tap")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first attempt 201 got %d", resp.Code)
	}
	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d", calls)
	}
	if inner == nil || inner.Code != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate to get 409")
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(inner.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeConflict, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewareFailsClosedWhenReservationFails(t *testing.T) {
	store := redistest.NewStore()
	store.SetErr = errors.New("redis down")
	var calls int
	handler := Idempotency(store, CheckoutIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	req := checkoutRequest(`{}`)
	req.Header.Set(idempotencyHeader, "unlucky")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if calls != 0 {
		t.Fatalf("expected handler not to run without a reservation, ran %d", calls)
	}
}

func TestRequestFingerprintIgnoresMultipartBoundary(t *testing.T) {
	form := func(boundary, name string) (string, []byte) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		if err := writer.SetBoundary(boundary); err != nil {
			t.Fatalf("set boundary: %v", err)
		}
		_ = writer.WriteField("customer_name", name)
		part, _ := writer.CreateFormFile("payment_proof", "proof.jpg")
		_, _ = part.Write([]byte("jpeg bytes"))
		_ = writer.Close()
		return writer.FormDataContentType(), buf.Bytes()
	}

	typeA, bodyA := form("boundaryAAAA", "Rina")
	typeB, bodyB := form("boundaryBBBB", "Rina")
	typeC, bodyC := form("boundaryCCCC", "Budi")

	if hashBody(bodyA) == hashBody(bodyB) {
		t.Fatalf("raw bodies should differ by boundary")
	}
	if requestFingerprint(typeA, bodyA) != requestFingerprint(typeB, bodyB) {
		t.Fatalf("expected identical fields to share a fingerprint")
	}
	if requestFingerprint(typeA, bodyA) == requestFingerprint(typeC, bodyC) {
		t.Fatalf("expected a changed field to change the fingerprint")
	}
	if requestFingerprint("application/json", []byte(`{"a":1}`)) != hashBody([]byte(`{"a":1}`)) {
		t.Fatalf("expected non-multipart bodies to hash as-is")
	}
}
