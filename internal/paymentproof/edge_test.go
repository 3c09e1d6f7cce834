package paymentproof

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

func TestEdgeUploaderSendsMultipartWithCredentials(t *testing.T) {
	var (
		gotAuth, gotKey, gotFolder, gotName, gotType string
		gotBody                                      []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotFolder = r.FormValue("folder")
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			gotName = header.Filename
			gotType = header.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(f)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"publicUrl":"https://cdn.example.com/payment-proofs/receipt.png","path":"payment-proofs/receipt.png"}`)
	}))
	t.Cleanup(srv.Close)

	recorder := &fakeRecorder{}
	uploader, err := NewEdgeUploader(srv.URL, "anon-key", time.Second,
		WithHTTPClient(srv.Client()), WithFolder("payment-proofs"), WithMetrics(recorder))
	require.NoError(t, err)

	stored, err := uploader.Upload(context.Background(), memoryFile("receipt.png", "image/png", pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/payment-proofs/receipt.png", stored.URL)
	assert.Equal(t, "payment-proofs/receipt.png", stored.Path)
	assert.Equal(t, "Bearer anon-key", gotAuth)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "payment-proofs", gotFolder)
	assert.Equal(t, "receipt.png", gotName)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, pngBytes, gotBody)
	assert.Equal(t, []string{resultSuccess}, recorder.results)
}

func TestEdgeUploaderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "invalid api key")
	}))
	t.Cleanup(srv.Close)

	recorder := &fakeRecorder{}
	uploader, err := NewEdgeUploader(srv.URL, "bad", time.Second, WithHTTPClient(srv.Client()), WithMetrics(recorder))
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), memoryFile("receipt.png", "image/png", pngBytes))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpload))
	assert.Equal(t, "upload failed with status 403: invalid api key", pkgerrors.As(err).Message())
	assert.Equal(t, []string{resultFailure}, recorder.results)
}

func TestEdgeUploaderMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	uploader, err := NewEdgeUploader(srv.URL, "", time.Second, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), memoryFile("receipt.png", "image/png", pngBytes))
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingURL)
}

func TestNewEdgeUploaderRequiresEndpoint(t *testing.T) {
	_, err := NewEdgeUploader("  ", "key", 0)
	assert.ErrorIs(t, err, errEndpointRequired)
}
