package paymentproof

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
)

const (
	defaultEdgeTimeout = 30 * time.Second
	errorBodyReadLimit = 4096
)

var (
	errEndpointRequired = errors.New("proof upload endpoint is required")
	errMissingURL       = errors.New("upload response did not include a url")
)

// EdgeUploader posts proofs to a storage edge function that answers with the stored URL.
type EdgeUploader struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	folder     string
	metrics    uploadRecorder
}

// EdgeOption configures optional uploader behavior.
type EdgeOption func(*EdgeUploader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) EdgeOption {
	return func(u *EdgeUploader) {
		if client != nil {
			u.httpClient = client
		}
	}
}

// WithFolder sets the storage folder sent alongside the file.
func WithFolder(folder string) EdgeOption {
	return func(u *EdgeUploader) {
		u.folder = strings.TrimSpace(folder)
	}
}

// WithMetrics records upload outcomes.
func WithMetrics(metrics uploadRecorder) EdgeOption {
	return func(u *EdgeUploader) {
		u.metrics = metrics
	}
}

// NewEdgeUploader builds an uploader for endpoint authenticated with apiKey.
func NewEdgeUploader(endpoint, apiKey string, timeout time.Duration, opts ...EdgeOption) (*EdgeUploader, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errEndpointRequired
	}
	if timeout <= 0 {
		timeout = defaultEdgeTimeout
	}

	uploader := &EdgeUploader{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(apiKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(uploader)
		}
	}
	return uploader, nil
}

type edgeResponse struct {
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

func (u *EdgeUploader) Upload(ctx context.Context, file File) (*Stored, error) {
	stored, err := u.upload(ctx, file)
	record(u.metrics, err)
	return stored, err
}

func (u *EdgeUploader) upload(ctx context.Context, file File) (*Stored, error) {
	if file.Open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpload, "no file provided")
	}

	body, contentType, err := u.buildForm(file)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, err.Error())
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
		req.Header.Set("apikey", u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		msg := fmt.Sprintf("upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
		return nil, pkgerrors.New(pkgerrors.CodeUpload, msg).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	var payload edgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, fmt.Sprintf("decode upload response: %v", err))
	}

	url := firstNonEmpty(payload.URL, payload.PublicURL, payload.Path)
	if url == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, errMissingURL, errMissingURL.Error())
	}
	return &Stored{Path: firstNonEmpty(payload.Path, url), URL: url}, nil
}

func (u *EdgeUploader) buildForm(file File) (io.Reader, string, error) {
	src, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("read payment proof: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = defaultObjectName
	}
	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if file.ContentType != "" {
		partHeader.Set("Content-Type", file.ContentType)
	} else {
		partHeader.Set("Content-Type", "application/octet-stream")
	}

	part, err := form.CreatePart(partHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", fmt.Errorf("copy payment proof: %w", err)
	}
	if u.folder != "" {
		if err := form.WriteField("folder", u.folder); err != nil {
			return nil, "", err
		}
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &buf, form.FormDataContentType(), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
