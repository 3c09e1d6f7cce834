package paymentproof

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/rowncoffee/rown-backend/pkg/errors"
	"github.com/rowncoffee/rown-backend/pkg/storage/gcs"
)

const (
	defaultObjectName = "payment-proof"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Stored is where an uploaded proof ended up.
type Stored struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Uploader sends a validated proof to storage.
type Uploader interface {
	Upload(ctx context.Context, file File) (*Stored, error)
}

type uploadRecorder interface {
	IncProofUpload(result string)
}

type objectWriter interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (*gcs.Object, error)
}

var now = time.Now

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StorageUploader writes proofs straight to the object storage bucket.
type StorageUploader struct {
	bucket  objectWriter
	baseURL string
	metrics uploadRecorder
}

// NewStorageUploader builds an uploader over bucket. Public URLs are built as baseURL/path.
func NewStorageUploader(bucket objectWriter, baseURL string, metrics uploadRecorder) (*StorageUploader, error) {
	if bucket == nil {
		return nil, fmt.Errorf("bucket required")
	}
	return &StorageUploader{
		bucket:  bucket,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		metrics: metrics,
	}, nil
}

func (u *StorageUploader) Upload(ctx context.Context, file File) (*Stored, error) {
	stored, err := u.upload(ctx, file)
	record(u.metrics, err)
	return stored, err
}

func (u *StorageUploader) upload(ctx context.Context, file File) (*Stored, error) {
	if file.Open == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpload, "no file provided")
	}
	body, err := file.Open()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, fmt.Sprintf("read payment proof: %v", err))
	}
	defer body.Close()

	name := ObjectName(file.Name, now())
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	obj, err := u.bucket.Upload(ctx, name, contentType, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpload, err, err.Error())
	}

	path := obj.Name
	if path == "" {
		path = name
	}
	return &Stored{Path: path, URL: u.baseURL + "/" + path}, nil
}

// ObjectName prefixes the sanitized file name with the upload time in milliseconds.
func ObjectName(fileName string, at time.Time) string {
	clean := strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSpace(fileName), "-"), "-.")
	if clean == "" {
		clean = defaultObjectName
	}
	return fmt.Sprintf("%d-%s", at.UnixMilli(), clean)
}

func record(metrics uploadRecorder, err error) {
	if metrics == nil {
		return
	}
	if err != nil {
		metrics.IncProofUpload(resultFailure)
		return
	}
	metrics.IncProofUpload(resultSuccess)
}
