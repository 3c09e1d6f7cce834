package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rowncoffee/rown-backend/pkg/config"
	"github.com/rowncoffee/rown-backend/pkg/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

const pingTimeout = 5 * time.Second

var (
	errBucketRequired       = errors.New("gcs bucket name is required")
	errClientNotInitialized = errors.New("gcs client not initialized")

	// ErrObjectExists is returned when an upload would overwrite an existing object.
	ErrObjectExists = errors.New("gcs object already exists")
)

type Client struct {
	svc           *storage.Service
	defaultBucket string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes a stored object.
type Object struct {
	Bucket      string
	Name        string
	ContentType string
	Size        uint64
	MediaLink   string
}

// NewClient builds a Cloud Storage JSON API client and verifies bucket access.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	client, err := newClient(ctx, cfg.BucketName, clientOptions(gcp)...)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}
	return client, nil
}

func newClient(ctx context.Context, bucket string, opts ...option.ClientOption) (*Client, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errBucketRequired
	}
	opts = append(opts, option.WithScopes(storage.DevstorageReadWriteScope))
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs service: %w", err)
	}
	return &Client{svc: svc, defaultBucket: bucket}, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

func (c *Client) BucketHandle(name string) *Bucket {
	if c == nil {
		return nil
	}
	if name == "" {
		name = c.defaultBucket
	}
	return &Bucket{name: name, client: c}
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) Close() error {
	return nil
}

// Ping lists at most one object, which requires storage.objects.list on the bucket.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errClientNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.svc.Objects.List(c.defaultBucket).MaxResults(1).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gcs object check failed: %w", err)
	}
	return nil
}

type Bucket struct {
	name   string
	client *Client
}

func (b *Bucket) Name() string {
	return b.name
}

// Upload writes body as a new object. Existing objects are never overwritten.
func (b *Bucket) Upload(ctx context.Context, name, contentType string, body io.Reader) (*Object, error) {
	if b == nil || b.client == nil || b.client.svc == nil {
		return nil, errClientNotInitialized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("gcs object name is required")
	}

	call := b.client.svc.Objects.
		Insert(b.name, &storage.Object{Name: name, ContentType: contentType}).
		Media(body, googleapi.ContentType(contentType)).
		IfGenerationMatch(0).
		Context(ctx)

	res, err := call.Do()
	if err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectExists, name)
		}
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}

	return &Object{
		Bucket:      res.Bucket,
		Name:        res.Name,
		ContentType: res.ContentType,
		Size:        res.Size,
		MediaLink:   res.MediaLink,
	}, nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code == http.StatusPreconditionFailed
	}
	return false
}
