package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"

	"factsheet/internal/config"
)

const documentContentType = "application/pdf"

// NewUploader creates the uploader for the configured backend.
func NewUploader(cfg config.StorageConfig, logger *slog.Logger) (Uploader, error) {
	switch cfg.Backend {
	case config.StorageBackendGCS:
		return NewGCSUploader(cfg, logger), nil
	case config.StorageBackendHTTP:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("storage backend %q needs an endpoint", cfg.Backend)
		}
		return NewHTTPUploader(cfg.Endpoint, cfg.Retries, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// GCSUploader uploads to Google Cloud Storage. The API client is created on
// first use so runs that never upload never authenticate.
type GCSUploader struct {
	opts   []option.ClientOption
	logger *slog.Logger

	once    sync.Once
	service *storage.Service
	initErr error
}

// NewGCSUploader creates an uploader using application default credentials
// unless a credentials file or endpoint is configured.
func NewGCSUploader(cfg config.StorageConfig, logger *slog.Logger) *GCSUploader {
	if logger == nil {
		logger = slog.Default()
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimSuffix(cfg.Endpoint, "/")+"/storage/v1/"))
		if cfg.CredentialsFile == "" {
			opts = append(opts, option.WithoutAuthentication())
		}
	}
	return &GCSUploader{opts: opts, logger: logger}
}

func (u *GCSUploader) client(ctx context.Context) (*storage.Service, error) {
	u.once.Do(func() {
		u.service, u.initErr = storage.NewService(context.WithoutCancel(ctx), u.opts...)
	})
	return u.service, u.initErr
}

// Upload implements Uploader
func (u *GCSUploader) Upload(ctx context.Context, localPath, bucket, key string) error {
	svc, err := u.client(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	obj := &storage.Object{Name: key, ContentType: documentContentType}
	stored, err := svc.Objects.Insert(bucket, obj).Media(f).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to upload gs://%s/%s: %w", bucket, key, err)
	}

	u.logger.DebugContext(ctx, "Uploaded object",
		slog.String("bucket", bucket),
		slog.String("object", stored.Name),
		slog.Uint64("size", stored.Size))
	return nil
}

// HTTPUploader PUTs documents to <endpoint>/<bucket>/<key>, which fits
// S3-compatible gateways and presigning proxies.
type HTTPUploader struct {
	client *resty.Client
	logger *slog.Logger
}

// NewHTTPUploader creates an uploader with retries on transport errors and
// 5xx responses.
func NewHTTPUploader(endpoint string, retries int, logger *slog.Logger) *HTTPUploader {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(endpoint, "/")).
		SetTimeout(5 * time.Minute).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	return &HTTPUploader{client: client, logger: logger}
}

// Upload implements Uploader
func (u *HTTPUploader) Upload(ctx context.Context, localPath, bucket, key string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}

	target := "/" + url.PathEscape(bucket) + "/" + escapeKey(key)
	resp, err := u.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", documentContentType).
		SetBody(data).
		Put(target)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", target, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to upload %s: %s", target, resp.Status())
	}

	u.logger.DebugContext(ctx, "Uploaded object",
		slog.String("target", target),
		slog.Int("status", resp.StatusCode()),
		slog.Int("size", len(data)))
	return nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
