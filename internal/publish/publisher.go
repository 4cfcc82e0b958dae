package publish

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"factsheet/internal/config"
	reporterrors "factsheet/internal/errors"
	"factsheet/pkg/contracts/domain"
)

// Uploader copies a local file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
}

// Publisher conditionally uploads exported documents.
type Publisher struct {
	uploader Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
}

// NewPublisher creates a publisher uploading into bucket below prefix.
func NewPublisher(uploader Uploader, bucket, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{uploader: uploader, bucket: bucket, prefix: prefix, logger: logger}
}

// NewPublisherFromConfig creates the uploader named by cfg.Backend.
func NewPublisherFromConfig(cfg config.StorageConfig, logger *slog.Logger) (*Publisher, error) {
	uploader, err := NewUploader(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewPublisher(uploader, cfg.Bucket, cfg.Prefix, logger), nil
}

// Key returns the object key of a document: prefix/<file name>.
func (p *Publisher) Key(documentPath string) string {
	name := filepath.Base(documentPath)
	prefix := strings.Trim(p.prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Publish uploads documentPath when upload is set and reports whether it did.
// With upload unset it returns immediately without touching the network. An
// upload failure is a Publish error; the local document is left untouched.
func (p *Publisher) Publish(ctx context.Context, documentPath string, fund domain.FundID, upload bool) (bool, error) {
	if !upload {
		return false, nil
	}

	start := time.Now()
	key := p.Key(documentPath)
	if err := p.uploader.Upload(ctx, documentPath, p.bucket, key); err != nil {
		return false, reporterrors.Publish(fund.String(), err)
	}

	p.logger.InfoContext(ctx, "Published document",
		slog.String("fund", fund.String()),
		slog.String("bucket", p.bucket),
		slog.String("key", key),
		slog.Duration("duration", time.Since(start)))
	return true, nil
}
