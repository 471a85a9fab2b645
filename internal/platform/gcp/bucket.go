package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

// ErrUploadsDisabled is returned when no bucket is configured.
var ErrUploadsDisabled = errors.New("uploads are not configured")

type UploadBucket interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type uploadBucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    UploadsConfig
}

// NewUploadBucket opens a storage client for cfg. It returns ErrUploadsDisabled when
// cfg has no bucket.
func NewUploadBucket(ctx context.Context, log *logger.Logger, cfg UploadsConfig) (UploadBucket, error) {
	if !cfg.Enabled() {
		return nil, ErrUploadsDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	switch cfg.Mode {
	case StorageModeEmulator:
		// The storage client reads STORAGE_EMULATOR_HOST itself.
		opts = append(opts, option.WithoutAuthentication())
	default:
		opts = append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	b := &uploadBucket{log: log.With("client", "UploadBucket"), client: client, cfg: cfg}
	b.log.Info("Upload bucket initialized", "bucket", cfg.Bucket, "mode", cfg.Mode, "public_base_url", cfg.PublicBaseURL)
	return b, nil
}

func (b *uploadBucket) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.cfg.Bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = ContentTypeForKey(key)
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write upload %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close upload %q: %w", key, err)
	}
	return b.PublicURL(key), nil
}

func (b *uploadBucket) Delete(ctx context.Context, key string) error {
	err := b.client.Bucket(b.cfg.Bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete upload %q: %w", key, err)
	}
	return nil
}

func (b *uploadBucket) PublicURL(key string) string {
	return publicURL(b.cfg, key)
}

func publicURL(cfg UploadsConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.Mode == StorageModeEmulator {
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(cfg.Bucket), url.PathEscape(key))
	}
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Bucket, key)
}

// ObjectKey builds forms/<formID>/<id>-<name>, keeping only a safe base name.
func ObjectKey(formID, id, filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	name = strings.Trim(sb.String(), "._")
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("forms/%s/%s-%s", formID, id, name)
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(key)
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".txt"):
		return "text/plain"
	case strings.HasSuffix(s, ".csv"):
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
