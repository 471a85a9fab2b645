package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/formcraft-backend/internal/domain/forms"
	"github.com/yungbote/formcraft-backend/internal/platform/apierr"
	"github.com/yungbote/formcraft-backend/internal/platform/gcp"
	"github.com/yungbote/formcraft-backend/internal/platform/logger"
)

const MaxUploadBytes = 10 << 20

var (
	ErrFileTooLarge = apierr.New(http.StatusRequestEntityTooLarge, "file_too_large", errors.New("File must be 10 MB or smaller"))
	ErrNoFileField  = apierr.BadRequest("no_file_field", errors.New("This form does not accept files"))
)

type UploadService interface {
	Enabled() bool
	// UploadFile stores a file for a published form and returns its public URL. The
	// client submits that URL as the file field's value.
	UploadFile(ctx context.Context, formID uuid.UUID, filename, contentType string, size int64, r io.Reader) (string, error)
}

type uploadService struct {
	log    *logger.Logger
	bucket gcp.UploadBucket
	forms  FormService
}

// NewUploadService accepts a nil bucket; every upload then fails with ErrUploadsDisabled.
func NewUploadService(log *logger.Logger, bucket gcp.UploadBucket, formService FormService) UploadService {
	return &uploadService{
		log:    log.With("service", "UploadService"),
		bucket: bucket,
		forms:  formService,
	}
}

func (s *uploadService) Enabled() bool { return s.bucket != nil }

func (s *uploadService) UploadFile(ctx context.Context, formID uuid.UUID, filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.bucket == nil {
		return "", ErrUploadsDisabled
	}
	if size > MaxUploadBytes {
		return "", ErrFileTooLarge
	}
	form, err := s.forms.GetPublishedForm(ctx, formID)
	if err != nil {
		return "", err
	}
	if !hasFileField(form) {
		return "", ErrNoFileField
	}

	key := gcp.ObjectKey(formID.String(), uuid.NewString(), filename)
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = gcp.ContentTypeForKey(key)
	}
	// One byte past the limit is read so an understated size is still caught.
	lr := &io.LimitedReader{R: r, N: MaxUploadBytes + 1}
	url, err := s.bucket.Upload(ctx, key, contentType, lr)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	if lr.N <= 0 {
		if derr := s.bucket.Delete(ctx, key); derr != nil {
			s.log.Warn("Oversized upload cleanup failed", "key", key, "error", derr)
		}
		return "", ErrFileTooLarge
	}
	s.log.Info("File uploaded", "form_id", formID, "key", key)
	return url, nil
}

func hasFileField(form forms.GeneratedForm) bool {
	for _, f := range form.Fields {
		if f.Type == forms.FieldFile {
			return true
		}
	}
	return false
}
