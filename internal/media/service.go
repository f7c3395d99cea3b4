package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kosfinder/internal/audit"
	dErrors "kosfinder/pkg/domain-errors"
	strutil "kosfinder/pkg/platform/strings"
)

// maxImagesPerUpload caps a single upload batch.
const maxImagesPerUpload = 10

// maxImageBytes caps one decoded image at 5 MiB.
const maxImageBytes = 5 << 20

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UploadedImage is one stored image reference.
type UploadedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service decodes base64 image payloads and moves them in and out of the
// blob store.
type Service struct {
	blobs  BlobStore
	audit  *audit.Publisher
	logger *slog.Logger
}

func NewService(blobs BlobStore, auditPublisher *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{blobs: blobs, audit: auditPublisher, logger: logger}
}

// UploadImages stores a batch of data-URI images concurrently and returns
// the references in input order. The batch is all-or-nothing on validation;
// a failed store write aborts the rest.
func (s *Service) UploadImages(ctx context.Context, payloads []string) ([]UploadedImage, error) {
	if len(payloads) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no images supplied")
	}
	if len(payloads) > maxImagesPerUpload {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("at most %d images per upload", maxImagesPerUpload))
	}

	type decoded struct {
		data        []byte
		contentType string
	}
	images := make([]decoded, len(payloads))
	for i, payload := range payloads {
		data, contentType, err := decodeImage(payload)
		if err != nil {
			return nil, err
		}
		images[i] = decoded{data: data, contentType: contentType}
	}

	results := make([]UploadedImage, len(images))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			key := "kos/" + uuid.NewString() + extByContentType[img.contentType]
			url, err := s.blobs.Upload(gctx, key, img.data, img.contentType)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "store image")
			}
			mu.Lock()
			results[i] = UploadedImage{Key: key, URL: url}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.ActionMediaUploaded, fmt.Sprintf("%d images", len(results)))
	return results, nil
}

// DeleteImages removes stored objects by key. Missing keys are ignored so
// retries stay safe.
func (s *Service) DeleteImages(ctx context.Context, keys []string) error {
	keys = strutil.DedupeAndTrim(keys)
	if len(keys) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no keys supplied")
	}
	for _, key := range keys {
		if key == "" || strings.Contains(key, "..") {
			return dErrors.New(dErrors.CodeValidation, "invalid object key")
		}
	}
	for _, key := range keys {
		if err := s.blobs.Remove(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "image removal failed", "key", key, "error", err)
		}
	}
	s.audit.Emit(ctx, audit.ActionMediaDeleted, fmt.Sprintf("%d keys", len(keys)))
	return nil
}

// decodeImage accepts a data URI ("data:image/png;base64,...") or a bare
// base64 string, which defaults to JPEG.
func decodeImage(payload string) ([]byte, string, error) {
	contentType := "image/jpeg"
	raw := payload
	if strings.HasPrefix(payload, "data:") {
		header, rest, found := strings.Cut(payload[len("data:"):], ",")
		if !found {
			return nil, "", dErrors.New(dErrors.CodeValidation, "malformed data URI")
		}
		contentType = strings.TrimSuffix(header, ";base64")
		raw = rest
	}
	if _, ok := extByContentType[contentType]; !ok {
		return nil, "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("unsupported image type %s", contentType))
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", dErrors.New(dErrors.CodeValidation, "image payload is not valid base64")
	}
	if len(data) == 0 {
		return nil, "", dErrors.New(dErrors.CodeValidation, "empty image payload")
	}
	if len(data) > maxImageBytes {
		return nil, "", dErrors.New(dErrors.CodeValidation, "image exceeds size limit")
	}
	return data, contentType, nil
}
