package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/servicehub/servicehub-api/internal/pkg/imaging"
	"github.com/servicehub/servicehub-api/internal/pkg/storage"
)

// ImageService validates, resizes and stores service images
type ImageService struct {
	storage   storage.Storage
	processor *imaging.Processor
}

// NewImageService creates the image service on top of a storage backend
func NewImageService(st storage.Storage, processor *imaging.Processor) *ImageService {
	return &ImageService{
		storage:   st,
		processor: processor,
	}
}

// SaveCover stores a cover image for the service and returns its storage key
func (s *ImageService) SaveCover(ctx context.Context, serviceID uuid.UUID, r io.Reader) (string, error) {
	return s.save(ctx, serviceID, "cover", r, s.processor.Cover)
}

// SaveThumbnail stores a thumbnail for the service and returns its storage key
func (s *ImageService) SaveThumbnail(ctx context.Context, serviceID uuid.UUID, r io.Reader) (string, error) {
	return s.save(ctx, serviceID, "thumbnail", r, s.processor.Thumbnail)
}

// Delete removes a stored image. Empty keys are ignored.
func (s *ImageService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL for a stored image key
func (s *ImageService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.storage.GetURL(key)
}

func (s *ImageService) save(ctx context.Context, serviceID uuid.UUID, kind string, r io.Reader, transform func([]byte) (*imaging.Result, error)) (string, error) {
	buf, _, err := storage.ValidateAndBuffer(r, storage.CategoryServiceImage)
	if err != nil {
		return "", err
	}

	img, err := transform(buf.Bytes())
	if err != nil {
		return "", err
	}

	// services/{service}/{yyyy/mm}/{kind}-{random}.{ext}
	key := fmt.Sprintf("services/%s/%s/%s-%s%s",
		serviceID.String(),
		time.Now().Format("2006/01"),
		kind,
		uuid.New().String(),
		storage.GetExtensionForMime(img.ContentType),
	)

	if err := s.storage.Put(ctx, key, bytes.NewReader(img.Data), img.ContentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}

	log.Debug().
		Str("service_id", serviceID.String()).
		Str("key", key).
		Int("width", img.Width).
		Int("height", img.Height).
		Msg("Service image stored")

	return key, nil
}
