package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/servicehub/servicehub-api/internal/pkg/imaging"
	"github.com/servicehub/servicehub-api/internal/pkg/storage"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func newService(t *testing.T) (*ImageService, *storage.LocalStorage) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/media")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	cfg := imaging.DefaultConfig()
	cfg.ThumbWidth, cfg.ThumbHeight = 10, 10
	return NewImageService(st, imaging.NewProcessor(cfg)), st
}

func TestSaveCoverAndDelete(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	serviceID := uuid.New()

	key, err := svc.SaveCover(ctx, serviceID, bytes.NewReader(pngBytes(t, 50, 40)))
	if err != nil {
		t.Fatalf("save cover: %v", err)
	}
	if !strings.HasPrefix(key, "services/"+serviceID.String()+"/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("unexpected key %q", key)
	}
	if ok, _ := st.Exists(ctx, key); !ok {
		t.Fatalf("expected stored object for %q", key)
	}
	if svc.URL(key) != "http://localhost/media/"+key {
		t.Fatalf("unexpected url %q", svc.URL(key))
	}

	if err := svc.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := st.Exists(ctx, key); ok {
		t.Fatalf("expected object to be removed")
	}
}

func TestSaveThumbnailRejectsNonImages(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.SaveThumbnail(context.Background(), uuid.New(), strings.NewReader("hello"))
	if !errors.Is(err, storage.ErrInvalidMimeType) {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
}
