package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned when the data cannot be decoded as an image
var ErrInvalidImage = errors.New("invalid image data")

// Result is one encoded image
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Config for image processing
type Config struct {
	MaxWidth    int // cover bounding box
	MaxHeight   int
	ThumbWidth  int
	ThumbHeight int
	Quality     int // JPEG quality 1-100
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:    1600,
		MaxHeight:   1600,
		ThumbWidth:  400,
		ThumbHeight: 300,
		Quality:     85,
	}
}

// Processor resizes service images
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Cover shrinks the image to fit the configured bounding box, keeping its aspect ratio.
// Smaller images are re-encoded unchanged.
func (p *Processor) Cover(data []byte) (*Result, error) {
	img, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() > p.config.MaxWidth || img.Bounds().Dy() > p.config.MaxHeight {
		img = imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	}

	return p.encode(img, format)
}

// Thumbnail center-crops the image to the thumbnail size
func (p *Processor) Thumbnail(data []byte) (*Result, error) {
	img, format, err := decode(data)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fill(img, p.config.ThumbWidth, p.config.ThumbHeight, imaging.Center, imaging.Lanczos)
	return p.encode(thumb, format)
}

func decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, format, nil
}

// png stays png, everything else becomes jpeg
func (p *Processor) encode(img image.Image, format string) (*Result, error) {
	var buf bytes.Buffer
	contentType := "image/jpeg"

	if format == "png" {
		contentType = "image/png"
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: contentType,
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}, nil
}
