package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Storage is the object store used for uploaded media.
type Storage interface {
	// Put stores the content under key, replacing any existing object.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns the public URL for a key.
	GetURL(key string) string
}

// Config selects and configures a storage backend
type Config struct {
	Driver    string // local, s3
	LocalPath string
	PublicURL string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// New builds the backend named by cfg.Driver
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.PublicURL)
	case "s3":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
