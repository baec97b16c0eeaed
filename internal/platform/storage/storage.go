package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Bucket names used by the application.
const (
	BucketLicencias = "licencias"
	BucketPayslips  = "payslips"
	BucketAvatars   = "avatars"
)

var (
	ErrObjectExists   = errors.New("object already exists")
	ErrObjectNotFound = errors.New("object not found")
)

type UploadOptions struct {
	ContentType string
	Upsert      bool
}

// Store is the object-store surface the workflows consume: byte upload,
// public links for world-readable buckets and time-limited signed links
// for private ones.
type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, opts UploadOptions) error
	PublicURL(bucket, path string) string
	SignedURL(bucket, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
	Open(bucket, path string) (io.ReadCloser, string, error)
	PathFromPublicURL(bucket, url string) (string, bool)
}
