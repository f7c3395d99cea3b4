package media

import "context"

// BlobStore is the port for image object storage. Upload returns the stable
// public URL of the stored object.
type BlobStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, objectKey string) error
}
