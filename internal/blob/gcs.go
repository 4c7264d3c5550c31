package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS is a Store backed by Google Cloud Storage.
type GCS struct {
	client *storage.Client
}

// NewGCS dials a storage client. STORAGE_EMULATOR_HOST is honoured by the SDK.
func NewGCS(ctx context.Context, opts ...option.ClientOption) (*GCS, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client}, nil
}

// Upload streams the file to the object, replacing any previous version.
func (g *GCS) Upload(ctx context.Context, localPath, bucket, object string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv"
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload %s: %w", URI(bucket, object), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s: %w", URI(bucket, object), err)
	}
	return nil
}

// Open returns a reader for the object.
func (g *GCS) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", URI(bucket, object), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}
