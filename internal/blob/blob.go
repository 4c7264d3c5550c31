// Package blob uploads local files to object storage and reads them back.
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Open when the object does not exist.
var ErrNotFound = errors.New("blob: object not found")

// Store is the object storage boundary. Upload overwrites an existing object.
type Store interface {
	Upload(ctx context.Context, localPath, bucket, object string) error
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// URI returns the gs:// form of an object location.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + strings.TrimPrefix(object, "/")
}
