package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps objects on disk under <root>/<bucket>/<object>.
type Local struct {
	Root string
}

// NewLocal creates the root directory if needed.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}
	return &Local{Root: root}, nil
}

// ObjectPath resolves an object to its file path, refusing paths that would
// escape the bucket directory.
func (l *Local) ObjectPath(bucket, object string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	clean := filepath.Clean("/" + filepath.FromSlash(object))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid object name %q", object)
	}
	return filepath.Join(l.Root, bucket, clean), nil
}

// Upload copies the local file into place through a temp file and rename, so
// readers never see a partial object.
func (l *Local) Upload(ctx context.Context, localPath, bucket, object string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := l.ObjectPath(bucket, object)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return os.Rename(tmp.Name(), dst)
}

// Open returns a reader for the object.
func (l *Local) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.ObjectPath(bucket, object)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", URI(bucket, object), ErrNotFound)
	}
	return f, err
}
