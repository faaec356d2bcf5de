// Package artifact exports serialized compile and run outputs to a storage
// destination. A destination is either a local directory or an
// "s3://bucket/prefix" URI; both back the same Store interface.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes named artifacts to a destination.
type Store interface {
	// Put writes one artifact. The name must be a bare filename: no path
	// separators, no "..".
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// S3Scheme prefixes destinations that route to the S3 store.
const S3Scheme = "s3://"

// ForDestination selects a store for a destination string. Anything not
// carrying the s3:// scheme is treated as a local directory.
func ForDestination(ctx context.Context, dest string) (Store, error) {
	if path, ok := strings.CutPrefix(dest, S3Scheme); ok {
		bucket, prefix := ParseS3Path(path)
		return NewS3Store(ctx, S3Config{Bucket: bucket, Prefix: prefix})
	}
	return NewFSStore(dest), nil
}

// ValidateName rejects artifact names that would escape the destination.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("artifact name is empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("artifact name %q must not contain path separators or \"..\"", name)
	}
	return nil
}

// FSStore writes artifacts into a local directory.
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem store rooted at dir. The directory is
// created on first write.
func NewFSStore(dir string) *FSStore {
	return &FSStore{dir: dir}
}

// Put writes the artifact to a temp file and renames it into place, so a
// concurrent reader never observes a partial artifact.
func (s *FSStore) Put(ctx context.Context, name, _ string, data []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return WrapWriteError(err, s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return WrapWriteError(err, s.dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return WrapWriteError(err, tmpName)
	}
	if err := tmp.Close(); err != nil {
		return WrapWriteError(err, tmpName)
	}

	final := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		return WrapWriteError(err, final)
	}
	return nil
}

var _ Store = (*FSStore)(nil)
