package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStore_Put(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(filepath.Join(dir, "out"))

	if err := s.Put(context.Background(), "graph.json", "application/json", []byte(`{}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "graph.json"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if string(data) != `{}` {
		t.Errorf("content = %q", data)
	}
}

func TestFSStore_PutOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(dir)

	for _, content := range []string{"first", "second"} {
		if err := s.Put(context.Background(), "plan.json", "", []byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "plan.json"))
	if string(data) != "second" {
		t.Errorf("content = %q", data)
	}
}

// No temp files survive a successful write.
func TestFSStore_NoTempResidue(t *testing.T) {
	dir := t.TempDir()
	s := NewFSStore(dir)
	if err := s.Put(context.Background(), "graph.json", "", []byte("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "graph.json" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestFSStore_RejectsBadNames(t *testing.T) {
	s := NewFSStore(t.TempDir())
	for _, name := range []string{"", "../escape.json", "sub/dir.json", `win\dir.json`} {
		if err := s.Put(context.Background(), name, "", nil); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

func TestFSStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFSStore(t.TempDir())
	if err := s.Put(ctx, "graph.json", "", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestForDestination(t *testing.T) {
	s, err := ForDestination(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("fs destination: %v", err)
	}
	if _, ok := s.(*FSStore); !ok {
		t.Errorf("expected *FSStore, got %T", s)
	}
}

func TestForDestination_S3RequiresBucket(t *testing.T) {
	if _, err := ForDestination(context.Background(), "s3://"); err == nil {
		t.Error("empty bucket should be rejected")
	}
}

func TestParseS3Path(t *testing.T) {
	cases := []struct {
		in, bucket, prefix string
	}{
		{"bucket", "bucket", ""},
		{"bucket/prefix", "bucket", "prefix"},
		{"bucket/deep/prefix", "bucket", "deep/prefix"},
	}
	for _, tc := range cases {
		bucket, prefix := ParseS3Path(tc.in)
		if bucket != tc.bucket || prefix != tc.prefix {
			t.Errorf("ParseS3Path(%q) = (%q, %q), want (%q, %q)", tc.in, bucket, prefix, tc.bucket, tc.prefix)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{fmt.Errorf("open /x: permission denied"), ErrPermissionDenied},
		{fmt.Errorf("api error NoSuchBucket: bucket missing"), ErrNotFound},
		{fmt.Errorf("write /x: no space left on device"), ErrDiskFull},
		{fmt.Errorf("context deadline exceeded"), ErrTimeout},
		{fmt.Errorf("api error SlowDown: reduce request rate"), ErrThrottled},
		{fmt.Errorf("NoCredentialProviders: no valid providers"), ErrAuth},
		{fmt.Errorf("dial tcp 10.0.0.1:443: connection refused"), ErrNetwork},
	}
	for _, tc := range cases {
		wrapped := WrapWriteError(tc.err, "p")
		if !errors.Is(wrapped, tc.want) {
			t.Errorf("classify(%v) should match %v", tc.err, tc.want)
		}
	}
}

func TestStorageError_PreservesChain(t *testing.T) {
	underlying := os.ErrPermission
	wrapped := WrapWriteError(fmt.Errorf("open: %w (permission denied)", underlying), "/x")
	if !errors.Is(wrapped, underlying) {
		t.Error("original error lost from the chain")
	}
	var se *StorageError
	if !errors.As(wrapped, &se) || se.Op != "write" || se.Path != "/x" {
		t.Errorf("unexpected wrapper: %+v", se)
	}
	if !strings.Contains(wrapped.Error(), "/x") {
		t.Errorf("message should name the path: %v", wrapped)
	}
}
