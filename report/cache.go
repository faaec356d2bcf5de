package report

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/stratum-data/stratum/types"
)

// Cache layout constants. The cache is a single length-prefixed msgpack
// record so a truncated write is always detectable.
const (
	// CacheDirName is the project-relative directory holding compile outputs.
	CacheDirName = ".stratum"
	// CacheFileName is the graph cache file inside CacheDirName.
	CacheFileName = "graph.cache"
	// MaxCacheSize is the maximum cache size (16 MiB), including the prefix.
	MaxCacheSize = 16 * 1024 * 1024
	// lengthPrefixSize is the size of the big-endian length prefix.
	lengthPrefixSize = 4
)

// CacheErrorKind classifies graph cache read failures.
type CacheErrorKind int

const (
	// CacheErrorPartial indicates a truncated cache record.
	CacheErrorPartial CacheErrorKind = iota
	// CacheErrorTooLarge indicates a record exceeding MaxCacheSize.
	CacheErrorTooLarge
	// CacheErrorDecode indicates a msgpack decoding error.
	CacheErrorDecode
)

// CacheError represents a graph cache read failure. All kinds are
// recoverable: the caller recompiles and overwrites the cache.
type CacheError struct {
	Kind CacheErrorKind
	Msg  string
	Err  error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// IsCacheError reports whether err is a cache corruption error, as opposed
// to the cache file simply not existing.
func IsCacheError(err error) bool {
	var cacheErr *CacheError
	return errors.As(err, &cacheErr)
}

// CachePath returns the graph cache path for a project directory.
func CachePath(projectDir string) string {
	return filepath.Join(projectDir, CacheDirName, CacheFileName)
}

// WriteCache persists a compiled graph to the project's cache file. The
// record is written to a temp file and renamed so readers never observe a
// half-written cache.
func WriteCache(projectDir string, g *types.CompiledGraph) error {
	payload, err := msgpack.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode graph cache: %w", err)
	}
	if len(payload) > MaxCacheSize-lengthPrefixSize {
		return &CacheError{
			Kind: CacheErrorTooLarge,
			Msg:  fmt.Sprintf("graph payload %d exceeds maximum %d", len(payload), MaxCacheSize-lengthPrefixSize),
		}
	}

	path := CachePath(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), CacheFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := tmp.Write(prefix[:]); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache prefix: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish cache file: %w", err)
	}
	return nil
}

// ReadCache loads the cached graph for a project directory. A missing cache
// returns os.ErrNotExist via the underlying open; corruption returns a
// *CacheError.
func ReadCache(projectDir string) (*types.CompiledGraph, error) {
	f, err := os.Open(CachePath(projectDir))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeCache(f)
}

func decodeCache(r io.Reader) (*types.CompiledGraph, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, &CacheError{
			Kind: CacheErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(prefix[:])
	if payloadSize > MaxCacheSize-lengthPrefixSize {
		return nil, &CacheError{
			Kind: CacheErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxCacheSize-lengthPrefixSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, &CacheError{
			Kind: CacheErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	var g types.CompiledGraph
	if err := msgpack.Unmarshal(payload, &g); err != nil {
		return nil, &CacheError{
			Kind: CacheErrorDecode,
			Msg:  "failed to decode cached graph",
			Err:  err,
		}
	}
	return &g, nil
}
