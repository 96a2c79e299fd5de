package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
)

// Entries are an 8 byte big-endian expiry (unix nanos) followed by the value.
const fileHeaderSize = 8

var errCorruptFileEntry = errors.New("cache: corrupt file entry")

// Entry names are "<scope>-<key hash>.entry", where scope is derived from the
// prefix so several caches can share one directory.
const fileEntrySuffix = ".entry"

type fileStore struct {
	dir        string
	scope      string
	defaultTTL time.Duration
}

func newFileStore(dir, prefix string, defaultTTL time.Duration) (Store, error) {
	if dir == "" {
		dir = defaultFileDir()
	}
	if defaultTTL <= 0 {
		defaultTTL = defaultCacheTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	sum := sha256.Sum256([]byte(prefix))
	return &fileStore{dir: dir, scope: hex.EncodeToString(sum[:8]), defaultTTL: defaultTTL}, nil
}

func (s *fileStore) Driver() Driver {
	return DriverFile
}

func (s *fileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) < fileHeaderSize {
		_ = os.Remove(path)
		return nil, false, errCorruptFileEntry
	}
	expiresAt := int64(binary.BigEndian.Uint64(data[:fileHeaderSize]))
	if time.Now().UnixNano() > expiresAt {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data[fileHeaderSize:], true, nil
}

// Set writes through a temp file and rename so readers never see partial entries.
func (s *fileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	var header [fileHeaderSize]byte
	binary.BigEndian.PutUint64(header[:], uint64(time.Now().Add(ttl).UnixNano()))

	tmp, err := createTempFile(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(header[:], value...)); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := renameFile(tmpPath, s.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *fileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) DeleteMany(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) Flush(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, s.scope+"-") || !strings.HasSuffix(name, fileEntrySuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *fileStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, s.scope+"-"+hex.EncodeToString(sum[:])+fileEntrySuffix)
}
