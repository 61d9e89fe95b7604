package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"layoutcalc/internal/diag"
)

// diskCacheSchemaVersion is bumped whenever DiskPayload or anything it
// embeds changes shape. Old entries then decode as misses.
const diskCacheSchemaVersion uint16 = 1

// CacheSchemaVersion reports the on-disk format this build reads and writes.
func CacheSchemaVersion() uint16 { return diskCacheSchemaVersion }

// DiskPayload is one cached descriptor file: its layouts plus the
// diagnostics they were produced with.
type DiskPayload struct {
	Schema uint16 `msgpack:"schema"`
	Path   string `msgpack:"path"`
	Target string `msgpack:"target"`
	Types  []TypeLayout
	Diags  []diag.Diagnostic
}

// DiskCache хранит результаты раскладки по ключу (содержимое файла + настройки запуска).
// Safe for concurrent use by the driver's workers.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultCacheDir returns <user cache dir>/app.
func DefaultCacheDir(app string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, app), nil
}

// OpenDiskCache opens (creating if needed) a cache rooted at dir.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("empty cache directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) entriesDir() string {
	return filepath.Join(c.dir, "layouts")
}

// entryPath shards by the first key byte: layouts/ab/abcdef....mp
func (c *DiskCache) entryPath(key Digest) string {
	hex := key.String()
	return filepath.Join(c.entriesDir(), hex[:2], hex+".mp")
}

// Get loads the payload stored under key. A missing entry or one written
// by another schema version is a miss, not an error.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.entryPath(key))
	c.mu.RUnlock()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	}

	var payload DiskPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key.String()[:12], err)
	}
	if payload.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	*out = payload
	return true, nil
}

// Put stores payload under key. The entry appears atomically: readers see
// either the old file or the complete new one.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil || payload == nil {
		return nil
	}
	stored := *payload
	stored.Schema = diskCacheSchemaVersion
	data, err := msgpack.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return writeAtomic(c.entryPath(key), data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return nil
}

// DropAll removes every entry; the cache stays usable.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.entriesDir())
}
