package cache

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const entryExt = ".entry"

// FileCache stores each entry in its own file below dir, sharded by the
// first byte of the key hash. It is the cache of the CLI, where layouts of
// an unchanged scenario are reused across invocations.
//
// An entry file holds a one-line JSON header followed by the raw value.
// Writes go through a temporary file and a rename, so concurrent CLI runs
// never observe half-written entries.
type FileCache struct {
	dir string
}

type entryHeader struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	hdr, data, ok := parseEntry(raw)
	if !ok || hdr.Key != key || hdr.expired(time.Now()) {
		// Unreadable, colliding or stale entries are misses.
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	hdr := entryHeader{Key: key}
	if ttl > 0 {
		hdr.ExpiresAt = time.Now().Add(ttl).UnixNano()
	}
	line, err := json.Marshal(hdr)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	w.Write(line)
	w.WriteByte('\n')
	w.Write(data)
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry and returns how many were removed.
func (c *FileCache) Clear() (int, error) {
	return c.sweep(func(entryHeader) bool { return true })
}

// Prune removes expired and unreadable entries and returns how many were
// removed.
func (c *FileCache) Prune() (int, error) {
	now := time.Now()
	return c.sweep(func(h entryHeader) bool { return h.expired(now) })
}

// sweep deletes the entries selected by drop, then removes shard
// directories left empty. Entries whose header cannot be read are always
// dropped.
func (c *FileCache) sweep(drop func(entryHeader) bool) (int, error) {
	removed := 0
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != entryExt {
			return err
		}
		hdr, ok := readHeader(path)
		if ok && !drop(hdr) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, err
	}

	shards, _ := os.ReadDir(c.dir)
	for _, s := range shards {
		if s.IsDir() {
			// Fails harmlessly on shards that still hold entries.
			_ = os.Remove(filepath.Join(c.dir, s.Name()))
		}
	}
	return removed, nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+entryExt)
}

func (h entryHeader) expired(now time.Time) bool {
	return h.ExpiresAt != 0 && now.UnixNano() > h.ExpiresAt
}

func parseEntry(raw []byte) (entryHeader, []byte, bool) {
	var hdr entryHeader
	line, data, found := bytes.Cut(raw, []byte{'\n'})
	if !found || json.Unmarshal(line, &hdr) != nil {
		return hdr, nil, false
	}
	return hdr, data, true
}

func readHeader(path string) (entryHeader, bool) {
	var hdr entryHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, false
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil || json.Unmarshal(line, &hdr) != nil {
		return hdr, false
	}
	return hdr, true
}

var _ Cache = (*FileCache)(nil)
