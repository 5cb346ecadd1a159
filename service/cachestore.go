package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// CachedResponse is one stored fetch result. Bodies round-trip through
// the store byte for byte.
type CachedResponse struct {
	URL    string      `json:"url"`
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"-"`
}

// CacheStore is one versioned response cache: a directory named after
// the cache version, one entry file per response, keyed by the hashed
// request URL. An entry is a single metadata line followed by the raw
// body, published through one atomic rename, so metadata and body can
// never come from different writers and concurrent writers resolve as
// last-successful-write-wins.
type CacheStore struct {
	root string
	name string
	dir  string
}

func NewCacheStore(root, name string) (*CacheStore, error) {
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache store %s: %w", name, err)
	}
	return &CacheStore{root: root, name: name, dir: dir}, nil
}

func (s *CacheStore) Name() string {
	return s.name
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Put stores one response under its request URL. Metadata and body go
// into the same entry file; the json.Marshal output holds no raw
// newlines, so the first newline in the file always ends the metadata.
func (s *CacheStore) Put(url string, res *CachedResponse) error {
	meta := CachedResponse{URL: url, Status: res.Status, Header: res.Header}
	metaBytes, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("failed to marshal cache metadata: %w", err)
	}

	entry := make([]byte, 0, len(metaBytes)+1+len(res.Body))
	entry = append(entry, metaBytes...)
	entry = append(entry, '\n')
	entry = append(entry, res.Body...)

	if err := writeAtomic(filepath.Join(s.dir, cacheKey(url)+".entry"), entry); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Get returns the stored response for a URL, if any. A malformed entry
// counts as a miss.
func (s *CacheStore) Get(url string) (*CachedResponse, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, cacheKey(url)+".entry"))
	if err != nil {
		return nil, false
	}

	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return nil, false
	}
	var res CachedResponse
	if err := json.Unmarshal(data[:i], &res); err != nil {
		return nil, false
	}
	res.Body = data[i+1:]
	return &res, true
}

// Has reports whether a URL is cached.
func (s *CacheStore) Has(url string) bool {
	_, err := os.Stat(filepath.Join(s.dir, cacheKey(url)+".entry"))
	return err == nil
}

// Count returns the number of cached entries.
func (s *CacheStore) Count() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".entry" {
			n++
		}
	}
	return n
}

// ListCacheNames returns the names of all stores under the root.
func ListCacheNames(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list cache stores: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// DeleteCacheStore removes one store and everything in it.
func DeleteCacheStore(root, name string) error {
	return os.RemoveAll(filepath.Join(root, name))
}

// writeAtomic publishes data under path via a private temp file, so
// concurrent writers to one path never interleave and the rename
// switches readers between complete states only.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
