package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	afsurl "github.com/viant/afs/url"
)

const fileExt = ".json"

// FileStore persists one JSON document per key under a base URL using afs, so
// the same code serves local disks and object storage. Take is atomic within
// a process only.
type FileStore struct {
	mu      sync.Mutex
	baseURL string
	fs      afs.Service
	options []storage.Option
	now     func() time.Time
}

func (f *FileStore) keyURL(key string) string {
	return afsurl.Join(f.baseURL, url.PathEscape(key)+fileExt)
}

func (f *FileStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(newEntry(value, ttl, f.now()))
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err = f.fs.Upload(ctx, f.keyURL(key), 0o600, bytes.NewReader(data), f.options...); err != nil {
		return fmt.Errorf("failed to upload %v: %w", key, err)
	}
	return nil
}

func (f *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok, err := f.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return e.Value, true, nil
}

func (f *FileStore) Take(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok, err := f.load(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err = f.fs.Delete(ctx, f.keyURL(key), f.options...); err != nil {
		return nil, false, fmt.Errorf("failed to delete %v: %w", key, err)
	}
	return e.Value, true, nil
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	URL := f.keyURL(key)
	exists, err := f.fs.Exists(ctx, URL, f.options...)
	if err != nil || !exists {
		return err
	}
	return f.fs.Delete(ctx, URL, f.options...)
}

func (f *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := f.fs.Exists(ctx, f.baseURL, f.options...)
	if err != nil || !exists {
		return []string{}, err
	}
	objects, err := f.fs.List(ctx, f.baseURL, f.options...)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), fileExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(object.Name(), fileExt))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok, err := f.load(ctx, key); err != nil || !ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileStore) Close() error {
	return nil
}

// load reads the entry for key; expired entries are removed and reported absent.
func (f *FileStore) load(ctx context.Context, key string) (entry, bool, error) {
	URL := f.keyURL(key)
	exists, err := f.fs.Exists(ctx, URL, f.options...)
	if err != nil || !exists {
		return entry{}, false, err
	}
	data, err := f.fs.DownloadWithURL(ctx, URL, f.options...)
	if err != nil {
		return entry{}, false, fmt.Errorf("failed to download %v: %w", key, err)
	}
	var e entry
	if err = json.Unmarshal(data, &e); err != nil {
		return entry{}, false, fmt.Errorf("invalid entry %v: %w", key, err)
	}
	if e.expired(f.now()) {
		_ = f.fs.Delete(ctx, URL, f.options...)
		return entry{}, false, nil
	}
	return e, true, nil
}

// NewFileStore creates a store rooted at baseURL; a plain path maps to the local file system.
func NewFileStore(baseURL string, options ...storage.Option) *FileStore {
	if !strings.Contains(baseURL, "://") {
		if abs, err := filepath.Abs(baseURL); err == nil {
			baseURL = abs
		}
		baseURL = "file://" + baseURL
	}
	return &FileStore{
		baseURL: baseURL,
		fs:      afs.New(),
		options: options,
		now:     time.Now,
	}
}
