package assets

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AssetInfo describes a stored static asset
type AssetInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// Store provides read access to the built static asset tree (the "site"
// output). Implementations must be safe for concurrent use; the asset tree is
// produced by the build step and treated as read-only at serve time.
type Store interface {
	// Retrieve returns the bytes of the asset at key
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// Exists checks whether an asset exists at key
	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns metadata for the asset at key
	Stat(ctx context.Context, key string) (*AssetInfo, error)
}

// LocalStore implements Store over a local directory of built assets
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a Store rooted at the given directory
func NewLocalStore(basePath string) (*LocalStore, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStoreError("NewLocalStore", "", err)
	}
	return &LocalStore{basePath: absPath}, nil
}

// Retrieve implements Store.Retrieve
func (l *LocalStore) Retrieve(ctx context.Context, key string) ([]byte, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, NewStoreError("Retrieve", key, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStoreError("Retrieve", key, ErrAssetNotFound)
		}
		return nil, NewStoreError("Retrieve", key, err)
	}
	return data, nil
}

// Exists implements Store.Exists
func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, NewStoreError("Exists", key, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, NewStoreError("Exists", key, err)
	}
	return !info.IsDir(), nil
}

// Stat implements Store.Stat
func (l *LocalStore) Stat(ctx context.Context, key string) (*AssetInfo, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, NewStoreError("Stat", key, err)
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, NewStoreError("Stat", key, ErrAssetNotFound)
	}

	return &AssetInfo{
		Key:          key,
		Size:         info.Size(),
		ContentType:  ContentTypeFor(key),
		LastModified: info.ModTime(),
	}, nil
}

// resolve validates a key and maps it to an absolute path under basePath.
// Keys that escape the base directory are rejected.
func (l *LocalStore) resolve(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return "", ErrInvalidKey
	}

	path := filepath.Join(l.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, l.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

// MockStore implements Store in memory for testing
type MockStore struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewMockStore creates an empty in-memory Store
func NewMockStore() *MockStore {
	return &MockStore{assets: make(map[string][]byte)}
}

// Put stores an asset under key
func (m *MockStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[strings.TrimPrefix(key, "/")] = data
}

// Retrieve implements Store.Retrieve
func (m *MockStore) Retrieve(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.assets[strings.TrimPrefix(key, "/")]
	if !ok {
		return nil, NewStoreError("Retrieve", key, ErrAssetNotFound)
	}
	return data, nil
}

// Exists implements Store.Exists
func (m *MockStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.assets[strings.TrimPrefix(key, "/")]
	return ok, nil
}

// Stat implements Store.Stat
func (m *MockStore) Stat(ctx context.Context, key string) (*AssetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.assets[strings.TrimPrefix(key, "/")]
	if !ok {
		return nil, NewStoreError("Stat", key, ErrAssetNotFound)
	}
	return &AssetInfo{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: ContentTypeFor(key),
	}, nil
}

// ContentTypeFor guesses a content type from the key's file extension,
// defaulting to application/octet-stream.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
