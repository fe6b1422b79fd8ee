package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/brewlog/internal/filex"
)

// KVKeyPrefix is prepended to every key inside the file.
const KVKeyPrefix = "aletale_"

// FileKVBackend keeps all keys in one JSON object file. It is the last
// resort tier and only needs a writable parent directory.
type FileKVBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileKVBackend returns a backend over the JSON document at path.
func NewFileKVBackend(path string) *FileKVBackend {
	return &FileKVBackend{path: path}
}

func (b *FileKVBackend) Tier() Tier { return TierKV }

func (b *FileKVBackend) Path() string { return b.path }

// Available creates the document's directory if needed and reports whether
// it can be written.
func (b *FileKVBackend) Available(ctx context.Context) bool {
	dir, err := filex.EnsureDir(filepath.Dir(b.path))
	if err != nil {
		return false
	}
	return filex.CheckWritable(dir) == nil
}

func (b *FileKVBackend) load() (map[string]json.RawMessage, error) {
	data, err := filex.ReadFileIfExists(b.path)
	if err != nil {
		return nil, err
	}
	m := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return m, nil
}

func (b *FileKVBackend) store(m map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if _, err := filex.EnsureDir(filepath.Dir(b.path)); err != nil {
		return err
	}
	return filex.WriteFileAtomic(b.path, data, 0o600)
}

func (b *FileKVBackend) Read(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.load()
	if err != nil {
		return nil, failure("read", key, err)
	}
	v, ok := m[KVKeyPrefix+key]
	if !ok {
		return nil, nil
	}
	return []byte(v), nil
}

func (b *FileKVBackend) Write(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return failure("write", key, fmt.Errorf("value is not valid JSON"))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.load()
	if err != nil {
		return failure("write", key, err)
	}
	m[KVKeyPrefix+key] = json.RawMessage(value)
	if err := b.store(m); err != nil {
		return failure("write", key, err)
	}
	return nil
}

func (b *FileKVBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.load()
	if err != nil {
		return failure("delete", key, err)
	}
	if _, ok := m[KVKeyPrefix+key]; !ok {
		return nil
	}
	delete(m, KVKeyPrefix+key)
	if err := b.store(m); err != nil {
		return failure("delete", key, err)
	}
	return nil
}
