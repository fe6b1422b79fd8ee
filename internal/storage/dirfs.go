package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/filex"
)

const settingsFile = "settings.json"

// SettingsVersion is written to settings.json when a directory is first used.
const SettingsVersion = "1.0.0"

type dirSettings struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
}

// DirBackend stores each key as <dir>/<key>.json.
type DirBackend struct {
	dir string
	now func() time.Time
}

// NewDirBackend returns a backend over dir. Nothing is touched on disk until
// Init or the first write.
func NewDirBackend(dir string) *DirBackend {
	return &DirBackend{dir: dir, now: time.Now}
}

func (b *DirBackend) Tier() Tier { return TierDirectory }

// Dir is the directory path.
func (b *DirBackend) Dir() string { return b.dir }

// Name is the directory's base name, shown to the user.
func (b *DirBackend) Name() string { return filepath.Base(b.dir) }

// Available re-verifies that the directory exists and is writable.
func (b *DirBackend) Available(ctx context.Context) bool {
	return b.Verify() == nil
}

// Verify returns ErrPermissionDenied when the directory is gone, is not a
// directory, or cannot be written.
func (b *DirBackend) Verify() error {
	fi, err := os.Stat(b.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrPermissionDenied, b.dir)
	}
	if err := filex.CheckWritable(b.dir); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return nil
}

// Init prepares a freshly granted directory: empty collections and a
// settings file are created when missing. Existing files are left alone.
func (b *DirBackend) Init(ctx context.Context) error {
	if err := b.Verify(); err != nil {
		return err
	}
	for _, key := range []string{KeyJournalEntries, KeyBars} {
		if err := b.writeIfMissing(key+".json", []byte("[]")); err != nil {
			return err
		}
	}
	settings, err := json.Marshal(dirSettings{Version: SettingsVersion, CreatedAt: b.now().UTC()})
	if err != nil {
		return err
	}
	return b.writeIfMissing(settingsFile, settings)
}

func (b *DirBackend) writeIfMissing(name string, data []byte) error {
	path := filepath.Join(b.dir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return mapDirErr(err)
	}
	return mapDirErr(filex.WriteFileAtomic(path, data, 0o600))
}

func (b *DirBackend) path(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(b.dir, key+".json"), nil
}

// Read returns the contents of <dir>/<key>.json, or nil when the file is
// missing. A directory that is gone yields ErrPermissionDenied.
func (b *DirBackend) Read(ctx context.Context, key string) ([]byte, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, err
	}
	data, err := filex.ReadFileIfExists(p)
	if err != nil {
		return nil, mapDirErr(err)
	}
	if data == nil {
		// A missing key is only empty while the directory itself is there.
		if _, err := os.Stat(b.dir); err != nil {
			return nil, mapDirErr(err)
		}
	}
	return data, nil
}

// Write replaces <dir>/<key>.json atomically.
func (b *DirBackend) Write(ctx context.Context, key string, value []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	return mapDirErr(filex.WriteFileAtomic(p, value, 0o600))
}

// Delete removes <dir>/<key>.json if present.
func (b *DirBackend) Delete(ctx context.Context, key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapDirErr(err)
	}
	return nil
}

// mapDirErr turns permission problems and a vanished directory into
// ErrPermissionDenied.
func mapDirErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
