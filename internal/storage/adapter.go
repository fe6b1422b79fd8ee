package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/logging"
)

// ErrNoBackend is returned by Open when no tier is available.
var ErrNoBackend = errors.New("no storage backend available")

type directoryHandle struct {
	Path      string    `json:"path"`
	GrantedAt time.Time `json:"grantedAt"`
}

type migrationMarker struct {
	From        Tier      `json:"from"`
	CompletedAt time.Time `json:"completedAt"`
}

// Options wires the tiers into an Adapter. KV is required; SQLite may be
// nil when the embedded database could not be opened.
type Options struct {
	KV     Backend
	SQLite Backend
	Logger logging.Logger
}

// Adapter routes reads and writes to the best available tier. The tier is
// chosen once in Open and only changes through SwitchToDirectory or
// ResetDirectory.
type Adapter struct {
	mu     sync.RWMutex
	active Backend
	dir    *DirBackend

	kv     Backend
	sqlite Backend
	log    logging.Logger
	now    func() time.Time
}

// Open selects the tier. Candidates are tried in order: a previously granted
// directory whose permission still verifies, the embedded database (after a
// one-time import from the kv tier), and the kv tier.
func Open(ctx context.Context, opts Options) (*Adapter, error) {
	if opts.KV == nil {
		return nil, fmt.Errorf("%w: kv tier is required", ErrNoBackend)
	}
	a := &Adapter{
		kv:     opts.KV,
		sqlite: opts.SQLite,
		log:    opts.Logger,
		now:    time.Now,
	}
	if a.log == nil {
		a.log = logging.Discard()
	}

	candidates := []func(context.Context) (Backend, bool){
		a.directoryCandidate,
		a.sqliteCandidate,
		a.kvCandidate,
	}
	for _, try := range candidates {
		if b, ok := try(ctx); ok {
			a.active = b
			a.log.Info(ctx, "storage tier selected", "tier", b.Tier())
			return a, nil
		}
	}
	return nil, ErrNoBackend
}

func (a *Adapter) directoryCandidate(ctx context.Context) (Backend, bool) {
	var h directoryHandle
	ok, err := ReadJSON(ctx, a.kv, KeyDirectoryHandle, &h)
	if err != nil {
		a.log.Warn(ctx, "cannot read directory handle", "error", err)
		return nil, false
	}
	if !ok || h.Path == "" {
		return nil, false
	}
	d := NewDirBackend(h.Path)
	if err := d.Verify(); err != nil {
		a.log.Warn(ctx, "granted directory is not accessible", "dir", h.Path, "error", err)
		return nil, false
	}
	a.dir = d
	return d, true
}

func (a *Adapter) sqliteCandidate(ctx context.Context) (Backend, bool) {
	if a.sqlite == nil || !a.sqlite.Available(ctx) {
		return nil, false
	}
	if err := a.importFromKV(ctx); err != nil {
		// The kv tier still holds everything; the import is retried next Open.
		a.log.Error(ctx, "migration from kv tier failed", "error", err)
		return nil, false
	}
	return a.sqlite, true
}

func (a *Adapter) kvCandidate(ctx context.Context) (Backend, bool) {
	return a.kv, a.kv.Available(ctx)
}

// importFromKV copies DataKeys from the kv tier into an empty embedded
// database once, then writes the migration marker. The kv tier is left as is.
func (a *Adapter) importFromKV(ctx context.Context) error {
	marker, err := a.sqlite.Read(ctx, KeyMigrationComplete)
	if err != nil {
		return err
	}
	if marker != nil {
		return nil
	}

	for _, key := range []string{KeyJournalEntries, KeyBars} {
		empty, err := isEmptyCollection(ctx, a.sqlite, key)
		if err != nil {
			return err
		}
		if !empty {
			// The database already has data of its own; nothing to import.
			return a.writeMarker(ctx)
		}
	}

	var copied []string
	for _, key := range DataKeys {
		data, err := a.kv.Read(ctx, key)
		if err == nil && data != nil {
			err = a.sqlite.Write(ctx, key, data)
		}
		if err != nil {
			a.undoImport(ctx, copied)
			return err
		}
		if data != nil {
			copied = append(copied, key)
		}
	}
	if len(copied) == 0 {
		return nil
	}
	if err := a.writeMarker(ctx); err != nil {
		a.undoImport(ctx, copied)
		return err
	}
	a.log.Info(ctx, "migrated data into sqlite tier", "from", a.kv.Tier(), "keys", len(copied))
	return nil
}

// undoImport removes keys copied by an import that did not finish, so the
// next Open sees an empty database and retries the whole import.
func (a *Adapter) undoImport(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := a.sqlite.Delete(ctx, key); err != nil {
			a.log.Error(ctx, "cannot undo partial import", "key", key, "error", err)
		}
	}
}

func (a *Adapter) writeMarker(ctx context.Context) error {
	return WriteJSON(ctx, a.sqlite, KeyMigrationComplete, migrationMarker{From: a.kv.Tier(), CompletedAt: a.now().UTC()})
}

func isEmptyCollection(ctx context.Context, b Backend, key string) (bool, error) {
	var items []json.RawMessage
	ok, err := ReadJSON(ctx, b, key, &items)
	if err != nil {
		return false, err
	}
	return !ok || len(items) == 0, nil
}

// Tier reports the active tier.
func (a *Adapter) Tier() Tier {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.Tier()
}

// UsingDirectory reports whether the directory tier is active.
func (a *Adapter) UsingDirectory() bool {
	return a.Tier() == TierDirectory
}

// DirectoryName is the base name of the active directory, or "".
func (a *Adapter) DirectoryName() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active.Tier() != TierDirectory || a.dir == nil {
		return ""
	}
	return a.dir.Name()
}

// Read returns the raw value under key from the active tier, or nil when the
// key is missing.
func (a *Adapter) Read(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	b := a.active
	a.mu.RUnlock()

	data, err := b.Read(ctx, key)
	return data, a.report(ctx, b, "read", key, err)
}

// Write stores value under key in the active tier.
func (a *Adapter) Write(ctx context.Context, key string, value []byte) error {
	a.mu.RLock()
	b := a.active
	a.mu.RUnlock()

	return a.report(ctx, b, "write", key, b.Write(ctx, key, value))
}

// Delete removes key from the active tier. A missing key is not an error.
func (a *Adapter) Delete(ctx context.Context, key string) error {
	a.mu.RLock()
	b := a.active
	a.mu.RUnlock()

	return a.report(ctx, b, "delete", key, b.Delete(ctx, key))
}

// report logs unexpected failures. Directory permission errors are left to
// the caller, who is expected to ask the user to re-grant access.
func (a *Adapter) report(ctx context.Context, b Backend, op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		a.log.Warn(ctx, "storage permission lost", "tier", b.Tier(), "op", op, "key", key, "error", err)
		return err
	}
	a.log.Error(ctx, "storage operation failed", "tier", b.Tier(), "op", op, "key", key, "error", err)
	if !errors.Is(err, ErrBackendFailure) {
		return fmt.Errorf("%w: %s %s: %v", ErrBackendFailure, op, key, err)
	}
	return err
}

// SwitchToDirectory makes path the active tier. The current collections are
// copied first; the switch only happens once every write has succeeded, so a
// failure leaves the previous tier authoritative.
func (a *Adapter) SwitchToDirectory(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	d := NewDirBackend(abs)
	if err := d.Init(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active.Tier() == TierDirectory && a.dir != nil && a.dir.Dir() == abs {
		return nil
	}
	if _, err := copyKeys(ctx, a.active, d, DataKeys); err != nil {
		return fmt.Errorf("copy into %s: %w", abs, err)
	}
	if err := WriteJSON(ctx, a.kv, KeyDirectoryHandle, directoryHandle{Path: abs, GrantedAt: a.now().UTC()}); err != nil {
		return fmt.Errorf("persist directory handle: %w", err)
	}

	from := a.active.Tier()
	a.active = d
	a.dir = d
	a.log.Info(ctx, "switched to directory tier", "dir", abs, "from", from)
	return nil
}

// ResetDirectory forgets the granted directory. When it is active, its data
// is copied to the next available tier, which becomes active. A directory
// that can no longer be read is dropped without copying.
func (a *Adapter) ResetDirectory(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active.Tier() == TierDirectory {
		next := a.kv
		if a.sqlite != nil && a.sqlite.Available(ctx) {
			next = a.sqlite
		}
		if _, err := copyKeys(ctx, a.active, next, DataKeys); err != nil {
			if !errors.Is(err, ErrPermissionDenied) {
				return fmt.Errorf("copy out of directory: %w", err)
			}
			// The directory is gone; nothing left to carry over.
			a.log.Warn(ctx, "directory lost, falling back without copying", "dir", a.dir.Dir(), "error", err)
		}
		a.active = next
		a.log.Info(ctx, "left directory tier", "tier", next.Tier())
	}
	a.dir = nil
	return a.kv.Delete(ctx, KeyDirectoryHandle)
}

// Backup copies DataKeys from the active tier into dst and returns how many
// keys were written.
func (a *Adapter) Backup(ctx context.Context, dst Backend) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return copyKeys(ctx, a.active, dst, DataKeys)
}

// Restore copies the record collections from src into the active tier and
// drops the sync watermark, so the next sync pulls every remote record again.
// Keys absent in src are left untouched.
func (a *Adapter) Restore(ctx context.Context, src Backend) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n, err := copyKeys(ctx, src, a.active, CollectionKeys)
	if err != nil {
		return n, err
	}
	if err := a.active.Delete(ctx, KeyLastSync); err != nil {
		return n, a.report(ctx, a.active, "delete", KeyLastSync, err)
	}
	return n, nil
}

func copyKeys(ctx context.Context, from, to Store, keys []string) (int, error) {
	n := 0
	for _, key := range keys {
		data, err := from.Read(ctx, key)
		if err != nil {
			return n, err
		}
		if data == nil {
			continue
		}
		if err := to.Write(ctx, key, data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close releases the embedded database, if any.
func (a *Adapter) Close() error {
	if c, ok := a.sqlite.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
