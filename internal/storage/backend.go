package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/brewlog/internal/models"
)

// Tier identifies a storage backend.
type Tier string

const (
	TierDirectory Tier = "directory"
	TierSQLite    Tier = "sqlite"
	TierKV        Tier = "kv"
	TierS3        Tier = "s3"
)

// Well-known keys.
const (
	KeyJournalEntries    = string(models.KindJournalEntries)
	KeyBars              = string(models.KindBars)
	KeyLastSync          = "_last_sync"
	KeyMigrationComplete = "_migration_complete"
	KeyDirectoryHandle   = "_directory_handle"
	KeySession           = "_session"
)

// DataKeys are the keys carried across tiers on migration and included in
// backups.
var DataKeys = []string{KeyJournalEntries, KeyBars, KeyLastSync}

// CollectionKeys hold the record collections.
var CollectionKeys = []string{KeyJournalEntries, KeyBars}

var (
	// ErrPermissionDenied means the directory tier can no longer be used:
	// it was removed or access was revoked.
	ErrPermissionDenied = errors.New("storage permission denied")

	// ErrBackendFailure wraps unexpected sqlite, kv and s3 failures.
	ErrBackendFailure = errors.New("storage backend failure")

	ErrInvalidKey = errors.New("invalid storage key")
)

// Backend is a byte-oriented key/value store.
type Backend interface {
	Tier() Tier
	// Available reports whether the backend can be used right now.
	Available(ctx context.Context) bool
	// Read returns (nil, nil) for a missing key.
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func failure(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", ErrBackendFailure, op, key, err)
}
