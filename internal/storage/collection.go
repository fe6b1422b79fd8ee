package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the read/write surface shared by Backend and Adapter.
type Store interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ReadJSON decodes key into v. It reports false, with v untouched, when the
// key is missing.
func ReadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, err := s.Read(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Write(ctx, key, data)
}

// LoadCollection reads a JSON array stored under key. A missing key yields
// an empty, non-nil slice.
func LoadCollection[T any](ctx context.Context, s Store, key string) ([]T, error) {
	items := []T{}
	if _, err := ReadJSON(ctx, s, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// SaveCollection replaces the array stored under key.
func SaveCollection[T any](ctx context.Context, s Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return WriteJSON(ctx, s, key, items)
}

type lastSyncRecord struct {
	Timestamp time.Time `json:"timestamp"`
}

// LoadLastSync returns the persisted sync watermark, or nil.
func LoadLastSync(ctx context.Context, s Store) (*time.Time, error) {
	var rec lastSyncRecord
	ok, err := ReadJSON(ctx, s, KeyLastSync, &rec)
	if err != nil || !ok || rec.Timestamp.IsZero() {
		return nil, err
	}
	return &rec.Timestamp, nil
}

// SaveLastSync persists the sync watermark as {"timestamp": RFC3339}.
func SaveLastSync(ctx context.Context, s Store, at time.Time) error {
	return WriteJSON(ctx, s, KeyLastSync, lastSyncRecord{Timestamp: at.UTC()})
}
