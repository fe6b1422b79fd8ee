package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
	"github.com/google/uuid"
)

type record[T any] interface {
	*T
	models.Record
}

// collection is the CRUD logic shared by journal entries and bars, stored as
// one JSON array per kind.
type collection[T any, P record[T]] struct {
	store storage.Store
	key   string
	now   func() time.Time
	// newer orders List output; it reports whether a sorts before b.
	newer func(a, b *T) bool
}

func (c *collection[T, P]) create(ctx context.Context, item T) (*T, error) {
	m := P(&item).Meta()
	now := c.now().UTC()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.SyncedAt = nil
	m.Deleted = false

	if err := P(&item).Validate(); err != nil {
		return nil, err
	}

	items, err := storage.LoadCollection[T](ctx, c.store, c.key)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", c.key, err)
	}
	items = append(items, item)
	if err := storage.SaveCollection(ctx, c.store, c.key, items); err != nil {
		return nil, fmt.Errorf("error saving %s: %w", c.key, err)
	}
	return &item, nil
}

func (c *collection[T, P]) update(ctx context.Context, item T) (*T, error) {
	if err := P(&item).Validate(); err != nil {
		return nil, err
	}

	items, err := storage.LoadCollection[T](ctx, c.store, c.key)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", c.key, err)
	}
	i := c.index(items, P(&item).Meta().ID)
	if i < 0 {
		return nil, common.ErrNotFound
	}

	stored := P(&items[i]).Meta()
	m := P(&item).Meta()
	m.CreatedAt = stored.CreatedAt
	m.SyncedAt = stored.SyncedAt
	m.Deleted = stored.Deleted
	m.Touch(c.now())

	items[i] = item
	if err := storage.SaveCollection(ctx, c.store, c.key, items); err != nil {
		return nil, fmt.Errorf("error saving %s: %w", c.key, err)
	}
	return &item, nil
}

func (c *collection[T, P]) delete(ctx context.Context, id string) error {
	items, err := storage.LoadCollection[T](ctx, c.store, c.key)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", c.key, err)
	}
	i := c.index(items, id)
	if i < 0 {
		return common.ErrNotFound
	}

	m := P(&items[i]).Meta()
	m.Deleted = true
	m.Touch(c.now())

	if err := storage.SaveCollection(ctx, c.store, c.key, items); err != nil {
		return fmt.Errorf("error saving %s: %w", c.key, err)
	}
	return nil
}

func (c *collection[T, P]) list(ctx context.Context) ([]T, error) {
	items, err := storage.LoadCollection[T](ctx, c.store, c.key)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", c.key, err)
	}

	out := make([]T, 0, len(items))
	for i := range items {
		if !P(&items[i]).Meta().Deleted {
			out = append(out, items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return c.newer(&out[i], &out[j]) })
	return out, nil
}

func (c *collection[T, P]) get(ctx context.Context, id string) (*T, error) {
	items, err := storage.LoadCollection[T](ctx, c.store, c.key)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", c.key, err)
	}
	i := c.index(items, id)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	return &items[i], nil
}

// index finds a live record by id, or returns -1.
func (c *collection[T, P]) index(items []T, id string) int {
	for i := range items {
		m := P(&items[i]).Meta()
		if m.ID == id && !m.Deleted {
			return i
		}
	}
	return -1
}
