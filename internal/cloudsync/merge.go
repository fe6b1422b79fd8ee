package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

// record constrains T so that *T carries sync metadata.
type record[T any] interface {
	*T
	models.Record
}

// merge folds remote into local. A remote record replaces a local one only
// when its UpdatedAt is strictly later. Accepted records are stamped clean.
func merge[T any, P record[T]](local, remote []T) (out []T, merged, conflicts int) {
	index := make(map[string]int, len(local))
	for i := range local {
		index[P(&local[i]).Meta().ID] = i
	}

	for _, r := range remote {
		rm := P(&r).Meta()
		rm.MarkSynced()

		i, ok := index[rm.ID]
		if !ok {
			local = append(local, r)
			index[rm.ID] = len(local) - 1
			merged++
			continue
		}

		lm := P(&local[i]).Meta()
		if lm.Dirty() {
			conflicts++
		}
		if rm.UpdatedAt.After(lm.UpdatedAt) {
			local[i] = r
			merged++
		}
	}
	return local, merged, conflicts
}

// pull fetches remote changes for key and merges them, writing the
// collection once if anything changed.
func pull[T any, P record[T]](
	ctx context.Context,
	local storage.Store,
	key string,
	since time.Time,
	fetch func(context.Context, time.Time) ([]T, error),
) (merged, conflicts int, err error) {
	remote, err := fetch(ctx, since)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch %s: %w", key, err)
	}
	if len(remote) == 0 {
		return 0, 0, nil
	}

	items, err := storage.LoadCollection[T](ctx, local, key)
	if err != nil {
		return 0, 0, err
	}
	items, merged, conflicts = merge[T, P](items, remote)
	if merged == 0 {
		return 0, conflicts, nil
	}
	if err := storage.SaveCollection(ctx, local, key, items); err != nil {
		return 0, conflicts, err
	}
	return merged, conflicts, nil
}

func dirty[T any, P record[T]](items []T) []T {
	var out []T
	for i := range items {
		if P(&items[i]).Meta().Dirty() {
			out = append(out, items[i])
		}
	}
	return out
}

// push sends the dirty records stored under key in one batch. Afterwards
// the records are stamped clean in a fresh read, skipping any that were
// modified while the upsert was in flight.
func push[T any, P record[T]](
	ctx context.Context,
	local storage.Store,
	key string,
	upsert func(context.Context, []T) error,
) (int, error) {
	items, err := storage.LoadCollection[T](ctx, local, key)
	if err != nil {
		return 0, err
	}
	batch := dirty[T, P](items)
	if len(batch) == 0 {
		return 0, nil
	}
	if err := upsert(ctx, batch); err != nil {
		return 0, fmt.Errorf("push %s: %w", key, err)
	}

	sent := make(map[string]time.Time, len(batch))
	for i := range batch {
		m := P(&batch[i]).Meta()
		sent[m.ID] = m.UpdatedAt
	}

	current, err := storage.LoadCollection[T](ctx, local, key)
	if err != nil {
		return len(batch), err
	}
	changed := false
	for i := range current {
		m := P(&current[i]).Meta()
		if at, ok := sent[m.ID]; ok && m.UpdatedAt.Equal(at) && m.Dirty() {
			m.MarkSynced()
			changed = true
		}
	}
	if changed {
		if err := storage.SaveCollection(ctx, local, key, current); err != nil {
			return len(batch), err
		}
	}
	return len(batch), nil
}

func countDirty[T any, P record[T]](ctx context.Context, local storage.Store, key string) (int, error) {
	items, err := storage.LoadCollection[T](ctx, local, key)
	if err != nil {
		return 0, err
	}
	return len(dirty[T, P](items)), nil
}
