// Package journal stores journal entries in the cloud database, one row per
// entry, scoped to the owning user.
package journal

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
)

// Repository persists journal entries owned by a user.
type Repository interface {
	// Upsert inserts or replaces an entry owned by userID. A row with the
	// same id owned by someone else yields common.ErrOwnershipConflict.
	Upsert(ctx context.Context, userID string, entry *models.JournalEntry) error
	// SelectUpdated returns entries, deleted ones included, that reached the
	// server after since, oldest first.
	SelectUpdated(ctx context.Context, userID string, since time.Time) ([]models.JournalEntry, error)
	// SelectActive returns the user's non-deleted entries, newest first.
	SelectActive(ctx context.Context, userID string) ([]models.JournalEntry, error)
}
