// Package bars stores bar visits in the cloud database, one row per bar,
// scoped to the owning user.
package bars

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
)

// Repository persists bars owned by a user.
type Repository interface {
	Upsert(ctx context.Context, userID string, bar *models.Bar) error
	SelectUpdated(ctx context.Context, userID string, since time.Time) ([]models.Bar, error)
	SelectActive(ctx context.Context, userID string) ([]models.Bar, error)
}
