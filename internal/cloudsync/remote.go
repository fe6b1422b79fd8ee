package cloudsync

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
)

// Remote is the part of the cloud service the engine drives.
type Remote interface {
	IsConfigured() bool
	IsAuthenticated() bool
	GetUpdatedJournalEntries(ctx context.Context, since time.Time) ([]models.JournalEntry, error)
	GetUpdatedBars(ctx context.Context, since time.Time) ([]models.Bar, error)
	UpsertJournalEntries(ctx context.Context, entries []models.JournalEntry) error
	UpsertBars(ctx context.Context, bars []models.Bar) error
}
