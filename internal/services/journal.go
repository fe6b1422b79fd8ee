package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

// JournalService manages the beers a user has logged.
type JournalService interface {
	Create(ctx context.Context, entry models.JournalEntry) (*models.JournalEntry, error)
	Update(ctx context.Context, entry models.JournalEntry) (*models.JournalEntry, error)
	// Delete marks the entry deleted; it disappears from List and Get but
	// stays stored until the deletion is synced.
	Delete(ctx context.Context, id string) error
	// List returns live entries, most recently drunk first.
	List(ctx context.Context) ([]models.JournalEntry, error)
	Get(ctx context.Context, id string) (*models.JournalEntry, error)
}

type journalService struct {
	c collection[models.JournalEntry, *models.JournalEntry]
}

// NewJournalService returns a JournalService over the journal collection in
// store. now stamps created and updated times; nil means time.Now.
func NewJournalService(store storage.Store, now func() time.Time) JournalService {
	if now == nil {
		now = time.Now
	}
	return &journalService{c: collection[models.JournalEntry, *models.JournalEntry]{
		store: store,
		key:   storage.KeyJournalEntries,
		now:   now,
		newer: func(a, b *models.JournalEntry) bool { return a.DrankAt.After(b.DrankAt) },
	}}
}

func (s *journalService) Create(ctx context.Context, entry models.JournalEntry) (*models.JournalEntry, error) {
	return s.c.create(ctx, entry)
}

func (s *journalService) Update(ctx context.Context, entry models.JournalEntry) (*models.JournalEntry, error) {
	return s.c.update(ctx, entry)
}

func (s *journalService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, id)
}

func (s *journalService) List(ctx context.Context) ([]models.JournalEntry, error) {
	return s.c.list(ctx)
}

func (s *journalService) Get(ctx context.Context, id string) (*models.JournalEntry, error) {
	return s.c.get(ctx, id)
}
