package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/dmitrijs2005/brewlog/internal/storage"
)

// BarService manages visited bars. Semantics match JournalService, with
// List ordered by visit date.
type BarService interface {
	Create(ctx context.Context, bar models.Bar) (*models.Bar, error)
	Update(ctx context.Context, bar models.Bar) (*models.Bar, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Bar, error)
	Get(ctx context.Context, id string) (*models.Bar, error)
}

type barService struct {
	c collection[models.Bar, *models.Bar]
}

// NewBarService returns a BarService over the bars collection in store.
func NewBarService(store storage.Store, now func() time.Time) BarService {
	if now == nil {
		now = time.Now
	}
	return &barService{c: collection[models.Bar, *models.Bar]{
		store: store,
		key:   storage.KeyBars,
		now:   now,
		newer: func(a, b *models.Bar) bool { return a.VisitedAt.After(b.VisitedAt) },
	}}
}

func (s *barService) Create(ctx context.Context, bar models.Bar) (*models.Bar, error) {
	return s.c.create(ctx, bar)
}

func (s *barService) Update(ctx context.Context, bar models.Bar) (*models.Bar, error) {
	return s.c.update(ctx, bar)
}

func (s *barService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, id)
}

func (s *barService) List(ctx context.Context) ([]models.Bar, error) {
	return s.c.list(ctx)
}

func (s *barService) Get(ctx context.Context, id string) (*models.Bar, error) {
	return s.c.get(ctx, id)
}
