package bars

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock, db
}

const upsertRe = `INSERT INTO bars .* ON CONFLICT \(id\)\s+DO UPDATE SET .* WHERE bars\.user_id = EXCLUDED\.user_id;`

var t0 = time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC)

func sampleBar() *models.Bar {
	return &models.Bar{
		SyncMeta:      models.SyncMeta{ID: "b1", CreatedAt: t0, UpdatedAt: t0},
		Name:          "Mikkeller Bar",
		City:          "Copenhagen",
		Rating:        5,
		Atmosphere:    4,
		BeerSelection: 5,
		Service:       4,
		Amenities:     []string{"wifi", "outdoor"},
		VisitedAt:     t0,
	}
}

func TestUpsert_EncodesListsAsJSON(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	b := sampleBar()

	mock.ExpectExec(upsertRe).
		WithArgs(b.ID, "u1", b.Name, b.Address, b.City, b.Country,
			5.0, 4.0, 5.0, sqlmock.AnyArg(), 4.0,
			b.PriceRange, []byte(`["wifi","outdoor"]`), []byte(`[]`), b.Notes, b.VisitedAt,
			b.CreatedAt, b.UpdatedAt, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), "u1", b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_OwnershipConflict(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(upsertRe).WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Upsert(context.Background(), "u1", sampleBar()), common.ErrOwnershipConflict)
}

func TestUpsert_UnexpectedRowCount(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectExec(upsertRe).WillReturnResult(sqlmock.NewResult(0, 2))

	require.ErrorContains(t, repo.Upsert(context.Background(), "u1", sampleBar()), "unexpected rows affected: 2")
}

func barColumns() []string {
	return []string{"id", "name", "address", "city", "country", "rating", "atmosphere", "beer_selection",
		"food_quality", "service", "price_range", "amenities", "favorite_beers", "notes", "visited_at",
		"created_at", "updated_at", "synced_at", "deleted"}
}

func TestSelectUpdated_DecodesRows(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)
	synced := t0.Add(time.Minute)

	rows := sqlmock.NewRows(barColumns()).
		AddRow("b1", "Mikkeller Bar", "", "Copenhagen", "DK", 5.0, 4.0, 5.0,
			3.5, 4.0, "$$$", []byte(`["wifi"]`), []byte(`["Beer Geek Breakfast"]`), "", t0,
			t0, t0, synced, false)

	mock.ExpectQuery(`SELECT .* FROM bars\s+WHERE user_id = \$1 AND synced_at > \$2`).
		WithArgs("u1", t0).
		WillReturnRows(rows)

	got, err := repo.SelectUpdated(context.Background(), "u1", t0)
	require.NoError(t, err)
	require.Len(t, got, 1)

	b := got[0]
	assert.Equal(t, []string{"wifi"}, b.Amenities)
	assert.Equal(t, []string{"Beer Geek Breakfast"}, b.FavoriteBeers)
	require.NotNil(t, b.FoodQuality)
	assert.Equal(t, models.Rating(3.5), *b.FoodQuality)
	require.NotNil(t, b.SyncedAt)
}

func TestSelectUpdated_BadListJSON(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	rows := sqlmock.NewRows(barColumns()).
		AddRow("b1", "X", "", "", "", 1.0, 1.0, 1.0,
			nil, 1.0, "", []byte(`{nope`), []byte(`[]`), "", t0,
			t0, t0, t0, false)
	mock.ExpectQuery(`SELECT .* FROM bars`).WillReturnRows(rows)

	_, err := repo.SelectUpdated(context.Background(), "u1", t0)
	require.ErrorContains(t, err, "decode list")
}

func TestSelectActive_QueryError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM bars\s+WHERE user_id = \$1 AND deleted = FALSE`).WillReturnError(errors.New("gone"))

	_, err := repo.SelectActive(context.Background(), "u1")
	require.ErrorContains(t, err, "failed to select bars")
}
