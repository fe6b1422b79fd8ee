package bars

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/dbx"
	"github.com/dmitrijs2005/brewlog/internal/models"
)

// PostgresRepository stores bars per user over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, name, address, city, country, rating, atmosphere, beer_selection,
	food_quality, service, price_range, amenities, favorite_beers, notes, visited_at,
	created_at, updated_at, synced_at, deleted`

// Upsert inserts b for userID or updates the existing row with the same id.
// A row owned by another user yields common.ErrOwnershipConflict.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, b *models.Bar) error {
	amenities, err := encodeList(b.Amenities)
	if err != nil {
		return err
	}
	favorites, err := encodeList(b.FavoriteBeers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bars (id, user_id, name, address, city, country, rating, atmosphere, beer_selection,
			food_quality, service, price_range, amenities, favorite_beers, notes, visited_at,
			created_at, updated_at, deleted, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now())
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			city = EXCLUDED.city,
			country = EXCLUDED.country,
			rating = EXCLUDED.rating,
			atmosphere = EXCLUDED.atmosphere,
			beer_selection = EXCLUDED.beer_selection,
			food_quality = EXCLUDED.food_quality,
			service = EXCLUDED.service,
			price_range = EXCLUDED.price_range,
			amenities = EXCLUDED.amenities,
			favorite_beers = EXCLUDED.favorite_beers,
			notes = EXCLUDED.notes,
			visited_at = EXCLUDED.visited_at,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted,
			synced_at = now()
			WHERE bars.user_id = EXCLUDED.user_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		b.ID, userID, b.Name, b.Address, b.City, b.Country,
		float64(b.Rating), float64(b.Atmosphere), float64(b.BeerSelection), nullRating(b.FoodQuality), float64(b.Service),
		b.PriceRange, amenities, favorites, b.Notes, b.VisitedAt,
		b.CreatedAt, b.UpdatedAt, b.Deleted)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("bar %s: %w", b.ID, common.ErrOwnershipConflict)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// SelectUpdated returns the user's bars that reached the server after since,
// deleted ones included, oldest first.
func (r *PostgresRepository) SelectUpdated(ctx context.Context, userID string, since time.Time) ([]models.Bar, error) {
	query := `SELECT ` + selectColumns + ` FROM bars
		WHERE user_id = $1 AND synced_at > $2
		ORDER BY synced_at ASC`
	return r.query(ctx, query, userID, since)
}

// SelectActive returns the user's bars that are not deleted.
func (r *PostgresRepository) SelectActive(ctx context.Context, userID string) ([]models.Bar, error) {
	query := `SELECT ` + selectColumns + ` FROM bars
		WHERE user_id = $1 AND deleted = FALSE
		ORDER BY visited_at DESC`
	return r.query(ctx, query, userID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.Bar, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select bars: %w", err)
	}
	defer rows.Close()

	result := []models.Bar{}
	for rows.Next() {
		var (
			b                                      models.Bar
			rating, atmosphere, selection, service float64
			food                                   sql.NullFloat64
			amenities, favorites                   []byte
			syncedAt                               time.Time
		)
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Address, &b.City, &b.Country, &rating, &atmosphere, &selection,
			&food, &service, &b.PriceRange, &amenities, &favorites, &b.Notes, &b.VisitedAt,
			&b.CreatedAt, &b.UpdatedAt, &syncedAt, &b.Deleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		b.Rating = models.Rating(rating)
		b.Atmosphere = models.Rating(atmosphere)
		b.BeerSelection = models.Rating(selection)
		b.Service = models.Rating(service)
		if food.Valid {
			fq := models.Rating(food.Float64)
			b.FoodQuality = &fq
		}
		if err := decodeList(amenities, &b.Amenities); err != nil {
			return nil, err
		}
		if err := decodeList(favorites, &b.FavoriteBeers); err != nil {
			return nil, err
		}
		b.SyncedAt = &syncedAt
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bars: %w", err)
	}
	return result, nil
}

func nullRating(r *models.Rating) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(*r), Valid: true}
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return b, nil
}

func decodeList(data []byte, dst *[]string) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	if len(*dst) == 0 {
		*dst = nil
	}
	return nil
}
