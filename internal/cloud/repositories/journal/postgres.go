package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/brewlog/internal/common"
	"github.com/dmitrijs2005/brewlog/internal/dbx"
	"github.com/dmitrijs2005/brewlog/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, beer_id, beer_name, brewery, style, abv, ibu, rating,
	appearance, aroma, taste, mouthfeel, notes, location, serving_type, glassware,
	pairing_food, image_url, drank_at, created_at, updated_at, synced_at, deleted`

// Upsert writes entry; the server stamps synced_at so other devices see the
// row on their next pull.
func (r *PostgresRepository) Upsert(ctx context.Context, userID string, e *models.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (id, user_id, beer_id, beer_name, brewery, style, abv, ibu, rating,
			appearance, aroma, taste, mouthfeel, notes, location, serving_type, glassware,
			pairing_food, image_url, drank_at, created_at, updated_at, deleted, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, now())
		ON CONFLICT (id)
		DO UPDATE SET
			beer_id = EXCLUDED.beer_id,
			beer_name = EXCLUDED.beer_name,
			brewery = EXCLUDED.brewery,
			style = EXCLUDED.style,
			abv = EXCLUDED.abv,
			ibu = EXCLUDED.ibu,
			rating = EXCLUDED.rating,
			appearance = EXCLUDED.appearance,
			aroma = EXCLUDED.aroma,
			taste = EXCLUDED.taste,
			mouthfeel = EXCLUDED.mouthfeel,
			notes = EXCLUDED.notes,
			location = EXCLUDED.location,
			serving_type = EXCLUDED.serving_type,
			glassware = EXCLUDED.glassware,
			pairing_food = EXCLUDED.pairing_food,
			image_url = EXCLUDED.image_url,
			drank_at = EXCLUDED.drank_at,
			updated_at = EXCLUDED.updated_at,
			deleted = EXCLUDED.deleted,
			synced_at = now()
			WHERE journal_entries.user_id = EXCLUDED.user_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, userID, e.BeerID, e.BeerName, e.Brewery, e.Style, e.ABV, nullFloat(e.IBU), float64(e.Rating),
		e.Appearance, e.Aroma, e.Taste, e.Mouthfeel, e.Notes, e.Location, e.ServingType, e.Glassware,
		e.PairingFood, e.ImageURL, e.DrankAt, e.CreatedAt, e.UpdatedAt, e.Deleted)
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
		return fmt.Errorf("journal entry %s: %w", e.ID, common.ErrOwnershipConflict)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// SelectUpdated returns the user's entries that reached the server after
// since, deleted ones included, oldest first.
func (r *PostgresRepository) SelectUpdated(ctx context.Context, userID string, since time.Time) ([]models.JournalEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM journal_entries
		WHERE user_id = $1 AND synced_at > $2
		ORDER BY synced_at ASC`
	return r.query(ctx, query, userID, since)
}

// SelectActive returns the user's entries that are not deleted.
func (r *PostgresRepository) SelectActive(ctx context.Context, userID string) ([]models.JournalEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM journal_entries
		WHERE user_id = $1 AND deleted = FALSE
		ORDER BY drank_at DESC`
	return r.query(ctx, query, userID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select journal entries: %w", err)
	}
	defer rows.Close()

	result := []models.JournalEntry{}
	for rows.Next() {
		var (
			e        models.JournalEntry
			ibu      sql.NullFloat64
			rating   float64
			syncedAt time.Time
		)
		if err := rows.Scan(
			&e.ID, &e.BeerID, &e.BeerName, &e.Brewery, &e.Style, &e.ABV, &ibu, &rating,
			&e.Appearance, &e.Aroma, &e.Taste, &e.Mouthfeel, &e.Notes, &e.Location, &e.ServingType, &e.Glassware,
			&e.PairingFood, &e.ImageURL, &e.DrankAt, &e.CreatedAt, &e.UpdatedAt, &syncedAt, &e.Deleted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if ibu.Valid {
			v := ibu.Float64
			e.IBU = &v
		}
		e.Rating = models.Rating(rating)
		e.SyncedAt = &syncedAt
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return result, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
