package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"spotbnb/internal/config"
	"spotbnb/internal/models"

	"github.com/jmoiron/sqlx"
)

const spotColumns = `s.id, s.owner_id, s.address, s.city, s.state, s.country, s.lat, s.lng,
	s.name, s.description, s.price, s.created_at, s.updated_at`

func (db *DB) CreateSpot(ctx context.Context, spot *models.Spot) error {
	ts := now()
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO spots (owner_id, address, city, state, country, lat, lng, name, description, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spot.OwnerID, spot.Address, spot.City, spot.State, spot.Country, spot.Lat, spot.Lng,
		spot.Name, spot.Description, spot.Price, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create spot: %w", translate(err))
	}
	spot.ID = id
	spot.CreatedAt = ts
	spot.UpdatedAt = ts
	return nil
}

func (db *DB) GetSpot(ctx context.Context, id int64) (*models.Spot, error) {
	var spot models.Spot
	err := db.GetContext(ctx, &spot, db.Rebind(`SELECT `+spotColumns+` FROM spots s WHERE s.id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot %d: %w", id, translate(err))
	}
	return &spot, nil
}

// ListSpots returns spots matching every bound set in filter, ordered by id,
// each with its average rating and first preview image.
func (db *DB) ListSpots(ctx context.Context, filter models.SpotFilter) ([]models.SpotSummary, error) {
	var (
		conds []string
		args  = []any{true}
	)
	bound := func(cond string, v *float64) {
		if v != nil {
			conds = append(conds, cond)
			args = append(args, *v)
		}
	}
	bound("s.lat >= ?", filter.MinLat)
	bound("s.lat <= ?", filter.MaxLat)
	bound("s.lng >= ?", filter.MinLng)
	bound("s.lng <= ?", filter.MaxLng)
	bound("s.price >= ?", filter.MinPrice)
	bound("s.price <= ?", filter.MaxPrice)
	if filter.OwnerID != nil {
		conds = append(conds, "s.owner_id = ?")
		args = append(args, *filter.OwnerID)
	}

	query := `SELECT ` + spotColumns + `,
		(SELECT AVG(r.stars) FROM reviews r WHERE r.spot_id = s.id) AS avg_rating,
		(SELECT i.url FROM spot_images i WHERE i.spot_id = s.id AND i.preview = ? ORDER BY i.id LIMIT 1) AS preview_image
		FROM spots s`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.id"

	spots := []models.SpotSummary{}
	if err := db.SelectContext(ctx, &spots, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list spots: %w", err)
	}
	return spots, nil
}

// GetSpotRating computes the average stars and review count of a spot.
func (db *DB) GetSpotRating(ctx context.Context, spotID int64) (models.SpotRating, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := db.QueryRowxContext(ctx,
		db.Rebind(`SELECT AVG(stars), COUNT(*) FROM reviews WHERE spot_id = ?`), spotID).Scan(&avg, &count)
	if err != nil {
		return models.SpotRating{}, fmt.Errorf("failed to get spot rating: %w", err)
	}

	rating := models.SpotRating{NumReviews: count}
	if avg.Valid && count > 0 {
		rating.AvgRating = &avg.Float64
	}
	return rating, nil
}

func (db *DB) UpdateSpot(ctx context.Context, spot *models.Spot) error {
	ts := now()
	result, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE spots SET address = ?, city = ?, state = ?, country = ?, lat = ?, lng = ?,
		 name = ?, description = ?, price = ?, updated_at = ? WHERE id = ?`),
		spot.Address, spot.City, spot.State, spot.Country, spot.Lat, spot.Lng,
		spot.Name, spot.Description, spot.Price, ts, spot.ID)
	if err != nil {
		return fmt.Errorf("failed to update spot: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	spot.UpdatedAt = ts
	return nil
}

// DeleteSpot removes a spot with its images, reviews, review images and bookings.
func (db *DB) DeleteSpot(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		stmts := []string{
			`DELETE FROM review_images WHERE review_id IN (SELECT id FROM reviews WHERE spot_id = ?)`,
			`DELETE FROM reviews WHERE spot_id = ?`,
			`DELETE FROM spot_images WHERE spot_id = ?`,
			`DELETE FROM bookings WHERE spot_id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return fmt.Errorf("failed to delete spot children: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM spots WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete spot: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// lockSpot takes a write lock on the spot row for the rest of tx.
func (db *DB) lockSpot(ctx context.Context, tx *sqlx.Tx, spotID int64) error {
	var err error
	if db.driver == config.DriverPostgres {
		var id int64
		err = tx.QueryRowxContext(ctx, tx.Rebind(`SELECT id FROM spots WHERE id = ? FOR UPDATE`), spotID).Scan(&id)
	} else {
		var result sql.Result
		result, err = tx.ExecContext(ctx, `UPDATE spots SET id = id WHERE id = ?`, spotID)
		if err == nil {
			if rows, _ := result.RowsAffected(); rows == 0 {
				return ErrNotFound
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to lock spot %d: %w", spotID, translate(err))
	}
	return nil
}
