package database

import (
	"context"
	"fmt"

	"spotbnb/internal/models"

	"github.com/jmoiron/sqlx"
)

func (db *DB) CreateSpotImage(ctx context.Context, img *models.SpotImage) error {
	ts := now()
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO spot_images (spot_id, url, preview, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		img.SpotID, img.URL, img.Preview, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create spot image: %w", translate(err))
	}
	img.ID = id
	img.CreatedAt = ts
	img.UpdatedAt = ts
	return nil
}

func (db *DB) GetSpotImage(ctx context.Context, id int64) (*models.SpotImage, error) {
	var img models.SpotImage
	err := db.GetContext(ctx, &img, db.Rebind(
		`SELECT id, spot_id, url, preview, created_at, updated_at FROM spot_images WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get spot image %d: %w", id, translate(err))
	}
	return &img, nil
}

func (db *DB) ListSpotImages(ctx context.Context, spotID int64) ([]models.SpotImage, error) {
	images := []models.SpotImage{}
	err := db.SelectContext(ctx, &images, db.Rebind(
		`SELECT id, spot_id, url, preview, created_at, updated_at FROM spot_images WHERE spot_id = ? ORDER BY id`), spotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list spot images: %w", err)
	}
	return images, nil
}

func (db *DB) DeleteSpotImage(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "spot_images", id)
}

// CreateReviewImage attaches an image unless the review already holds limit images.
func (db *DB) CreateReviewImage(ctx context.Context, img *models.ReviewImage, limit int) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		err := tx.QueryRowxContext(ctx, tx.Rebind(`SELECT COUNT(*) FROM review_images WHERE review_id = ?`), img.ReviewID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count review images: %w", err)
		}
		if count >= limit {
			return ErrLimitReached
		}

		ts := now()
		id, err := db.insertReturningID(ctx, tx,
			`INSERT INTO review_images (review_id, url, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			img.ReviewID, img.URL, ts, ts)
		if err != nil {
			return fmt.Errorf("failed to create review image: %w", translate(err))
		}
		img.ID = id
		img.CreatedAt = ts
		img.UpdatedAt = ts
		return nil
	})
}

func (db *DB) GetReviewImage(ctx context.Context, id int64) (*models.ReviewImage, error) {
	var img models.ReviewImage
	err := db.GetContext(ctx, &img, db.Rebind(
		`SELECT id, review_id, url, created_at, updated_at FROM review_images WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review image %d: %w", id, translate(err))
	}
	return &img, nil
}

// ListReviewImages groups the images of the given reviews by review id.
func (db *DB) ListReviewImages(ctx context.Context, reviewIDs []int64) (map[int64][]models.ReviewImage, error) {
	result := make(map[int64][]models.ReviewImage, len(reviewIDs))
	if len(reviewIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, review_id, url, created_at, updated_at FROM review_images WHERE review_id IN (?) ORDER BY id`, reviewIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build review images query: %w", err)
	}

	var images []models.ReviewImage
	if err := db.SelectContext(ctx, &images, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list review images: %w", err)
	}
	for _, img := range images {
		result[img.ReviewID] = append(result[img.ReviewID], img)
	}
	return result, nil
}

func (db *DB) DeleteReviewImage(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "review_images", id)
}

func (db *DB) deleteByID(ctx context.Context, table string, id int64) error {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM `+table+` WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
