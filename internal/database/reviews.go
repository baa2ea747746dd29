package database

import (
	"context"
	"fmt"

	"spotbnb/internal/models"

	"github.com/jmoiron/sqlx"
)

const reviewColumns = `id, user_id, spot_id, review, stars, created_at, updated_at`

// CreateReview inserts a review. A second review by the same user for the
// same spot fails with ErrUniqueViolation.
func (db *DB) CreateReview(ctx context.Context, review *models.Review) error {
	ts := now()
	id, err := db.insertReturningID(ctx, db.DB,
		`INSERT INTO reviews (user_id, spot_id, review, stars, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		review.UserID, review.SpotID, review.Review, review.Stars, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", translate(err))
	}
	review.ID = id
	review.CreatedAt = ts
	review.UpdatedAt = ts
	return nil
}

func (db *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	err := db.GetContext(ctx, &review, db.Rebind(`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get review %d: %w", id, translate(err))
	}
	return &review, nil
}

// FindReview returns the review a user left on a spot, or ErrNotFound.
func (db *DB) FindReview(ctx context.Context, userID, spotID int64) (*models.Review, error) {
	var review models.Review
	err := db.GetContext(ctx, &review,
		db.Rebind(`SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? AND spot_id = ?`), userID, spotID)
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", translate(err))
	}
	return &review, nil
}

func (db *DB) ListReviewsBySpot(ctx context.Context, spotID int64) ([]models.Review, error) {
	return db.listReviews(ctx, `spot_id = ?`, spotID)
}

func (db *DB) ListReviewsByUser(ctx context.Context, userID int64) ([]models.Review, error) {
	return db.listReviews(ctx, `user_id = ?`, userID)
}

func (db *DB) listReviews(ctx context.Context, cond string, arg any) ([]models.Review, error) {
	reviews := []models.Review{}
	err := db.SelectContext(ctx, &reviews,
		db.Rebind(`SELECT `+reviewColumns+` FROM reviews WHERE `+cond+` ORDER BY id`), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (db *DB) UpdateReview(ctx context.Context, review *models.Review) error {
	ts := now()
	result, err := db.ExecContext(ctx,
		db.Rebind(`UPDATE reviews SET review = ?, stars = ?, updated_at = ? WHERE id = ?`),
		review.Review, review.Stars, ts, review.ID)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	review.UpdatedAt = ts
	return nil
}

// DeleteReview removes a review and its images.
func (db *DB) DeleteReview(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM review_images WHERE review_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete review images: %w", err)
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reviews WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}
