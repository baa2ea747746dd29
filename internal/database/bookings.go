package database

import (
	"context"
	"fmt"

	"spotbnb/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, spot_id, user_id, start_date, end_date, created_at, updated_at`

// HasBookingConflict reports whether [start, end] collides with a booking of
// the spot other than excludeID, using the given overlap mode.
func (db *DB) HasBookingConflict(ctx context.Context, spotID int64, start, end models.Date, excludeID int64, mode models.OverlapMode) (bool, error) {
	return db.hasConflict(ctx, db.DB, spotID, start, end, excludeID, mode)
}

func (db *DB) hasConflict(ctx context.Context, q sqlx.QueryerContext, spotID int64, start, end models.Date, excludeID int64, mode models.OverlapMode) (bool, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE spot_id = ? AND id <> ? AND `
	args := []any{spotID, excludeID}

	if mode == models.OverlapFull {
		query += `start_date <= ? AND end_date >= ?`
		args = append(args, end, start)
	} else {
		query += `((start_date >= ? AND start_date <= ?) OR (end_date >= ? AND end_date <= ?))`
		args = append(args, start, end, start, end)
	}

	var count int
	if err := q.QueryRowxContext(ctx, db.Rebind(query), args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check booking conflict: %w", err)
	}
	return count > 0, nil
}

// CreateBooking checks for conflicts and inserts the booking in one
// transaction holding the spot row lock.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking, mode models.OverlapMode) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := db.lockSpot(ctx, tx, booking.SpotID); err != nil {
			return err
		}

		conflict, err := db.hasConflict(ctx, tx, booking.SpotID, booking.StartDate, booking.EndDate, 0, mode)
		if err != nil {
			return err
		}
		if conflict {
			return ErrBookingConflict
		}

		ts := now()
		id, err := db.insertReturningID(ctx, tx,
			`INSERT INTO bookings (spot_id, user_id, start_date, end_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			booking.SpotID, booking.UserID, booking.StartDate, booking.EndDate, ts, ts)
		if err != nil {
			return fmt.Errorf("failed to insert booking in tx: %w", err)
		}
		booking.ID = id
		booking.CreatedAt = ts
		booking.UpdatedAt = ts
		return nil
	})
}

// UpdateBookingDates moves a booking to new dates, checking conflicts against
// every other booking of the spot under the same lock as CreateBooking.
func (db *DB) UpdateBookingDates(ctx context.Context, booking *models.Booking, mode models.OverlapMode) error {
	return db.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := db.lockSpot(ctx, tx, booking.SpotID); err != nil {
			return err
		}

		conflict, err := db.hasConflict(ctx, tx, booking.SpotID, booking.StartDate, booking.EndDate, booking.ID, mode)
		if err != nil {
			return err
		}
		if conflict {
			return ErrBookingConflict
		}

		ts := now()
		result, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE bookings SET start_date = ?, end_date = ?, updated_at = ? WHERE id = ?`),
			booking.StartDate, booking.EndDate, ts, booking.ID)
		if err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		booking.UpdatedAt = ts
		return nil
	})
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowxContext(ctx, db.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id)

	var b models.Booking
	err := row.Scan(&b.ID, &b.SpotID, &b.UserID, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, translate(err))
	}
	return &b, nil
}

func (db *DB) ListBookingsBySpot(ctx context.Context, spotID int64) ([]models.Booking, error) {
	return db.listBookings(ctx, `spot_id = ?`, spotID)
}

func (db *DB) ListBookingsByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	return db.listBookings(ctx, `user_id = ?`, userID)
}

func (db *DB) listBookings(ctx context.Context, cond string, arg any) ([]models.Booking, error) {
	rows, err := db.QueryxContext(ctx,
		db.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE `+cond+` ORDER BY start_date, id`), arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.SpotID, &b.UserID, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "bookings", id)
}
