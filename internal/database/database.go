package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spotbnb/internal/config"
	"spotbnb/internal/worker"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the data-access handle shared by every repository method.
type DB struct {
	*sqlx.DB
	driver string
	path   string
	logger *zerolog.Logger
}

func NewDB(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverSQLite
	}

	var dsn string
	switch driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = cfg.Path + "?_foreign_keys=on&_busy_timeout=5000"
	case config.DriverPostgres:
		dsn = cfg.Postgres.DSN()
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == config.DriverSQLite {
		// one connection serializes writers and keeps :memory: databases shared
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	db := &DB{DB: sqlDB, driver: driver, path: cfg.Path, logger: logger}

	policy := worker.RetryPolicy{
		MaxRetries:    cfg.ConnectRetry.MaxRetries,
		InitialDelay:  cfg.ConnectRetry.InitialDelay,
		MaxDelay:      cfg.ConnectRetry.MaxDelay,
		BackoffFactor: cfg.ConnectRetry.BackoffFactor,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err = policy.Do(ctx, db.PingContext, func(attempt int, delay time.Duration, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Database not reachable, retrying")
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.createTables(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", driver).Msg("Database initialized")
	return db, nil
}

func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) Close() error {
	return db.DB.Close()
}

var dialects = map[string]*strings.Replacer{
	config.DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "DATETIME",
		"{{date}}", "TEXT",
		"{{real}}", "REAL",
	),
	config.DriverPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{date}}", "DATE",
		"{{real}}", "DOUBLE PRECISION",
	),
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		id {{pk}},
		owner_id BIGINT NOT NULL REFERENCES users(id),
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL,
		lat {{real}} NOT NULL,
		lng {{real}} NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		price {{real}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spot_images (
		id {{pk}},
		spot_id BIGINT NOT NULL REFERENCES spots(id),
		url TEXT NOT NULL,
		preview BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id {{pk}},
		spot_id BIGINT NOT NULL REFERENCES spots(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		review TEXT NOT NULL,
		stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_images (
		id {{pk}},
		review_id BIGINT NOT NULL REFERENCES reviews(id),
		url TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id {{pk}},
		spot_id BIGINT NOT NULL REFERENCES spots(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		start_date {{date}} NOT NULL,
		end_date {{date}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL,
		CHECK (end_date > start_date)
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_reviews_user_spot ON reviews(user_id, spot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_spots_owner_id ON spots(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_spot_images_spot_id ON spot_images(spot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_spot_id ON reviews(spot_id)`,
	`CREATE INDEX IF NOT EXISTS idx_review_images_review_id ON review_images(review_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_spot_dates ON bookings(spot_id, start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)`,
}

func (db *DB) createTables(ctx context.Context) error {
	dialect := dialects[db.driver]
	for _, stmt := range schema {
		query := dialect.Replace(stmt)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing only when fn returns nil.
// Inside fn only tx may be used: sqlite has a single connection.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertReturningID runs an INSERT ... RETURNING id on q.
func (db *DB) insertReturningID(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func now() time.Time {
	return time.Now().UTC()
}
