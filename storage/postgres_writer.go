package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"carscan/models"
)

// PostgresStore persists finished listings and searches to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS vehicle_listings (
			id          SERIAL PRIMARY KEY,
			source      VARCHAR(100)  NOT NULL,
			title       VARCHAR(500)  NOT NULL,
			price       NUMERIC(14,2) NOT NULL,
			year        INTEGER,
			mileage     INTEGER,
			city        VARCHAR(200),
			latitude    DOUBLE PRECISION,
			longitude   DOUBLE PRECISION,
			url         TEXT          UNIQUE NOT NULL,
			score       DOUBLE PRECISION,
			fetched_at  TIMESTAMPTZ   NOT NULL,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_source ON vehicle_listings(source);
		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_price  ON vehicle_listings(price);
		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_year   ON vehicle_listings(year);
		CREATE INDEX IF NOT EXISTS idx_vehicle_listings_city   ON vehicle_listings(city);

		CREATE TABLE IF NOT EXISTS searches (
			id         SERIAL PRIMARY KEY,
			query      VARCHAR(500) NOT NULL,
			user_lat   DOUBLE PRECISION,
			user_lon   DOUBLE PRECISION,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

// SaveListings batch-upserts listings by URL, refreshing the mutable columns
// when a listing resurfaces in a later search.
func (ps *PostgresStore) SaveListings(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := ps.insertBatch(ctx, listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(ctx context.Context, batch []*models.Listing) error {
	const cols = 11
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for p := 0; p < cols; p++ {
			placeholders[p] = fmt.Sprintf("$%d", base+p+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.Source, l.Title, l.Price, l.Year, l.Mileage, l.City,
			l.Latitude, l.Longitude, l.URL, l.Score, l.FetchedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO vehicle_listings
			(source, title, price, year, mileage, city, latitude, longitude, url, score, fetched_at)
		VALUES %s
		ON CONFLICT (url) DO UPDATE SET
			price      = EXCLUDED.price,
			year       = EXCLUDED.year,
			mileage    = EXCLUDED.mileage,
			city       = EXCLUDED.city,
			score      = EXCLUDED.score,
			fetched_at = EXCLUDED.fetched_at,
			updated_at = NOW()
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.ExecContext(ctx, query, valueArgs...)
	if err != nil {
		return fmt.Errorf("postgres: upsert listings: %w", err)
	}
	return nil
}

// RecordSearch stores one search query for analytics.
func (ps *PostgresStore) RecordSearch(ctx context.Context, query string, origin *models.Coordinates) error {
	var lat, lon *float64
	if origin != nil {
		lat, lon = &origin.Latitude, &origin.Longitude
	}

	_, err := ps.db.ExecContext(ctx,
		`INSERT INTO searches (query, user_lat, user_lon) VALUES ($1, $2, $3)`,
		query, lat, lon)
	if err != nil {
		return fmt.Errorf("postgres: record search: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
