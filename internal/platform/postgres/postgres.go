// Package postgres owns the database handle and the schema. The service is
// small enough that embedded DDL beats a migration tool; every statement is
// idempotent so startup can run it unconditionally.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open connects to Postgres via the pgx stdlib driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// schema holds the full relational layout. The UNIQUE constraint on
// kos_listings.slug closes the probe-then-insert race: a losing writer gets a
// unique violation, its transaction rolls back, and the service retries the
// next slug candidate in a fresh transaction. Child rows hang off
// ON DELETE CASCADE so deleting a listing needs a single statement.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	email      TEXT NOT NULL UNIQUE,
	image_url  TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT 'USER' CHECK (role IN ('USER', 'ADMIN')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS facility_types (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	icon       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS kos_listings (
	id                     BIGSERIAL PRIMARY KEY,
	owner_id               TEXT NOT NULL REFERENCES users(id),
	title                  TEXT NOT NULL,
	slug                   TEXT NOT NULL UNIQUE,
	description            TEXT NOT NULL DEFAULT '',
	address                TEXT NOT NULL,
	gender                 TEXT NOT NULL CHECK (gender IN ('PUTRA', 'PUTRI', 'CAMPUR')),
	monthly_price          BIGINT NOT NULL CHECK (monthly_price > 0),
	latitude               DOUBLE PRECISION NOT NULL,
	longitude              DOUBLE PRECISION NOT NULL,
	distance_to_campus_km  DOUBLE PRECISION NOT NULL DEFAULT 0,
	available_rooms        INTEGER NOT NULL DEFAULT 0 CHECK (available_rooms >= 0),
	total_rooms            INTEGER NOT NULL DEFAULT 1 CHECK (total_rooms > 0),
	cover_image            TEXT NOT NULL DEFAULT '',
	cover_image_url        TEXT NOT NULL DEFAULT '',
	images                 JSONB NOT NULL DEFAULT '[]',
	image_urls             JSONB NOT NULL DEFAULT '[]',
	is_active              BOOLEAN NOT NULL DEFAULT TRUE,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_kos_listings_owner ON kos_listings(owner_id);
CREATE INDEX IF NOT EXISTS idx_kos_listings_active_distance ON kos_listings(is_active, distance_to_campus_km);

CREATE TABLE IF NOT EXISTS kos_facilities (
	kos_id       BIGINT NOT NULL REFERENCES kos_listings(id) ON DELETE CASCADE,
	facility_id  BIGINT NOT NULL REFERENCES facility_types(id),
	is_available BOOLEAN NOT NULL DEFAULT TRUE,
	extra_price  BIGINT NOT NULL DEFAULT 0 CHECK (extra_price >= 0),
	PRIMARY KEY (kos_id, facility_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id         BIGSERIAL PRIMARY KEY,
	kos_id     BIGINT NOT NULL REFERENCES kos_listings(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id),
	rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reviews_kos ON reviews(kos_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	actor_id    TEXT NOT NULL DEFAULT '',
	subject     TEXT NOT NULL DEFAULT '',
	request_id  TEXT NOT NULL DEFAULT '',
	client_ip   TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT '',
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the embedded schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
