//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"kosfinder/internal/platform/postgres"
)

// PostgresContainer wraps a throwaway Postgres instance with the schema
// applied.
type PostgresContainer struct {
	URL string
	DB  *sql.DB
}

// NewPostgresContainer starts a Postgres container, opens a pool, and runs
// the migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kosfinder_test"),
		tcpostgres.WithUsername("kosfinder"),
		tcpostgres.WithPassword("kosfinder"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := postgres.Open(openCtx, url)
	if err != nil {
		t.Fatalf("failed to open postgres pool: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return &PostgresContainer{URL: url, DB: db}
}

// Truncate clears mutable tables between tests.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE audit_events, reviews, kos_facilities, kos_listings, facility_types, users
		RESTART IDENTITY CASCADE`)
	return err
}
