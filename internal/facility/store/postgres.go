package store

import (
	"context"
	"database/sql"
	"fmt"

	"kosfinder/internal/listing/models"
)

// Postgres reads facility types from the facility_types table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) ListAll(ctx context.Context) ([]models.FacilityType, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, icon, created_at FROM facility_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query facility types: %w", err)
	}
	defer rows.Close()

	types := make([]models.FacilityType, 0)
	for rows.Next() {
		var ft models.FacilityType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.Icon, &ft.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan facility type: %w", err)
		}
		types = append(types, ft)
	}
	return types, rows.Err()
}
