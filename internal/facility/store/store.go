package store

import (
	"context"

	"kosfinder/internal/listing/models"
)

// Store reads facility type reference data.
type Store interface {
	ListAll(ctx context.Context) ([]models.FacilityType, error)
}
