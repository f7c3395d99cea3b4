package store

import (
	"context"

	"kosfinder/internal/listing/models"
)

// ListingStore persists kos listings. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when the
// slug uniqueness constraint rejects an insert. The create path relies on
// that signal to retry with the next slug candidate.
type ListingStore interface {
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Listing, error)
	FindBySlug(ctx context.Context, slug string) (*models.Listing, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Markers(ctx context.Context, filters models.Filters) ([]models.Marker, error)
	ByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error)
	SetActive(ctx context.Context, id int64, active bool) error
	ListAllWithOwner(ctx context.Context) ([]*models.AdminListing, error)
}

// FacilityLinkStore persists the listing↔facility association set.
type FacilityLinkStore interface {
	// Replace deletes all associations for the listing then inserts the new
	// set. An empty set leaves the listing with zero associations.
	Replace(ctx context.Context, kosID int64, assocs []models.FacilityAssociation) error
	DetailsByListing(ctx context.Context, kosID int64) ([]models.FacilityDetail, error)
}

// ReviewStore reads reviews; the registry never writes them.
type ReviewStore interface {
	ListByListing(ctx context.Context, kosID int64) ([]models.Review, error)
}

// StoreTx provides a transactional boundary for multi-step mutations such as
// slug probe + insert + facility insert. The Postgres implementation wraps a
// SQL transaction; the in-memory one serializes with a coarse lock.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
