package store

import (
	"context"
	"sort"
	"sync"

	"kosfinder/internal/listing/models"
	"kosfinder/pkg/platform/sentinel"
)

// InMemory backs the listing, facility-link, and review stores with maps for
// unit tests and local development. One struct covers all three interfaces so
// service tests need a single fixture.
type InMemory struct {
	mu            sync.RWMutex
	nextID        int64
	listings      map[int64]*models.Listing
	slugs         map[string]int64
	links         map[int64][]models.FacilityAssociation
	facilityTypes map[int64]models.FacilityType
	reviews       map[int64][]models.Review
	owners        map[string]models.OwnerSummary
}

func NewInMemory() *InMemory {
	return &InMemory{
		nextID:        1,
		listings:      make(map[int64]*models.Listing),
		slugs:         make(map[string]int64),
		links:         make(map[int64][]models.FacilityAssociation),
		facilityTypes: make(map[int64]models.FacilityType),
		reviews:       make(map[int64][]models.Review),
		owners:        make(map[string]models.OwnerSummary),
	}
}

// SeedFacilityTypes registers reference facility types for join results.
func (s *InMemory) SeedFacilityTypes(types ...models.FacilityType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ft := range types {
		s.facilityTypes[ft.ID] = ft
	}
}

// SeedOwner registers owner identity used by ListAllWithOwner.
func (s *InMemory) SeedOwner(owner models.OwnerSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.ID] = owner
}

// SeedReviews attaches reviews to a listing.
func (s *InMemory) SeedReviews(kosID int64, reviews ...models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[kosID] = append(s.reviews[kosID], reviews...)
}

func (s *InMemory) Create(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[listing.Slug]; taken {
		return sentinel.ErrConflict
	}
	listing.ID = s.nextID
	s.nextID++
	cp := *listing
	s.listings[listing.ID] = &cp
	s.slugs[listing.Slug] = listing.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, listing *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[listing.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.slugs, listing.Slug)
	delete(s.listings, id)
	// cascade, as the relational schema would
	delete(s.links, id)
	delete(s.reviews, id)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *listing
	return &cp, nil
}

func (s *InMemory) FindBySlug(_ context.Context, slug string) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.slugs[slug]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.listings[id]
	return &cp, nil
}

func (s *InMemory) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.slugs[slug]
	return ok, nil
}

func (s *InMemory) Markers(_ context.Context, filters models.Filters) ([]models.Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	markers := make([]models.Marker, 0)
	for _, listing := range s.listings {
		if !listing.IsActive {
			continue
		}
		if filters.Gender != nil && listing.Gender != *filters.Gender {
			continue
		}
		if filters.MinPrice != nil && listing.MonthlyPrice < *filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && listing.MonthlyPrice > *filters.MaxPrice {
			continue
		}
		if filters.MaxDistanceKM != nil && listing.DistanceToCampusKM > *filters.MaxDistanceKM {
			continue
		}
		if filters.AvailableOnly && listing.AvailableRooms <= 0 {
			continue
		}
		markers = append(markers, listing.Marker())
	}
	sort.Slice(markers, func(i, j int) bool {
		return markers[i].DistanceToCampusKM < markers[j].DistanceToCampusKM
	})
	return markers, nil
}

func (s *InMemory) ByOwner(_ context.Context, ownerID string) ([]*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Listing
	for _, listing := range s.listings {
		if listing.OwnerID == ownerID {
			cp := *listing
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *InMemory) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.listings[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	listing.IsActive = active
	return nil
}

func (s *InMemory) ListAllWithOwner(_ context.Context) ([]*models.AdminListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.AdminListing
	for _, listing := range s.listings {
		cp := *listing
		result = append(result, &models.AdminListing{
			Listing: cp,
			Owner:   s.owners[listing.OwnerID],
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *InMemory) Replace(_ context.Context, kosID int64, assocs []models.FacilityAssociation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(assocs) == 0 {
		delete(s.links, kosID)
		return nil
	}
	cp := make([]models.FacilityAssociation, len(assocs))
	copy(cp, assocs)
	s.links[kosID] = cp
	return nil
}

func (s *InMemory) DetailsByListing(_ context.Context, kosID int64) ([]models.FacilityDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	details := make([]models.FacilityDetail, 0, len(s.links[kosID]))
	for _, link := range s.links[kosID] {
		detail := models.FacilityDetail{
			ExtraPrice:  link.ExtraPrice,
			IsAvailable: link.IsAvailable,
		}
		if ft, ok := s.facilityTypes[link.FacilityID]; ok {
			detail.FacilityType = ft
		} else {
			detail.FacilityType = models.FacilityType{ID: link.FacilityID}
		}
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ID < details[j].ID })
	return details, nil
}

func (s *InMemory) ListByListing(_ context.Context, kosID int64) ([]models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := make([]models.Review, len(s.reviews[kosID]))
	copy(reviews, s.reviews[kosID])
	return reviews, nil
}

// LinksByListing exposes raw associations for test assertions.
func (s *InMemory) LinksByListing(kosID int64) []models.FacilityAssociation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]models.FacilityAssociation, len(s.links[kosID]))
	copy(cp, s.links[kosID])
	return cp
}

// InMemoryTx serializes mutations with a coarse lock, mirroring what the
// Postgres StoreTx gives via a SQL transaction.
type InMemoryTx struct {
	mu sync.Mutex
}

func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
