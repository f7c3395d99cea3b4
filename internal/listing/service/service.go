package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"kosfinder/internal/audit"
	"kosfinder/internal/listing/cache"
	"kosfinder/internal/listing/metrics"
	"kosfinder/internal/listing/models"
	"kosfinder/internal/listing/store"
	usermodels "kosfinder/internal/user/models"
	userstore "kosfinder/internal/user/store"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/sentinel"
	strutil "kosfinder/pkg/platform/strings"
	"kosfinder/pkg/requestcontext"
)

// maxSlugAttempts bounds the collision probe so a pathological title cannot
// spin the create transaction forever.
const maxSlugAttempts = 50

// Service owns the listing registry: public marker queries, detail assembly,
// and owner-scoped mutations with slug allocation.
type Service struct {
	listings   store.ListingStore
	facilities store.FacilityLinkStore
	reviews    store.ReviewStore
	tx         store.StoreTx
	users      userstore.Store
	cache      *cache.MarkerCache
	audit      *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func New(
	listings store.ListingStore,
	facilities store.FacilityLinkStore,
	reviews store.ReviewStore,
	tx store.StoreTx,
	users userstore.Store,
	markerCache *cache.MarkerCache,
	auditPublisher *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		listings:   listings,
		facilities: facilities,
		reviews:    reviews,
		tx:         tx,
		users:      users,
		cache:      markerCache,
		audit:      auditPublisher,
		metrics:    m,
		logger:     logger,
	}
}

// Markers returns the active listings matching the filters, nearest to the
// campus first. Results are served from cache when possible.
func (s *Service) Markers(ctx context.Context, filters models.Filters) ([]models.Marker, error) {
	if filters.Gender != nil && !filters.Gender.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown gender filter")
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && *filters.MinPrice > *filters.MaxPrice {
		return nil, dErrors.New(dErrors.CodeValidation, "min_price exceeds max_price")
	}

	start := time.Now()
	if markers, ok := s.cache.Get(ctx, filters); ok {
		s.metrics.ObserveMarkerQuery("cache", time.Since(start))
		return markers, nil
	}

	markers, err := s.listings.Markers(ctx, filters)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query markers")
	}
	s.cache.Set(ctx, filters, markers)
	s.metrics.ObserveMarkerQuery("store", time.Since(start))
	return markers, nil
}

// Details resolves a listing by numeric ID or slug and assembles its owner,
// facilities, and reviews. Inactive listings stay hidden unless the caller
// is allowed to see them.
func (s *Service) Details(ctx context.Context, idOrSlug string, allowInactive bool) (*models.ListingDetails, error) {
	listing, err := s.resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive && !allowInactive {
		return nil, dErrors.New(dErrors.CodeNotFound, "listing not found")
	}

	details := &models.ListingDetails{Listing: *listing}

	owner, err := s.users.FindByID(ctx, listing.OwnerID)
	switch {
	case err == nil:
		details.Owner = &models.OwnerSummary{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	case errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, "listing owner missing", "kos_id", listing.ID, "owner_id", listing.OwnerID)
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load owner")
	}

	details.Facilities, err = s.facilities.DetailsByListing(ctx, listing.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load facilities")
	}
	details.Reviews, err = s.reviews.ListByListing(ctx, listing.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load reviews")
	}
	details.AverageRating = averageRating(details.Reviews)
	return details, nil
}

// Create registers a listing for the caller. The slug is derived from the
// title; collisions are resolved by retrying the insert transaction with the
// next numeric suffix until the unique constraint accepts one.
func (s *Service) Create(ctx context.Context, caller models.Caller, req models.CreateRequest) (*models.Listing, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "latitude and longitude are required")
	}

	now := requestcontext.Now(ctx)
	listing := &models.Listing{
		OwnerID:            caller.ID,
		Title:              req.Title,
		Description:        req.Description,
		Address:            req.Address,
		Gender:             req.Gender,
		MonthlyPrice:       req.MonthlyPrice,
		Latitude:           *req.Latitude,
		Longitude:          *req.Longitude,
		DistanceToCampusKM: req.DistanceToCampusKM,
		AvailableRooms:     req.AvailableRooms,
		TotalRooms:         req.TotalRooms,
		CoverImage:         req.CoverImage,
		CoverImageURL:      req.CoverImageURL,
		Images:             strutil.DedupeAndTrim(req.Images),
		ImageURLs:          strutil.DedupeAndTrim(req.ImageURLs),
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	// Facility inputs are checked before the transaction opens so a bad
	// request cannot strand a half-written listing in stores without
	// rollback.
	if err := validateFacilityInputs(req.Facilities); err != nil {
		return nil, err
	}

	if err := s.insertWithUniqueSlug(ctx, listing, Slugify(req.Title), req.Facilities); err != nil {
		return nil, err
	}

	s.metrics.IncrementListingsCreated()
	s.audit.Emit(ctx, audit.ActionListingCreated, listing.Slug)
	s.cache.Invalidate(ctx)
	s.logger.InfoContext(ctx, "listing created",
		"kos_id", listing.ID, "slug", listing.Slug, "owner_id", caller.ID)
	return listing, nil
}

// Update applies a partial edit. Only the owner or an admin may mutate; the
// slug never changes after creation. A nil Facilities field leaves the
// association set untouched, an empty slice clears it.
func (s *Service) Update(ctx context.Context, caller models.Caller, req models.UpdateRequest) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, req.ID)
	if err != nil {
		return nil, mapStoreErr(err, "listing not found")
	}
	if !canMutate(caller, listing) {
		return nil, dErrors.New(dErrors.CodeForbidden, "not the listing owner")
	}

	applyUpdate(listing, req)
	listing.UpdatedAt = requestcontext.Now(ctx)
	if err := validateListing(listing); err != nil {
		return nil, err
	}
	if req.Facilities != nil {
		if err := validateFacilityInputs(*req.Facilities); err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.listings.Update(ctx, listing); err != nil {
			return mapStoreErr(err, "listing not found")
		}
		if req.Facilities != nil {
			return s.writeFacilities(ctx, listing.ID, *req.Facilities)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Emit(ctx, audit.ActionListingUpdated, listing.Slug)
	s.cache.Invalidate(ctx)
	return listing, nil
}

// Delete removes a listing and everything hanging off it.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return mapStoreErr(err, "listing not found")
	}
	if !canMutate(caller, listing) {
		return dErrors.New(dErrors.CodeForbidden, "not the listing owner")
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return mapStoreErr(err, "listing not found")
	}

	s.metrics.IncrementListingsDeleted()
	s.audit.Emit(ctx, audit.ActionListingDeleted, listing.Slug)
	s.cache.Invalidate(ctx)
	s.logger.InfoContext(ctx, "listing deleted", "kos_id", id, "slug", listing.Slug)
	return nil
}

// SetActive flips a listing's visibility. The handler restricts this to
// admins.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*models.Listing, error) {
	if err := s.listings.SetActive(ctx, id, active); err != nil {
		return nil, mapStoreErr(err, "listing not found")
	}
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "listing not found")
	}

	s.audit.Emit(ctx, audit.ActionListingStatusSet, listing.Slug)
	s.cache.Invalidate(ctx)
	return listing, nil
}

// ByOwner returns the caller's own listings, inactive ones included.
func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error) {
	listings, err := s.listings.ByOwner(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query own listings")
	}
	return listings, nil
}

// ListAllWithOwner returns every listing joined with its owner identity for
// the admin overview.
func (s *Service) ListAllWithOwner(ctx context.Context) ([]*models.AdminListing, error) {
	listings, err := s.listings.ListAllWithOwner(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "query all listings")
	}
	return listings, nil
}

func (s *Service) resolve(ctx context.Context, idOrSlug string) (*models.Listing, error) {
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
		listing, err := s.listings.FindByID(ctx, id)
		if err != nil {
			return nil, mapStoreErr(err, "listing not found")
		}
		return listing, nil
	}
	listing, err := s.listings.FindBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, mapStoreErr(err, "listing not found")
	}
	return listing, nil
}

// insertWithUniqueSlug probes slug candidates, giving every attempt its own
// transaction. A unique-violation aborts the whole SQL transaction, so the
// retry must begin a fresh one rather than issue more statements inside the
// failed one. The unique constraint stays the arbiter: a concurrent insert
// of the same candidate surfaces as a conflict and we move to the next
// suffix.
func (s *Service) insertWithUniqueSlug(ctx context.Context, listing *models.Listing, base string, facilities []models.FacilityInput) error {
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if attempt > 0 {
			s.metrics.IncrementSlugRetries()
		}
		candidate := slugCandidate(base, attempt)
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			taken, err := s.listings.SlugExists(ctx, candidate)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "check slug")
			}
			if taken {
				return sentinel.ErrConflict
			}
			listing.Slug = candidate
			if err := s.listings.Create(ctx, listing); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					return err
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "insert listing")
			}
			if len(facilities) > 0 {
				return s.writeFacilities(ctx, listing.ID, facilities)
			}
			return nil
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, sentinel.ErrConflict):
			continue
		default:
			return err
		}
	}
	return dErrors.New(dErrors.CodeConflict, "could not allocate a unique slug")
}

func validateFacilityInputs(inputs []models.FacilityInput) error {
	for _, in := range inputs {
		if in.FacilityID <= 0 {
			return dErrors.New(dErrors.CodeValidation, "facility_id must be positive")
		}
		if in.ExtraPrice < 0 {
			return dErrors.New(dErrors.CodeValidation, "extra_price must not be negative")
		}
	}
	return nil
}

func (s *Service) writeFacilities(ctx context.Context, kosID int64, inputs []models.FacilityInput) error {
	assocs := make([]models.FacilityAssociation, 0, len(inputs))
	for _, in := range inputs {
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		assocs = append(assocs, models.FacilityAssociation{
			KosID:       kosID,
			FacilityID:  in.FacilityID,
			IsAvailable: available,
			ExtraPrice:  in.ExtraPrice,
		})
	}
	if err := s.facilities.Replace(ctx, kosID, assocs); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "replace facilities")
	}
	return nil
}

func canMutate(caller models.Caller, listing *models.Listing) bool {
	return caller.Role == usermodels.RoleAdmin || caller.ID == listing.OwnerID
}

func validateListing(l *models.Listing) error {
	switch {
	case l.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case l.Address == "":
		return dErrors.New(dErrors.CodeValidation, "address is required")
	case !l.Gender.Valid():
		return dErrors.New(dErrors.CodeValidation, "gender must be PUTRA, PUTRI, or CAMPUR")
	case l.MonthlyPrice <= 0:
		return dErrors.New(dErrors.CodeValidation, "monthly_price must be positive")
	case l.DistanceToCampusKM < 0:
		return dErrors.New(dErrors.CodeValidation, "distance_to_campus_km must not be negative")
	case l.TotalRooms <= 0:
		return dErrors.New(dErrors.CodeValidation, "total_rooms must be positive")
	case l.AvailableRooms < 0 || l.AvailableRooms > l.TotalRooms:
		return dErrors.New(dErrors.CodeValidation, "available_rooms must be between 0 and total_rooms")
	}
	return nil
}

func applyUpdate(l *models.Listing, req models.UpdateRequest) {
	if req.Title != nil {
		l.Title = *req.Title
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Address != nil {
		l.Address = *req.Address
	}
	if req.Gender != nil {
		l.Gender = *req.Gender
	}
	if req.MonthlyPrice != nil {
		l.MonthlyPrice = *req.MonthlyPrice
	}
	if req.Latitude != nil {
		l.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		l.Longitude = *req.Longitude
	}
	if req.DistanceToCampusKM != nil {
		l.DistanceToCampusKM = *req.DistanceToCampusKM
	}
	if req.AvailableRooms != nil {
		l.AvailableRooms = *req.AvailableRooms
	}
	if req.TotalRooms != nil {
		l.TotalRooms = *req.TotalRooms
	}
	if req.CoverImage != nil {
		l.CoverImage = *req.CoverImage
	}
	if req.CoverImageURL != nil {
		l.CoverImageURL = *req.CoverImageURL
	}
	if req.Images != nil {
		l.Images = *req.Images
	}
	if req.ImageURLs != nil {
		l.ImageURLs = *req.ImageURLs
	}
}

func averageRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func mapStoreErr(err error, notFoundDescription string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundDescription)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "conflicting write")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store operation failed")
	}
}
