package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kosfinder/internal/listing/models"
	"kosfinder/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemorySuite) newListing(slug string, distance float64) *models.Listing {
	now := time.Now()
	return &models.Listing{
		OwnerID:            "owner-1",
		Title:              "Kos " + slug,
		Slug:               slug,
		Address:            "Jl. Kaliurang",
		Gender:             models.GenderCampur,
		MonthlyPrice:       500_000,
		DistanceToCampusKM: distance,
		AvailableRooms:     2,
		TotalRooms:         4,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func (s *InMemorySuite) TestCreateAssignsIDAndDetectsSlugConflict() {
	ctx := context.Background()
	first := s.newListing("kos-a", 1)
	s.Require().NoError(s.store.Create(ctx, first))
	s.NotZero(first.ID)

	dup := s.newListing("kos-a", 2)
	s.True(errors.Is(s.store.Create(ctx, dup), sentinel.ErrConflict))

	taken, err := s.store.SlugExists(ctx, "kos-a")
	s.Require().NoError(err)
	s.True(taken)
}

func (s *InMemorySuite) TestFindCopiesAreIsolated() {
	ctx := context.Background()
	listing := s.newListing("kos-a", 1)
	s.Require().NoError(s.store.Create(ctx, listing))

	found, err := s.store.FindByID(ctx, listing.ID)
	s.Require().NoError(err)
	found.Title = "mutated"

	again, err := s.store.FindBySlug(ctx, "kos-a")
	s.Require().NoError(err)
	s.Equal("Kos kos-a", again.Title)
}

func (s *InMemorySuite) TestDeleteCascadesLinksAndReviews() {
	ctx := context.Background()
	listing := s.newListing("kos-a", 1)
	s.Require().NoError(s.store.Create(ctx, listing))
	s.store.SeedFacilityTypes(models.FacilityType{ID: 1, Name: "WiFi"})
	s.Require().NoError(s.store.Replace(ctx, listing.ID, []models.FacilityAssociation{
		{KosID: listing.ID, FacilityID: 1, IsAvailable: true},
	}))
	s.store.SeedReviews(listing.ID, models.Review{ID: 1, KosID: listing.ID, Rating: 5})

	s.Require().NoError(s.store.Delete(ctx, listing.ID))
	s.Empty(s.store.LinksByListing(listing.ID))
	reviews, err := s.store.ListByListing(ctx, listing.ID)
	s.Require().NoError(err)
	s.Empty(reviews)

	s.True(errors.Is(s.store.Delete(ctx, listing.ID), sentinel.ErrNotFound))
}

func (s *InMemorySuite) TestMarkersFilterAndSort() {
	ctx := context.Background()
	far := s.newListing("kos-far", 5)
	far.AvailableRooms = 0
	s.Require().NoError(s.store.Create(ctx, far))
	near := s.newListing("kos-near", 1)
	s.Require().NoError(s.store.Create(ctx, near))

	markers, err := s.store.Markers(ctx, models.Filters{})
	s.Require().NoError(err)
	s.Require().Len(markers, 2)
	s.Equal("kos-near", markers[0].Slug)

	markers, err = s.store.Markers(ctx, models.Filters{AvailableOnly: true})
	s.Require().NoError(err)
	s.Require().Len(markers, 1)
	s.Equal("kos-near", markers[0].Slug)
}

func (s *InMemorySuite) TestReplaceFacilities() {
	ctx := context.Background()
	listing := s.newListing("kos-a", 1)
	s.Require().NoError(s.store.Create(ctx, listing))
	s.store.SeedFacilityTypes(
		models.FacilityType{ID: 1, Name: "WiFi"},
		models.FacilityType{ID: 2, Name: "AC"},
	)

	s.Require().NoError(s.store.Replace(ctx, listing.ID, []models.FacilityAssociation{
		{KosID: listing.ID, FacilityID: 1, IsAvailable: true},
	}))
	s.Len(s.store.LinksByListing(listing.ID), 1)

	s.Require().NoError(s.store.Replace(ctx, listing.ID, []models.FacilityAssociation{
		{KosID: listing.ID, FacilityID: 2, IsAvailable: true, ExtraPrice: 100_000},
	}))
	links := s.store.LinksByListing(listing.ID)
	s.Require().Len(links, 1)
	s.Equal(int64(2), links[0].FacilityID)

	s.Require().NoError(s.store.Replace(ctx, listing.ID, nil))
	s.Empty(s.store.LinksByListing(listing.ID))
}

func (s *InMemorySuite) TestSetActiveAndNotFound() {
	ctx := context.Background()
	listing := s.newListing("kos-a", 1)
	s.Require().NoError(s.store.Create(ctx, listing))

	s.Require().NoError(s.store.SetActive(ctx, listing.ID, false))
	found, err := s.store.FindByID(ctx, listing.ID)
	s.Require().NoError(err)
	s.False(found.IsActive)

	s.True(errors.Is(s.store.SetActive(ctx, 999, true), sentinel.ErrNotFound))
}

// The in-memory transaction only serializes; unlike the SQL implementation
// it cannot undo writes made before fn fails. Services must validate inputs
// before entering the transaction so this divergence stays invisible.
func (s *InMemorySuite) TestRunInTxKeepsWritesOnError() {
	ctx := context.Background()
	tx := NewInMemoryTx()
	errBoom := errors.New("boom")

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.Create(ctx, s.newListing("kos-a", 1)))
		return errBoom
	})
	s.Require().ErrorIs(err, errBoom)

	taken, err := s.store.SlugExists(ctx, "kos-a")
	s.Require().NoError(err)
	s.True(taken)
}
