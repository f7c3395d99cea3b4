package models

import (
	"time"

	usermodels "kosfinder/internal/user/models"
)

// Gender is the boarding-house gender category.
type Gender string

const (
	GenderPutra  Gender = "PUTRA"  // male-only
	GenderPutri  Gender = "PUTRI"  // female-only
	GenderCampur Gender = "CAMPUR" // mixed
)

// Valid reports whether the gender is one of the three fixed variants.
func (g Gender) Valid() bool {
	return g == GenderPutra || g == GenderPutri || g == GenderCampur
}

// Listing is a boarding-house record, the registry's primary entity.
//
// Invariants:
//   - Slug is globally unique and immutable once assigned
//   - OwnerID is set at creation and never reassigned
//   - 0 <= AvailableRooms <= TotalRooms
//   - MonthlyPrice > 0 (smallest currency unit)
type Listing struct {
	ID                 int64     `json:"id"`
	OwnerID            string    `json:"owner_id"`
	Title              string    `json:"title"`
	Slug               string    `json:"slug"`
	Description        string    `json:"description,omitempty"`
	Address            string    `json:"address"`
	Gender             Gender    `json:"gender"`
	MonthlyPrice       int64     `json:"monthly_price"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	DistanceToCampusKM float64   `json:"distance_to_campus_km"`
	AvailableRooms     int       `json:"available_rooms"`
	TotalRooms         int       `json:"total_rooms"`
	CoverImage         string    `json:"cover_image,omitempty"`
	CoverImageURL      string    `json:"cover_image_url,omitempty"`
	Images             []string  `json:"images,omitempty"`
	ImageURLs          []string  `json:"image_urls,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// FacilityType is reference data describing an amenity category.
type FacilityType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FacilityAssociation links a listing to a facility type with a per-listing
// surcharge. The set is owned by the listing and replaced wholesale on update.
type FacilityAssociation struct {
	KosID       int64 `json:"kos_id"`
	FacilityID  int64 `json:"facility_id"`
	IsAvailable bool  `json:"is_available"`
	ExtraPrice  int64 `json:"extra_price"`
}

// FacilityDetail is a facility association joined with its type, as exposed
// on listing details.
type FacilityDetail struct {
	FacilityType
	ExtraPrice  int64 `json:"extra_price"`
	IsAvailable bool  `json:"is_available"`
}

// Review is a visitor rating on a listing. Read-only from the registry's
// perspective.
type Review struct {
	ID           int64     `json:"id"`
	KosID        int64     `json:"kos_id"`
	UserID       string    `json:"user_id"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OwnerSummary is the slice of the owner exposed on listing details.
type OwnerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListingDetails is a listing enriched with owner, facilities, and reviews.
type ListingDetails struct {
	Listing
	Owner         *OwnerSummary    `json:"owner,omitempty"`
	Facilities    []FacilityDetail `json:"facilities"`
	Reviews       []Review         `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
}

// AdminListing is a listing with its owner identity, for the admin overview.
type AdminListing struct {
	Listing
	Owner OwnerSummary `json:"owner"`
}

// Marker is the lightweight projection rendered on the public map.
type Marker struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Slug               string  `json:"slug"`
	Gender             Gender  `json:"gender"`
	MonthlyPrice       int64   `json:"monthly_price"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	DistanceToCampusKM float64 `json:"distance_to_campus_km"`
	AvailableRooms     int     `json:"available_rooms"`
	CoverImageURL      string  `json:"cover_image_url,omitempty"`
}

// Filters narrows the public marker query. Nil fields impose no constraint;
// supplied fields are AND-combined.
type Filters struct {
	Gender        *Gender  `json:"gender,omitempty"`
	MinPrice      *int64   `json:"min_price,omitempty"`
	MaxPrice      *int64   `json:"max_price,omitempty"`
	MaxDistanceKM *float64 `json:"max_distance,omitempty"`
	AvailableOnly bool     `json:"available_only,omitempty"`
}

// Empty reports whether no filter is set, i.e. the query returns every
// active listing.
func (f Filters) Empty() bool {
	return f.Gender == nil && f.MinPrice == nil && f.MaxPrice == nil &&
		f.MaxDistanceKM == nil && !f.AvailableOnly
}

// FacilityInput is one facility entry on a create or update request.
type FacilityInput struct {
	FacilityID  int64 `json:"facility_id"`
	ExtraPrice  int64 `json:"extra_price"`
	IsAvailable *bool `json:"is_available,omitempty"`
}

// CreateRequest is the full listing payload for creation.
type CreateRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Address            string          `json:"address"`
	Gender             Gender          `json:"gender"`
	MonthlyPrice       int64           `json:"monthly_price"`
	Latitude           *float64        `json:"latitude"`
	Longitude          *float64        `json:"longitude"`
	DistanceToCampusKM float64         `json:"distance_to_campus_km"`
	AvailableRooms     int             `json:"available_rooms"`
	TotalRooms         int             `json:"total_rooms"`
	CoverImage         string          `json:"cover_image"`
	CoverImageURL      string          `json:"cover_image_url"`
	Images             []string        `json:"images"`
	ImageURLs          []string        `json:"image_urls"`
	Facilities         []FacilityInput `json:"facilities"`
}

// UpdateRequest is a partial listing payload. Nil fields are left unchanged.
// Facilities follows replace semantics: nil leaves associations untouched,
// an empty slice clears them.
type UpdateRequest struct {
	ID                 int64            `json:"id"`
	Title              *string          `json:"title,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Address            *string          `json:"address,omitempty"`
	Gender             *Gender          `json:"gender,omitempty"`
	MonthlyPrice       *int64           `json:"monthly_price,omitempty"`
	Latitude           *float64         `json:"latitude,omitempty"`
	Longitude          *float64         `json:"longitude,omitempty"`
	DistanceToCampusKM *float64         `json:"distance_to_campus_km,omitempty"`
	AvailableRooms     *int             `json:"available_rooms,omitempty"`
	TotalRooms         *int             `json:"total_rooms,omitempty"`
	CoverImage         *string          `json:"cover_image,omitempty"`
	CoverImageURL      *string          `json:"cover_image_url,omitempty"`
	Images             *[]string        `json:"images,omitempty"`
	ImageURLs          *[]string        `json:"image_urls,omitempty"`
	Facilities         *[]FacilityInput `json:"facilities,omitempty"`
}

// Caller identifies the authenticated principal performing a mutation.
type Caller struct {
	ID   string
	Role usermodels.Role
}

// Marker projects the listing into its map representation.
func (l *Listing) Marker() Marker {
	return Marker{
		ID:                 l.ID,
		Title:              l.Title,
		Slug:               l.Slug,
		Gender:             l.Gender,
		MonthlyPrice:       l.MonthlyPrice,
		Latitude:           l.Latitude,
		Longitude:          l.Longitude,
		DistanceToCampusKM: l.DistanceToCampusKM,
		AvailableRooms:     l.AvailableRooms,
		CoverImageURL:      l.CoverImageURL,
	}
}
