package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"kosfinder/internal/listing/models"
	dErrors "kosfinder/pkg/domain-errors"
)

// CreateListingRequest is the wire payload for POST /api/kos. Field checks
// here cover shape only; business invariants live in the service.
type CreateListingRequest struct {
	models.CreateRequest
}

func (r CreateListingRequest) Validate() error {
	if govalidator.IsNull(strings.TrimSpace(r.Title)) {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if govalidator.IsNull(strings.TrimSpace(r.Address)) {
		return dErrors.New(dErrors.CodeValidation, "address is required")
	}
	if r.CoverImageURL != "" && !govalidator.IsURL(r.CoverImageURL) {
		return dErrors.New(dErrors.CodeValidation, "cover_image_url is not a valid URL")
	}
	for _, u := range r.ImageURLs {
		if !govalidator.IsURL(u) {
			return dErrors.New(dErrors.CodeValidation, "image_urls contains an invalid URL")
		}
	}
	return nil
}

// UpdateListingRequest is the wire payload for PUT /api/kos/{id}. The ID
// comes from the path, not the body.
type UpdateListingRequest struct {
	models.UpdateRequest
}

func (r UpdateListingRequest) Validate() error {
	if r.Title != nil && govalidator.IsNull(strings.TrimSpace(*r.Title)) {
		return dErrors.New(dErrors.CodeValidation, "title must not be empty")
	}
	if r.CoverImageURL != nil && *r.CoverImageURL != "" && !govalidator.IsURL(*r.CoverImageURL) {
		return dErrors.New(dErrors.CodeValidation, "cover_image_url is not a valid URL")
	}
	return nil
}

// parseFilters reads the marker filter set from query parameters.
func parseFilters(query url.Values) (models.Filters, error) {
	var filters models.Filters

	if raw := query.Get("gender"); raw != "" {
		gender := models.Gender(strings.ToUpper(raw))
		filters.Gender = &gender
	}
	if raw := query.Get("min_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "min_price must be an integer")
		}
		filters.MinPrice = &v
	}
	if raw := query.Get("max_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "max_price must be an integer")
		}
		filters.MaxPrice = &v
	}
	if raw := query.Get("max_distance"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "max_distance must be a number")
		}
		filters.MaxDistanceKM = &v
	}
	if raw := query.Get("available_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, dErrors.New(dErrors.CodeBadRequest, "available_only must be a boolean")
		}
		filters.AvailableOnly = v
	}
	return filters, nil
}
