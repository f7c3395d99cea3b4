package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kosfinder/internal/listing/models"
	usermodels "kosfinder/internal/user/models"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/httputil"
	"kosfinder/pkg/requestcontext"
)

// Service defines the listing operations the handler exposes.
type Service interface {
	Markers(ctx context.Context, filters models.Filters) ([]models.Marker, error)
	Details(ctx context.Context, idOrSlug string, allowInactive bool) (*models.ListingDetails, error)
	Create(ctx context.Context, caller models.Caller, req models.CreateRequest) (*models.Listing, error)
	Update(ctx context.Context, caller models.Caller, req models.UpdateRequest) (*models.Listing, error)
	Delete(ctx context.Context, caller models.Caller, id int64) error
	ByOwner(ctx context.Context, ownerID string) ([]*models.Listing, error)
}

// Handler wires the public and owner-scoped listing endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	requireAuth  func(http.Handler) http.Handler
	optionalAuth func(http.Handler) http.Handler
}

func New(service Service, logger *slog.Logger, requireAuth, optionalAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		requireAuth:  requireAuth,
		optionalAuth: optionalAuth,
	}
}

// Register mounts listing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/kos", h.HandleMarkers)
	r.With(h.optionalAuth).Get("/api/kos/{idOrSlug}", h.HandleDetails)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/kos", h.HandleCreate)
		r.Get("/api/kos/my", h.HandleMine)
		r.Put("/api/kos/{id}", h.HandleUpdate)
		r.Delete("/api/kos/{id}", h.HandleDelete)
	})
}

// HandleMarkers handles GET /api/kos requests.
func (h *Handler) HandleMarkers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	markers, err := h.service.Markers(ctx, filters)
	if err != nil {
		h.logger.ErrorContext(ctx, "marker query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, markers)
}

// HandleDetails handles GET /api/kos/{idOrSlug} requests. Admins also see
// inactive listings.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idOrSlug := chi.URLParam(r, "idOrSlug")
	allowInactive := requestcontext.UserRole(ctx) == string(usermodels.RoleAdmin)

	details, err := h.service.Details(ctx, idOrSlug, allowInactive)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "listing details failed",
				"request_id", requestcontext.RequestID(ctx),
				"id_or_slug", idOrSlug,
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

// HandleCreate handles POST /api/kos requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.service.Create(ctx, callerFrom(ctx), req.CreateRequest)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "listing create failed",
				"request_id", requestID, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, listing)
}

// HandleUpdate handles PUT /api/kos/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateListingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.ID = id

	listing, err := h.service.Update(ctx, callerFrom(ctx), req.UpdateRequest)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "listing update failed",
				"request_id", requestID, "kos_id", id, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

// HandleDelete handles DELETE /api/kos/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Delete(ctx, callerFrom(ctx), id); err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "listing delete failed",
				"request_id", requestcontext.RequestID(ctx), "kos_id", id, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMine handles GET /api/kos/my requests, returning the caller's own
// listings including inactive ones.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, err := h.service.ByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "own listings query failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

func callerFrom(ctx context.Context) models.Caller {
	return models.Caller{
		ID:   requestcontext.UserID(ctx),
		Role: usermodels.Role(requestcontext.UserRole(ctx)),
	}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "listing id must be a positive integer")
	}
	return id, nil
}
