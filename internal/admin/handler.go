package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	listingmodels "kosfinder/internal/listing/models"
	usermodels "kosfinder/internal/user/models"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/httputil"
	"kosfinder/pkg/requestcontext"
)

// ListingService is the slice of listing operations the admin surface needs.
type ListingService interface {
	ListAllWithOwner(ctx context.Context) ([]*listingmodels.AdminListing, error)
	SetActive(ctx context.Context, id int64, active bool) (*listingmodels.Listing, error)
}

// UserService is the slice of user operations the admin surface needs.
type UserService interface {
	ListAll(ctx context.Context) ([]*usermodels.User, error)
	UpdateRole(ctx context.Context, id string, role usermodels.Role) (*usermodels.User, error)
}

// StatusRequest toggles a listing's public visibility.
type StatusRequest struct {
	IsActive *bool `json:"is_active"`
}

func (r StatusRequest) Validate() error {
	if r.IsActive == nil {
		return dErrors.New(dErrors.CodeValidation, "is_active is required")
	}
	return nil
}

// RoleRequest assigns a user role.
type RoleRequest struct {
	Role usermodels.Role `json:"role"`
}

func (r RoleRequest) Validate() error {
	if !r.Role.Valid() {
		return dErrors.New(dErrors.CodeValidation, "role must be USER or ADMIN")
	}
	return nil
}

// Handler exposes the admin moderation surface.
type Handler struct {
	listings    ListingService
	users       UserService
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
	requireRole func(http.Handler) http.Handler
}

func NewHandler(
	listings ListingService,
	users UserService,
	logger *slog.Logger,
	requireAuth, requireRole func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		listings:    listings,
		users:       users,
		logger:      logger,
		requireAuth: requireAuth,
		requireRole: requireRole,
	}
}

// Register mounts admin endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth, h.requireRole)
		r.Get("/api/admin/kos", h.HandleListListings)
		r.Patch("/api/admin/kos/{id}/status", h.HandleSetStatus)
		r.Get("/api/admin/users", h.HandleListUsers)
		r.Put("/api/admin/users/{id}/role", h.HandleSetRole)
	})
}

// HandleListListings handles GET /api/admin/kos requests.
func (h *Handler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, err := h.listings.ListAllWithOwner(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin listing query failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if listings == nil {
		listings = []*listingmodels.AdminListing{}
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

// HandleSetStatus handles PATCH /api/admin/kos/{id}/status requests.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "listing id must be a positive integer"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	listing, err := h.listings.SetActive(ctx, id, *req.IsActive)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "listing status change failed",
				"request_id", requestID, "kos_id", id, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "listing status changed",
		"request_id", requestID, "kos_id", id, "is_active", *req.IsActive,
		"admin_id", requestcontext.UserID(ctx))
	httputil.WriteJSON(w, http.StatusOK, listing)
}

// HandleListUsers handles GET /api/admin/users requests.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.users.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin user query failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	if users == nil {
		users = []*usermodels.User{}
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// HandleSetRole handles PUT /api/admin/users/{id}/role requests.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id := chi.URLParam(r, "id")
	req, ok := httputil.DecodeAndPrepare[RoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.users.UpdateRole(ctx, id, req.Role)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "role update failed",
				"request_id", requestID, "user_id", id, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user role changed",
		"request_id", requestID, "user_id", id, "role", req.Role,
		"admin_id", requestcontext.UserID(ctx))
	httputil.WriteJSON(w, http.StatusOK, user)
}
