package media

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/httputil"
	"kosfinder/pkg/requestcontext"
)

// UploadRequest carries a batch of base64 image payloads.
type UploadRequest struct {
	Images []string `json:"images"`
}

// DeleteRequest lists object keys to remove.
type DeleteRequest struct {
	Keys []string `json:"keys"`
}

// Handler exposes image upload and deletion for authenticated owners.
type Handler struct {
	service     *Service
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func NewHandler(service *Service, logger *slog.Logger, requireAuth func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, logger: logger, requireAuth: requireAuth}
}

// Register mounts media endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/api/upload/images", h.HandleUpload)
		r.Delete("/api/upload/images", h.HandleDelete)
	})
}

// HandleUpload handles POST /api/upload/images requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[UploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	images, err := h.service.UploadImages(ctx, req.Images)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "image upload failed",
				"request_id", requestID, "count", len(req.Images), "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{"images": images})
}

// HandleDelete handles DELETE /api/upload/images requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DeleteRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.DeleteImages(ctx, req.Keys); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
