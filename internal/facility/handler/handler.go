package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kosfinder/internal/facility/store"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/httputil"
	"kosfinder/pkg/requestcontext"
)

// Handler exposes the facility type reference list.
type Handler struct {
	store  store.Store
	logger *slog.Logger
}

func New(store store.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts facility endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/facilities", h.HandleList)
}

// HandleList handles GET /api/facilities requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	types, err := h.store.ListAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "facility list failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list facilities"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}
