package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kosfinder/internal/audit"
	usermodels "kosfinder/internal/user/models"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/httputil"
	"kosfinder/pkg/requestcontext"
)

// UserService is the slice of user operations auth needs.
type UserService interface {
	FindOrCreate(ctx context.Context, profile usermodels.GoogleProfile) (*usermodels.User, error)
	GetByID(ctx context.Context, id string) (*usermodels.User, error)
}

// TokenMinter signs session tokens for resolved users.
type TokenMinter interface {
	GenerateSessionToken(userID, email, role string, expiresIn time.Duration) (string, error)
}

// GoogleLoginRequest carries the Google ID token from the client.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

func (r GoogleLoginRequest) Validate() error {
	if strings.TrimSpace(r.Credential) == "" {
		return dErrors.New(dErrors.CodeValidation, "credential is required")
	}
	return nil
}

// SessionResponse is the login result: a bearer token and the resolved user.
type SessionResponse struct {
	Token string           `json:"token"`
	User  *usermodels.User `json:"user"`
}

// Handler exchanges Google credentials for session tokens.
type Handler struct {
	verifier    TokenVerifier
	users       UserService
	tokens      TokenMinter
	tokenTTL    time.Duration
	audit       *audit.Publisher
	logger      *slog.Logger
	requireAuth func(http.Handler) http.Handler
}

func NewHandler(
	verifier TokenVerifier,
	users UserService,
	tokens TokenMinter,
	tokenTTL time.Duration,
	auditPublisher *audit.Publisher,
	logger *slog.Logger,
	requireAuth func(http.Handler) http.Handler,
) *Handler {
	return &Handler{
		verifier:    verifier,
		users:       users,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		audit:       auditPublisher,
		logger:      logger,
		requireAuth: requireAuth,
	}
}

// Register mounts auth endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/auth/google", h.HandleGoogleLogin)
	r.With(h.requireAuth).Get("/api/auth/me", h.HandleMe)
}

// HandleGoogleLogin handles POST /api/auth/google requests.
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[GoogleLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	profile, err := h.verifier.Verify(ctx, req.Credential)
	if err != nil {
		h.logger.WarnContext(ctx, "google credential rejected",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	user, err := h.users.FindOrCreate(ctx, *profile)
	if err != nil {
		h.logger.ErrorContext(ctx, "user resolution failed",
			"request_id", requestID, "sub", profile.Sub, "error", err)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateSessionToken(user.ID, user.Email, string(user.Role), h.tokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "session token mint failed",
			"request_id", requestID, "user_id", user.ID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "mint session token"))
		return
	}

	h.audit.Emit(ctx, audit.ActionAuthTokenExchanged, user.ID)
	h.logger.InfoContext(ctx, "session issued",
		"request_id", requestID, "user_id", user.ID, "role", user.Role)
	httputil.WriteJSON(w, http.StatusOK, SessionResponse{Token: token, User: user})
}

// HandleMe handles GET /api/auth/me requests.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.users.GetByID(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
