package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"kosfinder/pkg/requestcontext"
)

// JWTValidator validates session tokens minted after Google sign-in.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims carries the identity the auth middleware trusts.
type JWTClaims struct {
	UserID string
	Email  string
	Role   string
}

// RequireAuth rejects requests without a valid Bearer token and injects the
// caller identity into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := validateRequest(validator, logger, w, r)
			if !ok {
				return
			}
			ctx := requestcontext.WithCaller(r.Context(), claims.UserID, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injects the caller identity when a valid token is present but
// lets anonymous requests through. Used on public reads that behave
// differently for admins.
func OptionalAuth(validator JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if claims, err := validator.ValidateToken(token); err == nil {
					ctx := requestcontext.WithCaller(r.Context(), claims.UserID, claims.Role)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a subtree on the caller's role. Must run after
// RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.UserRole(ctx) != role {
				logger.WarnContext(ctx, "role check failed",
					"request_id", requestcontext.RequestID(ctx),
					"required_role", role,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validateRequest(validator JWTValidator, logger *slog.Logger, w http.ResponseWriter, r *http.Request) (*JWTClaims, bool) {
	token, ok := bearerToken(r)
	if !ok {
		unauthorized(w, logger, r, "Missing or invalid Authorization header")
		return nil, false
	}
	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.WarnContext(r.Context(), "unauthorized access - invalid token",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		unauthorized(w, logger, r, "Invalid or expired token")
		return nil, false
	}
	return claims, true
}

func bearerToken(r *http.Request) (string, bool) {
	const bearerPrefix = "Bearer "
	return strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, r *http.Request, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if _, err := w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}
