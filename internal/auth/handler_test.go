package auth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosfinder/internal/audit"
	jwttoken "kosfinder/internal/jwt_token"
	"kosfinder/internal/platform/middleware"
	usermodels "kosfinder/internal/user/models"
	userservice "kosfinder/internal/user/service"
	userstore "kosfinder/internal/user/store"
)

type authEnv struct {
	router   chi.Router
	verifier *MockVerifier
	users    *userstore.InMemory
	jwt      *jwttoken.JWTService
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	logger := slog.Default()
	users := userstore.NewInMemory()
	userSvc := userservice.New(users, logger, nil)
	jwtService := jwttoken.NewJWTService("test-signing-key", "kosfinder-test")
	verifier := NewMockVerifier()
	publisher := audit.NewPublisher(32, logger)

	h := NewHandler(verifier, userSvc, jwtService, time.Hour, publisher, logger,
		middleware.RequireAuth(jwtService, logger))
	router := chi.NewRouter()
	h.Register(router)
	return &authEnv{router: router, verifier: verifier, users: users, jwt: jwtService}
}

func (e *authEnv) login(t *testing.T, credential string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(GoogleLoginRequest{Credential: credential})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/google", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestGoogleLoginCreatesUserAndMintsToken(t *testing.T) {
	e := newAuthEnv(t)
	e.verifier.Allow("good-credential", usermodels.GoogleProfile{
		Sub: "google-sub-1", Email: "budi@example.com", Name: "Budi", ImageURL: "https://img/p.png",
	})

	rec := e.login(t, "good-credential")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.NotEmpty(t, session.Token)
	require.NotNil(t, session.User)
	assert.Equal(t, "google-sub-1", session.User.ID)
	assert.Equal(t, usermodels.RoleUser, session.User.Role)

	claims, err := e.jwt.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", claims.UserID)
	assert.Equal(t, string(usermodels.RoleUser), claims.Role)
}

func TestGoogleLoginRefreshesProfileOnReturn(t *testing.T) {
	e := newAuthEnv(t)
	e.verifier.Allow("cred-1", usermodels.GoogleProfile{
		Sub: "sub-1", Email: "budi@example.com", Name: "Budi",
	})
	rec := e.login(t, "cred-1")
	require.Equal(t, http.StatusOK, rec.Code)

	e.verifier.Allow("cred-1", usermodels.GoogleProfile{
		Sub: "sub-1", Email: "budi@example.com", Name: "Budi Santoso",
	})
	rec = e.login(t, "cred-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var session SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))
	assert.Equal(t, "Budi Santoso", session.User.Name)

	all, err := e.users.ListAll(t.Context())
	require.NoError(t, err)
	assert.Len(t, all, 1, "re-login must not duplicate the user")
}

func TestGoogleLoginRejectsBadCredential(t *testing.T) {
	e := newAuthEnv(t)

	rec := e.login(t, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.login(t, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	e := newAuthEnv(t)
	e.verifier.Allow("cred", usermodels.GoogleProfile{
		Sub: "sub-1", Email: "budi@example.com", Name: "Budi",
	})
	rec := e.login(t, "cred")
	require.Equal(t, http.StatusOK, rec.Code)
	var session SessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	meRec := httptest.NewRecorder()
	e.router.ServeHTTP(meRec, req)

	require.Equal(t, http.StatusOK, meRec.Code)
	var user usermodels.User
	require.NoError(t, json.NewDecoder(meRec.Body).Decode(&user))
	assert.Equal(t, "sub-1", user.ID)

	anon := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	anonRec := httptest.NewRecorder()
	e.router.ServeHTTP(anonRec, anon)
	assert.Equal(t, http.StatusUnauthorized, anonRec.Code)
}

func TestTokenInfoVerifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id_token") {
		case "valid":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"sub": "sub-9", "email": "sari@example.com",
				"email_verified": "true", "name": "Sari", "picture": "https://img/s.png",
			})
		case "unverified":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"sub": "sub-9", "email": "sari@example.com", "email_verified": "false",
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	verifier := NewTokenInfoVerifier(server.URL)

	profile, err := verifier.Verify(t.Context(), "valid")
	require.NoError(t, err)
	assert.Equal(t, "sub-9", profile.Sub)
	assert.Equal(t, "Sari", profile.Name)

	_, err = verifier.Verify(t.Context(), "unverified")
	assert.Error(t, err)

	_, err = verifier.Verify(t.Context(), "garbage")
	assert.Error(t, err)
}
