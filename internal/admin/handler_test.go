package admin

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
	listingmodels "kosfinder/internal/listing/models"
	listingservice "kosfinder/internal/listing/service"
	listingstore "kosfinder/internal/listing/store"
	"kosfinder/internal/platform/middleware"
	usermodels "kosfinder/internal/user/models"
	userservice "kosfinder/internal/user/service"
	userstore "kosfinder/internal/user/store"
)

type adminEnv struct {
	router   chi.Router
	jwt      *jwttoken.JWTService
	listings *listingstore.InMemory
	users    *userstore.InMemory
	svc      *listingservice.Service
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	logger := slog.Default()
	listings := listingstore.NewInMemory()
	users := userstore.NewInMemory()
	publisher := audit.NewPublisher(32, logger)
	listingSvc := listingservice.New(listings, listings, listings,
		listingstore.NewInMemoryTx(), users, nil, publisher, nil, logger)
	userSvc := userservice.New(users, logger, nil)

	jwtService := jwttoken.NewJWTService("test-signing-key", "kosfinder-test")
	h := NewHandler(listingSvc, userSvc, logger,
		middleware.RequireAuth(jwtService, logger),
		middleware.RequireRole(string(usermodels.RoleAdmin), logger))
	router := chi.NewRouter()
	h.Register(router)
	return &adminEnv{router: router, jwt: jwtService, listings: listings, users: users, svc: listingSvc}
}

func (e *adminEnv) token(t *testing.T, userID string, role usermodels.Role) string {
	t.Helper()
	token, err := e.jwt.GenerateSessionToken(userID, userID+"@example.com", string(role), time.Hour)
	require.NoError(t, err)
	return token
}

func (e *adminEnv) seedListing(t *testing.T, ownerID, title string) *listingmodels.Listing {
	t.Helper()
	require.NoError(t, e.users.Create(t.Context(), &usermodels.User{
		ID: ownerID, Name: "Owner " + ownerID, Email: ownerID + "@example.com", Role: usermodels.RoleUser,
	}))
	e.listings.SeedOwner(listingmodels.OwnerSummary{
		ID: ownerID, Name: "Owner " + ownerID, Email: ownerID + "@example.com",
	})
	lat, lng := -7.77, 110.37
	listing, err := e.svc.Create(t.Context(),
		listingmodels.Caller{ID: ownerID, Role: usermodels.RoleUser},
		listingmodels.CreateRequest{
			Title: title, Address: "Jl. Kaliurang", Gender: listingmodels.GenderCampur,
			MonthlyPrice: 500_000, Latitude: &lat, Longitude: &lng,
			DistanceToCampusKM: 1, AvailableRooms: 1, TotalRooms: 2,
		})
	require.NoError(t, err)
	return listing
}

func (e *adminEnv) do(t *testing.T, method, target, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	e := newAdminEnv(t)

	rec := e.do(t, http.MethodGet, "/api/admin/kos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/admin/kos", e.token(t, "user-1", usermodels.RoleUser), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminListsListingsWithOwner(t *testing.T) {
	e := newAdminEnv(t)
	e.seedListing(t, "owner-1", "Kos Melati")

	rec := e.do(t, http.MethodGet, "/api/admin/kos", e.token(t, "admin-1", usermodels.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listings []listingmodels.AdminListing
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listings))
	require.Len(t, listings, 1)
	assert.Equal(t, "kos-melati", listings[0].Slug)
	assert.Equal(t, "Owner owner-1", listings[0].Owner.Name)
}

func TestAdminTogglesListingStatus(t *testing.T) {
	e := newAdminEnv(t)
	listing := e.seedListing(t, "owner-1", "Kos Melati")
	adminToken := e.token(t, "admin-1", usermodels.RoleAdmin)

	inactive := false
	rec := e.do(t, http.MethodPatch, "/api/admin/kos/1/status", adminToken, StatusRequest{IsActive: &inactive})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := e.listings.FindByID(t.Context(), listing.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	rec = e.do(t, http.MethodPatch, "/api/admin/kos/999/status", adminToken, StatusRequest{IsActive: &inactive})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/admin/kos/1/status", adminToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminManagesUserRoles(t *testing.T) {
	e := newAdminEnv(t)
	require.NoError(t, e.users.Create(t.Context(), &usermodels.User{
		ID: "user-1", Name: "Budi", Email: "budi@example.com", Role: usermodels.RoleUser,
	}))
	adminToken := e.token(t, "admin-1", usermodels.RoleAdmin)

	rec := e.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []usermodels.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	require.Len(t, users, 1)

	rec = e.do(t, http.MethodPut, "/api/admin/users/user-1/role", adminToken, RoleRequest{Role: usermodels.RoleAdmin})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated usermodels.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, usermodels.RoleAdmin, updated.Role)

	rec = e.do(t, http.MethodPut, "/api/admin/users/user-1/role", adminToken, map[string]string{"role": "OVERLORD"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/admin/users/ghost/role", adminToken, RoleRequest{Role: usermodels.RoleAdmin})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
