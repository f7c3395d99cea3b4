package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	usermodels "kosfinder/internal/user/models"
	dErrors "kosfinder/pkg/domain-errors"
	"kosfinder/pkg/platform/circuit"
)

// TokenVerifier resolves a Google ID token to the profile it asserts.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (*usermodels.GoogleProfile, error)
}

// TokenInfoVerifier validates credentials against Google's tokeninfo
// endpoint. A circuit breaker sheds load when the endpoint is down; rejected
// credentials do not count as failures.
type TokenInfoVerifier struct {
	endpoint string
	client   *http.Client
	breaker  *circuit.Breaker
}

func NewTokenInfoVerifier(endpoint string) *TokenInfoVerifier {
	return &TokenInfoVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		breaker:  circuit.New("google-tokeninfo"),
	}
}

type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, credential string) (*usermodels.GoogleProfile, error) {
	if !v.breaker.Allow() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "credential verification temporarily unavailable")
	}

	target := v.endpoint + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.breaker.RecordFailure()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "tokeninfo unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		v.breaker.RecordFailure()
		return nil, dErrors.New(dErrors.CodeUnavailable, "tokeninfo returned a server error")
	}
	v.breaker.RecordSuccess()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid Google credential")
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "malformed tokeninfo response")
	}
	if info.Sub == "" || info.Email == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "credential lacks identity claims")
	}
	if info.EmailVerified != "true" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "email not verified")
	}

	return &usermodels.GoogleProfile{
		Sub:      info.Sub,
		Email:    info.Email,
		Name:     info.Name,
		ImageURL: info.Picture,
	}, nil
}

// MockVerifier resolves credentials from a fixed table. Used in tests and
// local development.
type MockVerifier struct {
	profiles map[string]usermodels.GoogleProfile
}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{profiles: make(map[string]usermodels.GoogleProfile)}
}

// Allow registers a credential that will verify to the given profile.
func (v *MockVerifier) Allow(credential string, profile usermodels.GoogleProfile) {
	v.profiles[credential] = profile
}

func (v *MockVerifier) Verify(_ context.Context, credential string) (*usermodels.GoogleProfile, error) {
	profile, ok := v.profiles[credential]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid Google credential")
	}
	return &profile, nil
}
