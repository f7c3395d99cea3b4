package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kosfinder/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "kosfinder-test")

	token, err := svc.GenerateSessionToken("google-oauth-sub-1", "owner@example.com", "USER", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "google-oauth-sub-1", claims.UserID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "kosfinder-test")

	token, err := svc.GenerateSessionToken("google-oauth-sub-1", "owner@example.com", "USER", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateRejectsWrongKey(t *testing.T) {
	minter := NewJWTService("key-a", "kosfinder-test")
	verifier := NewJWTService("key-b", "kosfinder-test")

	token, err := minter.GenerateSessionToken("google-oauth-sub-1", "owner@example.com", "ADMIN", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "kosfinder-test")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
