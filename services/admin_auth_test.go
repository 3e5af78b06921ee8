package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/crystal-dz/storefront_api/dto"
	"github.com/crystal-dz/storefront_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAdminAuth(t *testing.T, password string) (*AdminAuthService, *JWTService) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	jwtSvc := NewJWTService("test-secret", time.Hour)
	return NewAdminAuthService(string(hash), jwtSvc), jwtSvc
}

func TestAdminLogin(t *testing.T) {
	auth, jwtSvc := newTestAdminAuth(t, "s3cret")

	resp, err := auth.Login(dto.AdminLoginRequest{Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	role, err := jwtSvc.VerifyJWTToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, role)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	auth, _ := newTestAdminAuth(t, "s3cret")

	_, err := auth.Login(dto.AdminLoginRequest{Password: "guess"})
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

func TestAdminLogin_NoHashConfigured(t *testing.T) {
	auth := NewAdminAuthService("", NewJWTService("test-secret", time.Hour))

	_, err := auth.Login(dto.AdminLoginRequest{Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJWT_RejectsForeignAndExpiredTokens(t *testing.T) {
	jwtSvc := NewJWTService("test-secret", time.Hour)
	other := NewJWTService("other-secret", time.Hour)

	token, err := other.ToJWT(AdminRole)
	require.NoError(t, err)
	_, err = jwtSvc.VerifyJWTToken(token)
	assert.Error(t, err)

	expired := NewJWTService("test-secret", -time.Minute)
	token, err = expired.ToJWT(AdminRole)
	require.NoError(t, err)
	_, err = jwtSvc.VerifyJWTToken(token)
	assert.Error(t, err)
}

func TestJWT_ExtractTokenFromHeader(t *testing.T) {
	jwtSvc := NewJWTService("s", time.Hour)

	token, err := jwtSvc.ExtractTokenFromHeader("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = jwtSvc.ExtractTokenFromHeader("")
	assert.Error(t, err)
	_, err = jwtSvc.ExtractTokenFromHeader("Basic abc")
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}
