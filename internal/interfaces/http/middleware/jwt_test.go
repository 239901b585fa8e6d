package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/pricing/internal/infrastructure/auth"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, *auth.Claims) (bool, error) {
	return false, errors.New("redis unavailable")
}

func jwtRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), JWTAuthMiddleware(cfg))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"user_id":       GetJWTUserID(c),
			"tenant_id":     GetJWTTenantID(c),
			"username":      GetJWTUsername(c),
			"ctx_tenant_id": logger.GetTenantID(ctx),
			"ctx_user_id":   logger.GetUserID(ctx),
		})
	})
	return r
}

func decodeError(t *testing.T, body []byte) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	v := newTestVerifier()
	token, input := issueToken(t, v, auth.PermissionQuote)

	w := perform(jwtRouter(JWTMiddlewareConfig{Verifier: v}), http.MethodGet, "/me", bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, input.UserID.String(), body["user_id"])
	assert.Equal(t, input.TenantID.String(), body["tenant_id"])
	assert.Equal(t, "pricing-analyst", body["username"])
	assert.Equal(t, input.TenantID.String(), body["ctx_tenant_id"])
	assert.Equal(t, input.UserID.String(), body["ctx_user_id"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	v := newTestVerifier()
	r := jwtRouter(JWTMiddlewareConfig{Verifier: v})

	expired := auth.NewTokenVerifier(config.JWTConfig{Secret: testSecret, Issuer: "erp-pricing"}).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expiredToken, _ := issueToken(t, expired)

	tests := []struct {
		name    string
		headers map[string]string
		code    string
	}{
		{"missing header", nil, dto.ErrCodeTokenInvalid},
		{"wrong scheme", map[string]string{AuthHeaderKey: "Basic abc"}, dto.ErrCodeTokenInvalid},
		{"empty token", map[string]string{AuthHeaderKey: BearerPrefix}, dto.ErrCodeTokenInvalid},
		{"garbage token", bearer("not.a.jwt"), dto.ErrCodeTokenInvalid},
		{"expired token", bearer(expiredToken), dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodGet, "/me", tt.headers)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			errInfo := decodeError(t, w.Body.Bytes())
			assert.Equal(t, tt.code, errInfo.Code)
			assert.NotEmpty(t, errInfo.RequestID)
		})
	}
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	r := jwtRouter(JWTMiddlewareConfig{Verifier: newTestVerifier(), SkipPaths: []string{"/health"}})

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/me", nil).Code)
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	v := newTestVerifier()
	token, _ := issueToken(t, v)
	claims, err := v.Verify(token)
	require.NoError(t, err)

	revocations := auth.NewInMemoryTokenBlacklist()
	revocations.RevokeToken(claims.ID, time.Hour)

	w := perform(jwtRouter(JWTMiddlewareConfig{Verifier: v, Revocations: revocations}), http.MethodGet, "/me", bearer(token))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w.Body.Bytes()).Code)
}

func TestJWTAuthMiddleware_RevocationStoreDownFailsOpen(t *testing.T) {
	v := newTestVerifier()
	token, _ := issueToken(t, v)

	w := perform(jwtRouter(JWTMiddlewareConfig{Verifier: v, Revocations: failingRevocations{}}), http.MethodGet, "/me", bearer(token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetJWTHelpers_NoClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Empty(t, GetJWTUserID(c))
	assert.Empty(t, GetJWTTenantID(c))
	assert.Empty(t, GetJWTUsername(c))
}
