package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/pricing/internal/infrastructure/auth"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-of-32-chars"

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestVerifier() *auth.TokenVerifier {
	return auth.NewTokenVerifier(config.JWTConfig{Secret: testSecret, Issuer: "erp-pricing"})
}

func issueToken(t *testing.T, v *auth.TokenVerifier, permissions ...string) (string, auth.IssueInput) {
	t.Helper()
	input := auth.IssueInput{
		TenantID:    uuid.New(),
		UserID:      uuid.New(),
		Username:    "pricing-analyst",
		Permissions: permissions,
	}
	token, err := v.IssueAccessToken(input, time.Hour)
	require.NoError(t, err)
	return token, input
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{AuthHeaderKey: BearerPrefix + token}
}
