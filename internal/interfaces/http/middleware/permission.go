package middleware

import (
	"net/http"

	"github.com/erp/pricing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(logger *zap.Logger, permission string) gin.HandlerFunc {
	return RequireAnyPermission(logger, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions.
// It must run after JWTAuthMiddleware.
func RequireAnyPermission(logger *zap.Logger, permissions ...string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}

		if !claims.HasAnyPermission(permissions...) {
			logger.Warn("Permission denied",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
				zap.Strings("required_any", permissions),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Insufficient permissions", c.GetString(RequestIDKey)))
			return
		}

		c.Next()
	}
}
