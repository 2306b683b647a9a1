package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meridian-ads/meridian/internal/infrastructure/auth"
	"github.com/meridian-ads/meridian/internal/shared/logger"
	"github.com/meridian-ads/meridian/internal/shared/utils"
)

// ContextKeyTenantID is where RequireAuth stores the caller's tenant.
const ContextKeyTenantID = "tenant_id"

type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     logger.Interface
}

func NewAuthMiddleware(jwtService *auth.JWTService, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// RequireAuth verifies the bearer token and binds the request to its tenant.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := m.jwtService.Verify(parts[1])
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyTenantID, claims.TenantID)
		c.Next()
	}
}

// TenantID reads the tenant bound by RequireAuth. Zero means unauthenticated.
func TenantID(c *gin.Context) uint {
	if v, ok := c.Get(ContextKeyTenantID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
