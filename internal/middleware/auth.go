package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/loxigl/Rent-Pro/internal/auth"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/models"
	"github.com/loxigl/Rent-Pro/pkg/apperrors"
)

const (
	ctxUserIDKey = "userID"
	ctxRoleKey   = "role"
	ctxEmailKey  = "userEmail"
)

// AuthMiddleware validates the Bearer access token and stores the claims on
// the gin context.
func AuthMiddleware(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortWith(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := issuer.Parse(tokenStr, auth.TokenKindAccess)
		if err != nil {
			abortWith(c, apperrors.ErrInvalidToken)
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxRoleKey, claims.Role)
		c.Set(ctxEmailKey, claims.Email)

		ctx := logger.WithUserID(c.Request.Context(), strconv.FormatUint(uint64(claims.UserID), 10))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequirePermission gates a route on the closed permission table.
func RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := Role(c)
		if !ok {
			abortWith(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !auth.Can(role, perm) {
			abortWith(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// UserID extracts the authenticated user id from the gin context.
func UserID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(ctxUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

// Role extracts the authenticated role from the gin context.
func Role(c *gin.Context) (models.UserRole, bool) {
	val, exists := c.Get(ctxRoleKey)
	if !exists {
		return "", false
	}
	if role, ok := val.(models.UserRole); ok {
		return role, true
	}
	if s, ok := val.(string); ok {
		return models.UserRole(s), true
	}
	return "", false
}

func abortWith(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPCode, gin.H{"error": appErr})
}
