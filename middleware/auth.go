package middleware

import (
	"context"
	"strings"

	"foodshare-api/apperror"
	"foodshare-api/httpx"
	"foodshare-api/models"

	"github.com/gin-gonic/gin"
)

const (
	ctxUser   = "user"
	ctxUserID = "userID"
	ctxRole   = "role"
)

// Authenticator resolves a bearer token to the account it was issued for.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired validates the bearer token and injects the user into context
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httpx.Error(c, apperror.Auth("Not authorized, no token"))
			return
		}
		user, err := auth.CurrentUser(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.Error(c, err)
			return
		}
		c.Set(ctxUser, user)
		c.Set(ctxUserID, user.ID)
		c.Set(ctxRole, string(user.Role))
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerRole := GetRole(c)
		for _, r := range roles {
			if callerRole == r {
				c.Next()
				return
			}
		}
		httpx.Error(c, apperror.Authz("Access denied. Required role(s): "+rolesString(roles)))
	}
}

// CapabilityRequired enforces that the caller's role grants cap.
func CapabilityRequired(cap models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := GetRole(c); !role.Can(cap) {
			httpx.Error(c, apperror.Authz("Role "+string(role)+" is not allowed to perform this action"))
			return
		}
		c.Next()
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetUserID extracts caller user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetRole extracts caller role from context
func GetRole(c *gin.Context) models.UserRole {
	return models.UserRole(c.GetString(ctxRole))
}

// GetUser returns the authenticated account, or nil on public routes.
func GetUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
