package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/services"
)

// Context keys set by AuthMiddleware.
const (
	ActorIDKey = "userID"
	RoleKey    = "role"
	ClaimsKey  = "claims"
)

// TokenValidator is satisfied by services.AuthService.
type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// AuthMiddleware requires a valid access token. Browsers cannot set headers on
// websocket upgrades, so the token query parameter is accepted as well.
func AuthMiddleware(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(ActorIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole admits only requests whose role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

// Actor describes the caller of the current request for auditing.
func Actor(c *gin.Context) services.Actor {
	return services.Actor{
		ID:        c.GetString(ActorIDKey),
		Role:      c.GetString(RoleKey),
		IPAddress: c.ClientIP(),
		UserAgent: SanitizeUserAgent(c.Request.UserAgent()),
	}
}

// Claims returns the verified token claims, or nil.
func Claims(c *gin.Context) *services.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*services.Claims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
