package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pagevault/library/internal/db"
)

const principalKey = "principal"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token
func RequireAuth(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token required"})
			return
		}
		principal, err := s.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token expired or invalid"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if principal, err := s.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(principalKey, principal)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth
func RequireRole(role db.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil || principal.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller, or nil
func PrincipalFrom(c *gin.Context) *Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := value.(*Principal)
	return principal
}
