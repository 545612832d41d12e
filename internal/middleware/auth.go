package middleware

import (
	"log"
	"net/http"
	"strings"

	"actionplan-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	claimsKey = "claims"
	userKey   = "user"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*models.Claims, error)
}

// JWTAuth requires a valid "Authorization: Bearer <token>" header and stores the caller in the context
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Authorization header with Bearer token is required",
			})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			log.Printf("[AUTH] Rejected token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userKey, claims.User())
		c.Next()
	}
}

// RequireRoles lets only callers with one of roles through. Must run after JWTAuth.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": "role " + string(user.Role) + " may not access this resource",
		})
	}
}

// GetUser returns the authenticated caller, or the zero User
func GetUser(c *gin.Context) models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(models.User); ok {
			return user
		}
	}
	return models.User{}
}

// GetClaims returns the validated token claims, or nil
func GetClaims(c *gin.Context) *models.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*models.Claims); ok {
			return claims
		}
	}
	return nil
}
