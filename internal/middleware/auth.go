package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/resto-platform/core/internal/tenant"
)

const identityKey = "identity"

type authClaims struct {
	UserID       int64  `json:"user_id"`
	RestaurantID int64  `json:"restaurant_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Auth parses the bearer token into the caller's identity.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		token, err := jwt.ParseWithClaims(parts[1], &authClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		claims, ok := token.Claims.(*authClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			return
		}

		c.Set(identityKey, &tenant.Identity{
			UserID:       claims.UserID,
			RestaurantID: claims.RestaurantID,
			Role:         claims.Role,
		})
		c.Next()
	}
}

// IdentityFrom returns the authenticated identity, nil on public flows.
func IdentityFrom(c *gin.Context) *tenant.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	ident, _ := v.(*tenant.Identity)
	return ident
}
