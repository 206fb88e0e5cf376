package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// Context keys set by the identity middleware.
const (
	ctxUserID = "userID"
	ctxStaff  = "staff"
)

// identityMiddleware parses an optional bearer token into the caller's
// identity. Token issuance belongs to the auth service; this core only
// verifies and extracts claims. Requests without a token proceed as
// guests.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(s.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, ok := claims["sub"].(float64); ok {
				c.Set(ctxUserID, uint(sub))
			}
			if staff, ok := claims["staff"].(bool); ok && staff {
				c.Set(ctxStaff, true)
			}
		}
		c.Next()
	}
}

// requireStaff gates the fulfillment and schedule-management endpoints.
func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ctxStaff) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Staff access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// callerUserID returns the authenticated user id, if any.
func callerUserID(c *gin.Context) *uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}
