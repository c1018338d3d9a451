package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"restaurant-storefront/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity resolves the caller: a valid bearer token identifies a signed-in
// customer, an X-Guest-ID header identifies an anonymous one, and no header
// at all is fine since the cart store hands out a guest id on first contact.
// Only an explicitly presented but invalid token is rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if guestID := c.GetHeader("X-Guest-ID"); guestID != "" {
				c.Set("guestID", guestID)
			}
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be Bearer <token>"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return config.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		c.Set("customerID", strconv.FormatInt(claims.UserID, 10))
		c.Set("token", tokenStr)
		c.Next()
	}
}

// CustomerID extracts the signed-in customer id, if any
func CustomerID(c *gin.Context) (string, bool) {
	val, ok := c.Get("customerID")
	if !ok {
		return "", false
	}
	return val.(string), true
}

// Token extracts the caller's bearer token, if any
func Token(c *gin.Context) (string, bool) {
	val, ok := c.Get("token")
	if !ok {
		return "", false
	}
	return val.(string), true
}

// GuestID extracts the caller-supplied guest id, if any
func GuestID(c *gin.Context) (string, bool) {
	val, ok := c.Get("guestID")
	if !ok {
		return "", false
	}
	return val.(string), true
}
