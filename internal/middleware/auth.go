package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wikireviews/backend/internal/identity"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

// AuthMiddleware requires a valid Bearer token and stores the caller's
// registered identity on the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		setUserClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth stores the registered identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c); ok {
			setUserClaims(c, claims)
		}
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware; rejects non-admin callers.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := c.Get("is_admin"); isAdmin != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context) (jwt.MapClaims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	return claims, true
}

func setUserClaims(c *gin.Context, claims jwt.MapClaims) {
	if raw, ok := claims["user_id"].(float64); ok {
		c.Set("user_id", int(raw))
	}
	if isAdmin, ok := claims["is_admin"].(bool); ok {
		c.Set("is_admin", isAdmin)
	}
}

// Caller assembles the request identity from middleware state: the JWT half
// when present, the anonymous session half always.
func Caller(c *gin.Context) identity.Identity {
	ident := identity.Identity{}
	if raw, exists := c.Get("user_id"); exists {
		if id, ok := raw.(int); ok {
			ident.UserID = id
			ident.Registered = true
		}
	}
	if isAdmin, exists := c.Get("is_admin"); exists {
		ident.Admin = isAdmin == true
	}
	if tok, exists := c.Get("session_token"); exists {
		ident.SessionToken, _ = tok.(string)
	}
	if hash, exists := c.Get("ip_hash"); exists {
		ident.IPHash, _ = hash.(string)
	}
	return ident
}
