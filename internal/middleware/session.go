package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wikireviews/backend/internal/identity"
)

const sessionCookie = "rv_session"

// Session guarantees every request carries an anonymous identity: an opaque
// session cookie plus a hashed origin IP. Raw IPs are hashed before they
// touch any storage path.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || token == "" {
			token = identity.NewSessionToken()
			c.SetCookie(sessionCookie, token, 86400*365, "/", "", false, true)
		}
		c.Set("session_token", token)
		c.Set("ip_hash", identity.HashIP(c.ClientIP()))
		c.Next()
	}
}
