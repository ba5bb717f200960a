package middleware

import (
	"net/http"

	"scoregaps/internal"
	"scoregaps/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionKey is the gin context key holding the session id
const SessionKey = "session_id"

// Session reads the session cookie and stores its id in the context.
// Requests without a live session get a new one via seed.
func Session(store *session.Store, seed func() string, logger *internal.Logger) gin.HandlerFunc {
	logger = logger.With("Session")
	return func(c *gin.Context) {
		id, err := c.Cookie(session.CookieName)
		if err != nil || id == "" {
			id = seed()
			logger.Debug("Issued new session %s", id)
		} else if _, ok := store.Get(id); !ok {
			id = seed()
			logger.Debug("Replaced expired session with %s", id)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, id, 0, "/", "", false, true)
		c.Set(SessionKey, id)
		c.Next()
	}
}

// SessionID returns the id stored by Session
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}
