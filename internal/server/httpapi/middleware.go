package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/dmitrijs2005/chatvault/internal/cryptox"
	"github.com/dmitrijs2005/chatvault/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	identityKey     = "identity"
	requestIDHeader = "X-Request-ID"
)

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id, _ = common.MakeRandHexString(8)
		}
		c.Header(requestIDHeader, id)

		c.Next()
		h.Logger.Info(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// requireSession resolves the session cookie into an identity.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(common.SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		id, err := h.Auth.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// requireKey loads the key cookie once and attaches the key to the request
// context; every service call of the request uses that one key.
func (h *Handler) requireKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := h.keyTransport(c).Get(c.Request.Context())
		if err != nil {
			h.Logger.Warn(c.Request.Context(), "encryption key missing, forcing re-login", "error", err)
			c.Redirect(http.StatusFound, LogoutPath)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(cryptox.WithKey(c.Request.Context(), key))
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	id, _ := c.Get(identityKey)
	v, _ := id.(auth.Identity)
	return v
}
