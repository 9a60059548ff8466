// Package httpapi exposes the chatvault services over HTTP with gin.
//
// Two cookies make up a session: the signed session token, and the
// encryption key cookie managed by keytransport. Routes that read or write
// sensitive records require both; a request that has a session but no key is
// sent to /auth/logout to log in again, since only the password can
// recreate the key.
package httpapi

import (
	"time"

	"github.com/dmitrijs2005/chatvault/internal/keytransport"
	"github.com/dmitrijs2005/chatvault/internal/logging"
	"github.com/gin-gonic/gin"
)

const LogoutPath = "/auth/logout"

type Handler struct {
	Auth       AuthService
	Characters CharacterService
	Chats      ChatService
	Personas   PersonaService
	Profiles   ProfileService
	Uploads    UploadService

	Logger          logging.Logger
	Cookies         keytransport.CookieOptions
	SessionValidity time.Duration
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.POST("/auth/register", h.register)
	r.POST("/auth/login", h.login)
	r.POST(LogoutPath, h.logout)
	r.GET(LogoutPath, h.logout)

	api := r.Group("/", h.requireSession(), h.requireKey())

	api.GET("/characters", h.listCharacters)
	api.POST("/characters", h.createCharacter)
	api.GET("/characters/:id", h.getCharacter)
	api.PUT("/characters/:id", h.updateCharacter)

	api.GET("/chats", h.listChats)
	api.POST("/chats", h.createChat)
	api.GET("/chats/:id", h.getChat)
	api.GET("/chats/:id/messages", h.listMessages)
	api.POST("/chats/:id/messages", h.addMessage)

	api.GET("/personas", h.listPersonas)
	api.POST("/personas", h.createPersona)
	api.GET("/personas/:id", h.getPersona)

	api.GET("/profile", h.getProfile)
	api.PUT("/profile", h.updateProfile)
	api.POST("/profile/api-keys", h.setAPIKey)

	r.POST("/uploads/images", h.requireSession(), h.presignUpload)

	return r
}

func (h *Handler) keyTransport(c *gin.Context) *keytransport.ServerTransport {
	return keytransport.NewServerTransport(c.Writer, c.Request, h.Cookies)
}
