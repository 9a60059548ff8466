package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/chatvault/internal/server/models"
	"github.com/gin-gonic/gin"
)

type messageInput struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type apiKeyInput struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}

func (h *Handler) respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, body)
}

func bind[T any](c *gin.Context) (T, bool) {
	var v T
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return v, false
	}
	return v, true
}

// characters

func (h *Handler) listCharacters(c *gin.Context) {
	userID := identity(c).UserID
	if c.Query("scope") == "public" {
		list, err := h.Characters.ListPublic(c.Request.Context(), userID)
		h.respond(c, http.StatusOK, list, err)
		return
	}
	list, err := h.Characters.ListMine(c.Request.Context(), userID)
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createCharacter(c *gin.Context) {
	in, ok := bind[models.Character](c)
	if !ok {
		return
	}
	out, err := h.Characters.Create(c.Request.Context(), identity(c).UserID, in)
	h.respond(c, http.StatusCreated, out, err)
}

func (h *Handler) getCharacter(c *gin.Context) {
	out, err := h.Characters.Get(c.Request.Context(), identity(c).UserID, c.Param("id"))
	h.respond(c, http.StatusOK, out, err)
}

func (h *Handler) updateCharacter(c *gin.Context) {
	in, ok := bind[models.Character](c)
	if !ok {
		return
	}
	in.ID = c.Param("id")
	out, err := h.Characters.Update(c.Request.Context(), identity(c).UserID, in)
	h.respond(c, http.StatusOK, out, err)
}

// chats

func (h *Handler) listChats(c *gin.Context) {
	list, err := h.Chats.List(c.Request.Context(), identity(c).UserID)
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createChat(c *gin.Context) {
	in, ok := bind[models.Chat](c)
	if !ok {
		return
	}
	out, err := h.Chats.Create(c.Request.Context(), identity(c).UserID, in)
	h.respond(c, http.StatusCreated, out, err)
}

func (h *Handler) getChat(c *gin.Context) {
	out, err := h.Chats.Get(c.Request.Context(), identity(c).UserID, c.Param("id"))
	h.respond(c, http.StatusOK, out, err)
}

func (h *Handler) listMessages(c *gin.Context) {
	list, err := h.Chats.Messages(c.Request.Context(), identity(c).UserID, c.Param("id"))
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) addMessage(c *gin.Context) {
	in, ok := bind[messageInput](c)
	if !ok {
		return
	}
	out, err := h.Chats.AddMessage(c.Request.Context(), identity(c).UserID, c.Param("id"), in.Role, in.Content)
	h.respond(c, http.StatusCreated, out, err)
}

// personas

func (h *Handler) listPersonas(c *gin.Context) {
	list, err := h.Personas.List(c.Request.Context(), identity(c).UserID)
	h.respond(c, http.StatusOK, list, err)
}

func (h *Handler) createPersona(c *gin.Context) {
	in, ok := bind[models.Persona](c)
	if !ok {
		return
	}
	out, err := h.Personas.Create(c.Request.Context(), identity(c).UserID, in)
	h.respond(c, http.StatusCreated, out, err)
}

func (h *Handler) getPersona(c *gin.Context) {
	out, err := h.Personas.Get(c.Request.Context(), identity(c).UserID, c.Param("id"))
	h.respond(c, http.StatusOK, out, err)
}

// profile

func (h *Handler) getProfile(c *gin.Context) {
	out, err := h.Profiles.Get(c.Request.Context(), identity(c).UserID)
	h.respond(c, http.StatusOK, out, err)
}

func (h *Handler) updateProfile(c *gin.Context) {
	in, ok := bind[models.Profile](c)
	if !ok {
		return
	}
	out, err := h.Profiles.Update(c.Request.Context(), identity(c).UserID, in)
	h.respond(c, http.StatusOK, out, err)
}

func (h *Handler) setAPIKey(c *gin.Context) {
	in, ok := bind[apiKeyInput](c)
	if !ok {
		return
	}
	err := h.Profiles.SetAPIKey(c.Request.Context(), identity(c).UserID, in.Provider, in.APIKey)
	h.respond(c, http.StatusNoContent, nil, err)
}

// uploads

func (h *Handler) presignUpload(c *gin.Context) {
	out, err := h.Uploads.PresignImageUpload(c.Request.Context(), identity(c).UserID)
	h.respond(c, http.StatusCreated, out, err)
}
