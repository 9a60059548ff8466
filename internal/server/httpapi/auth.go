package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/chatvault/internal/common"
	"github.com/gin-gonic/gin"
)

type registerInput struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), input.Email, input.Username, input.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// login issues the session cookie and derives the key cookie from the
// password, salted with the account email.
func (h *Handler) login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	token, id, err := h.Auth.Login(ctx, input.Email, input.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if _, err := h.keyTransport(c).Set(ctx, input.Password, id.Email); err != nil {
		h.writeError(c, err)
		return
	}
	h.setSessionCookie(c, token, int(h.SessionValidity.Seconds()))

	c.JSON(http.StatusOK, gin.H{"user_id": id.UserID, "email": id.Email})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.keyTransport(c).Clear(c.Request.Context()); err != nil {
		h.writeError(c, err)
		return
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.SessionCookieName, value, maxAge, h.Cookies.Path, h.Cookies.Domain, h.Cookies.Secure, true)
}
