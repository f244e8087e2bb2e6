package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voltmart/storefront/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GoogleLogin redirects the browser to the provider consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	url, err := h.authService.LoginURL(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	resp, err := h.authService.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "authentication failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
