package handlers

import (
	"net/http"

	"advocacy-backend/middleware"
	"advocacy-backend/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Login authenticates the admin console operator against the
// configured credentials and issues a bearer token.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if h.cfg.AdminEmail == "" || h.cfg.AdminPasswordHash == "" {
		log.Error("Admin login attempted but ADMIN_EMAIL/ADMIN_PASSWORD_HASH are not configured")
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "admin login is not configured"})
		return
	}

	if req.Email != h.cfg.AdminEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, err := middleware.IssueToken(h.cfg.JWTSecret, req.Email)
	if err != nil {
		log.WithError(err).Error("Failed to issue admin token")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(middleware.TokenTTL.Seconds()),
	})
}
