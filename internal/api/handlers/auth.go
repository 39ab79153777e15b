package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/logging"
	"go-photo-gallery/internal/utils"
)

type AuthHandler struct {
	passwordHash []byte
	secret       string
	ttl          time.Duration
}

// NewAuthHandler prefers ADMIN_PASSWORD_HASH; a plain password is hashed once
// at startup so both paths compare with bcrypt.
func NewAuthHandler(cfg config.AdminConfig) (*AuthHandler, error) {
	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
	}
	return &AuthHandler{passwordHash: hash, secret: cfg.JWTSecret, ttl: cfg.TokenTTL}, nil
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary     Administrator login
// @Description Exchanges the admin password for a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Success     200 {object} map[string]interface{}
// @Failure     401 {object} map[string]string
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.passwordHash, []byte(input.Password)); err != nil {
		logging.With("auth").Warn().Str("client_ip", c.ClientIP()).Msg("failed admin login")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := utils.GenerateToken(utils.AdminSubject, h.secret, h.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt.UTC()})
}
