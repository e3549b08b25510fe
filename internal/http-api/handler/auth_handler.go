package handler

import (
	"errors"
	"net/http"
	"time"

	"animevault/internal/http-api/dto"
	"animevault/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	tokenExpiry time.Duration
}

func NewAuthHandler(authService service.AuthService, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, tokenExpiry: tokenExpiry}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if errors.Is(err, service.ErrEmailInUse) || errors.Is(err, service.ErrNameInUse) {
		c.JSON(http.StatusConflict, gin.H{"error": "account creation failed"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		ExpiresIn:   int64(h.tokenExpiry.Seconds()),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Identifier() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email or username is required"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Identifier(), req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		ExpiresIn:   int64(h.tokenExpiry.Seconds()),
	})
}
