package handler

import (
	"net/http"

	"github.com/Baaaki/community-hub/internal/middleware"
	"github.com/Baaaki/community-hub/internal/service"
	"github.com/Baaaki/community-hub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a regular account and logs it in
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.Register(req.Username, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		respondError(c, err, "register user")
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    userJSON(user),
		"token":   token,
	})
}

// Login checks credentials by exact username
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		logger.Log.Warn("Login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
		)
		respondError(c, err, "log in")
		return
	}

	h.setTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userJSON(user),
		"token":   token,
	})
}

// Logout clears the token cookie. Bearer tokens simply expire.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.authService.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the session of the caller
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":       sess.UserID,
			"username": sess.Username,
			"role":     sess.Role,
		},
	})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.TokenCookie,
		token,
		int(h.authService.TokenExpiration().Seconds()),
		"/",
		"",
		h.authService.IsProduction(), // HTTPS-only in production
		true,
	)
}
