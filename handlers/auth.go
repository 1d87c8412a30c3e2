package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskpulse/taskpulse-go/internal/tokens"
	"github.com/taskpulse/taskpulse-go/internal/users"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
	"github.com/taskpulse/taskpulse-go/pkg/middleware"
)

// CredentialsRequest is the body of register and login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc *users.Service
	issuer   *tokens.Issuer
}

func NewAuthHandler(u *users.Service, iss *tokens.Issuer) *AuthHandler {
	return &AuthHandler{usersSvc: u, issuer: iss}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.GET("/me", middleware.AuthMiddleware(h.issuer), h.Me)
	a.POST("/logout", h.Logout)
}

func (h *AuthHandler) issue(c *gin.Context, status int, u *users.User) {
	tok, err := h.issuer.Issue(u.ID, u.Email)
	if err != nil {
		logger.Errorf("issue credential for user %d: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to create access token"})
		return
	}
	c.JSON(status, gin.H{"data": gin.H{"user_id": u.ID, "email": u.Email, "token": tok}})
}

// SignUp creates an account and returns a credential for it.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and password are required"})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidEmail), errors.Is(err, users.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	case errors.Is(err, users.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "User with this email already exists"})
		return
	case err != nil:
		logger.Errorf("register: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "registration failed"})
		return
	}
	logger.Infof("registered user %d", u.ID)
	h.issue(c, http.StatusOK, u)
}

// Login exchanges email and password for a credential.
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "email and password are required"})
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, users.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Incorrect email or password"})
		return
	case errors.Is(err, users.ErrInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "Inactive user"})
		return
	case err != nil:
		logger.Errorf("login: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "login failed"})
		return
	}
	h.issue(c, http.StatusOK, u)
}

// Me returns the account behind the verified credential.
func (h *AuthHandler) Me(c *gin.Context) {
	id, _ := middleware.Subject(c)
	u, err := h.usersSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		logger.Errorf("me: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "user lookup failed"})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"user_id": u.ID, "email": u.Email}})
}

// Logout is a no-op acknowledgement; credentials end at their own expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
