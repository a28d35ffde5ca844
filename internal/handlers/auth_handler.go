package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
	"github.com/ephraimVPA/Helfzen-zn/internal/services"
)

type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookies: secureCookies}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"    binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, "Please provide your email")
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failAuth(c, err, "Failed to login")
		return
	}

	setSessionCookie(c, result.Token, result.ExpiresAt, h.secureCookies)

	res := gin.H{
		"user":      result.User,
		"isNewUser": result.IsNewUser,
	}
	responses.Success(c, http.StatusOK, res, "User Login Successfully!")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, ok := middlewares.ClaimsFrom(c); ok {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			_ = c.Error(err)
		}
	}
	clearSessionCookie(c, h.secureCookies)
	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}

func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, "Please provide a new password")
		return
	}

	claims, _ := middlewares.ClaimsFrom(c)
	if err := h.authService.SetPassword(c.Request.Context(), claims, req.CurrentPassword, req.NewPassword); err != nil {
		failAuth(c, err, "Could not set password")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Password updated")
}

// Check returns the session user with comment access re-read from the
// allow-list.
func (h *AuthHandler) Check(c *gin.Context) {
	claims, _ := middlewares.ClaimsFrom(c)
	user, err := h.authService.Check(c.Request.Context(), claims)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			clearSessionCookie(c, h.secureCookies)
		}
		failAuth(c, err, "Not authenticated")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"authenticated": true, "user": user}, "")
}

// failAuth maps auth service errors onto status codes and error codes.
func failAuth(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrEmailRequired):
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, message)
	case errors.Is(err, services.ErrUserNotFound):
		responses.FailCode(c, http.StatusUnauthorized, responses.CodeUserNotFound, err, message)
	case errors.Is(err, services.ErrPasswordRequired):
		responses.FailCode(c, http.StatusBadRequest, responses.CodePasswordRequired, err, message)
	case errors.Is(err, services.ErrInvalidCredentials):
		responses.FailCode(c, http.StatusUnauthorized, responses.CodeInvalidCredentials, err, message)
	case errors.Is(err, services.ErrPasswordTooShort):
		responses.FailCode(c, http.StatusBadRequest, responses.CodeInvalidRequest, err, message)
	case errors.Is(err, services.ErrNotAuthenticated):
		responses.FailCode(c, http.StatusUnauthorized, responses.CodeUnauthorized, err, message)
	default:
		_ = c.Error(err)
		responses.FailCode(c, http.StatusInternalServerError, responses.CodeBackendUnavailable, nil, message)
	}
}

func setSessionCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.AuthCookieName, token, int(time.Until(expiresAt).Seconds()), "/", "", secure, true)
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.AuthCookieName, "", -1, "/", "", secure, true)
}
