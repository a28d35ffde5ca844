package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/services"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthCallbackCookie = "oauth_callback"
	oauthCookieMaxAge   = 10 * 60
	defaultLandingPage  = "/dashboard"
)

type GoogleAuthHandler struct {
	googleAuthService *services.GoogleAuthService
	secureCookies     bool
}

func NewGoogleAuthHandler(googleAuthService *services.GoogleAuthService, secureCookies bool) *GoogleAuthHandler {
	return &GoogleAuthHandler{
		googleAuthService: googleAuthService,
		secureCookies:     secureCookies,
	}
}

// Login starts the OAuth flow. The state and the local return path are kept
// in short-lived cookies and checked on callback.
func (h *GoogleAuthHandler) Login(c *gin.Context) {
	oauthState, err := utils.GenerateStateOauthCookie()
	if err != nil {
		_ = c.Error(err)
		c.Redirect(http.StatusFound, "/login?error=oauth_failed")
		return
	}

	callback := utils.SafeCallbackURL(c.Query("callbackUrl"), defaultLandingPage)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, oauthState, oauthCookieMaxAge, "/", "", h.secureCookies, true)
	c.SetCookie(oauthCallbackCookie, callback, oauthCookieMaxAge, "/", "", h.secureCookies, true)

	c.Redirect(http.StatusTemporaryRedirect, h.googleAuthService.AuthCodeURL(oauthState))
}

func (h *GoogleAuthHandler) Callback(c *gin.Context) {
	queryState := c.Query("state")
	cookieState, err := c.Cookie(oauthStateCookie)
	if queryState == "" || err != nil || queryState != cookieState {
		c.Redirect(http.StatusFound, "/login?error=invalid_state")
		return
	}

	callback, _ := c.Cookie(oauthCallbackCookie)
	callback = utils.SafeCallbackURL(callback, defaultLandingPage)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.secureCookies, true)
	c.SetCookie(oauthCallbackCookie, "", -1, "/", "", h.secureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusFound, "/login?error=oauth_failed")
		return
	}

	result, err := h.googleAuthService.Callback(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) || errors.Is(err, services.ErrEmailNotVerified) {
			c.Redirect(http.StatusFound, "/login?error=unauthorized")
			return
		}
		_ = c.Error(err)
		c.Redirect(http.StatusFound, "/login?error=oauth_failed")
		return
	}

	setSessionCookie(c, result.Token, result.ExpiresAt, h.secureCookies)
	c.Redirect(http.StatusFound, callback)
}
