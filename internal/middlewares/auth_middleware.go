package middlewares

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

const (
	AuthCookieName = "auth-token"
	claimsKey      = "claims"
)

// Authenticator verifies a raw session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// Authenticate guards API routes: no valid session means 401 JSON.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			responses.Abort(c, http.StatusUnauthorized, responses.CodeUnauthorized, nil, "Invalid or expired session")
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireSession guards pages: no valid session redirects to the login page
// with the original URL as callback.
func RequireSession(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalSession stores the claims when a valid session is present and
// never rejects.
func OptionalSession(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c)); err == nil {
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

// LoginURL is the login page carrying callback as its return target.
func LoginURL(callback string) string {
	return "/login?callbackUrl=" + url.QueryEscape(callback)
}

// ClaimsFrom returns the session claims stored by the auth middlewares.
func ClaimsFrom(c *gin.Context) (*utils.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.Claims)
	return claims, ok && claims != nil
}

// tokenFromRequest prefers the cookie and accepts "Bearer <token>" for API
// clients that do not keep cookies.
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(AuthCookieName); err == nil && token != "" {
		return token
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
