package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/models"
	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
)

const (
	CommentModeParam        = "commentMode"
	NoCommentAccessRedirect = "/dashboard?error=no_comment_access"
)

// RequireAdmin must run after Authenticate or RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			responses.Abort(c, http.StatusUnauthorized, responses.CodeUnauthorized, nil, "Unauthorized")
			return
		}
		if claims.Role != models.RoleAdmin {
			responses.Abort(c, http.StatusForbidden, responses.CodeForbidden, nil, "Access denied. Admin privileges required.")
			return
		}
		c.Next()
	}
}

// RequireCommentAccess lets a page request with commentMode=true through only
// when the session carries comment access; otherwise it redirects to the
// dashboard with an error code. Requests without the flag pass untouched.
func RequireCommentAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query(CommentModeParam) != "true" {
			c.Next()
			return
		}
		claims, ok := ClaimsFrom(c)
		if !ok || !claims.CommentAccess {
			c.Redirect(http.StatusFound, NoCommentAccessRedirect)
			c.Abort()
			return
		}
		c.Next()
	}
}
