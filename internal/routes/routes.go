package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
)

// Handlers groups everything the router mounts. GoogleAuth and Debug are
// optional.
type Handlers struct {
	Auth       *handlers.AuthHandler
	GoogleAuth *handlers.GoogleAuthHandler
	Comment    *handlers.CommentHandler
	Admin      *handlers.AdminHandler
	Debug      *handlers.DebugHandler
	Page       *handlers.PageHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, auth middlewares.Authenticator, limiter *middlewares.RateLimiter) {
	api := router.Group("/api")

	NewAuthRoutes(h.Auth, h.GoogleAuth, auth, limiter).RegisterRoutes(api)
	NewCommentRoutes(h.Comment, auth).RegisterRoutes(api)
	if h.Debug != nil {
		NewDebugRoutes(h.Debug, auth).RegisterRoutes(api)
	}

	NewPageRoutes(h.Page, h.Admin, auth).RegisterRoutes(router)
}
