package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
)

type AuthRoutes struct {
	handler       *handlers.AuthHandler
	googleHandler *handlers.GoogleAuthHandler
	auth          middlewares.Authenticator
	limiter       *middlewares.RateLimiter
}

func NewAuthRoutes(handler *handlers.AuthHandler, googleHandler *handlers.GoogleAuthHandler, auth middlewares.Authenticator, limiter *middlewares.RateLimiter) *AuthRoutes {
	return &AuthRoutes{handler: handler, googleHandler: googleHandler, auth: auth, limiter: limiter}
}

func (r *AuthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		// Public routes
		auth.POST("/login", r.limiter.Handler(), r.handler.Login)
		auth.POST("/logout", middlewares.OptionalSession(r.auth), r.handler.Logout)
		if r.googleHandler != nil {
			auth.GET("/google", r.googleHandler.Login)
			auth.GET("/google/callback", r.googleHandler.Callback)
		}

		// Protected routes
		protected := auth.Group("")
		protected.Use(middlewares.Authenticate(r.auth))
		protected.GET("/check", r.handler.Check)
		protected.POST("/set-password", r.limiter.Handler(), r.handler.SetPassword)
	}
}
