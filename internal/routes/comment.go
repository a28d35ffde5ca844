package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
)

type CommentRoutes struct {
	handler *handlers.CommentHandler
	auth    middlewares.Authenticator
}

func NewCommentRoutes(handler *handlers.CommentHandler, auth middlewares.Authenticator) *CommentRoutes {
	return &CommentRoutes{handler: handler, auth: auth}
}

func (r *CommentRoutes) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/comments")
	comments.Use(middlewares.Authenticate(r.auth))
	{
		comments.GET("", r.handler.List)
		comments.POST("", r.handler.Create)
		comments.DELETE("/:id", middlewares.RequireAdmin(), r.handler.Delete)
	}
}
