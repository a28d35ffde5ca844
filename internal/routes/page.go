package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
	"github.com/ephraimVPA/Helfzen-zn/internal/pages"
)

type PageRoutes struct {
	handler      *handlers.PageHandler
	adminHandler *handlers.AdminHandler
	auth         middlewares.Authenticator
}

func NewPageRoutes(handler *handlers.PageHandler, adminHandler *handlers.AdminHandler, auth middlewares.Authenticator) *PageRoutes {
	return &PageRoutes{handler: handler, adminHandler: adminHandler, auth: auth}
}

func (r *PageRoutes) RegisterRoutes(router *gin.Engine) {
	router.GET("/", r.handler.Root)
	router.GET("/login", middlewares.OptionalSession(r.auth), r.handler.Login)

	guarded := router.Group("")
	guarded.Use(middlewares.RequireSession(r.auth), middlewares.RequireCommentAccess())
	for _, s := range pages.Sections {
		guarded.GET(s.Path, r.handler.Shell)
	}

	admin := router.Group("/admin")
	admin.Use(middlewares.RequireSession(r.auth), middlewares.RequireAdmin())
	admin.GET("/comments", r.adminHandler.Comments)
}
