package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ephraimVPA/Helfzen-zn/internal/handlers"
	"github.com/ephraimVPA/Helfzen-zn/internal/middlewares"
)

type DebugRoutes struct {
	handler *handlers.DebugHandler
	auth    middlewares.Authenticator
}

func NewDebugRoutes(handler *handlers.DebugHandler, auth middlewares.Authenticator) *DebugRoutes {
	return &DebugRoutes{handler: handler, auth: auth}
}

func (r *DebugRoutes) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("")
	admin.Use(middlewares.Authenticate(r.auth), middlewares.RequireAdmin())
	{
		admin.GET("/debug/sheets", r.handler.Sheets)
		admin.GET("/debug/users", r.handler.Users)
		admin.POST("/test-sheets/add-comment", r.handler.AddTestComment)
	}
}
