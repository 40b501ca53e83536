package coursemodule

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches module endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	modules := router.Group("/modules")
	{
		modules.GET("", middleware.OptionalAuth(), handler.List)
		modules.GET("/:moduleId", middleware.OptionalAuth(), handler.GetByID)

		modules.POST("", middleware.RequireAuth(), handler.Create)
		modules.PATCH("/:moduleId", middleware.RequireAuth(), handler.Update)
		modules.DELETE("/:moduleId", middleware.RequireAuth(), handler.Delete)
	}
}
