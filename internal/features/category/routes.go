package category

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches category endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	categories := router.Group("/categories")
	{
		categories.GET("", handler.List)
		categories.GET("/:categoryId", handler.GetByID)

		categories.POST("", middleware.RequireAuth(), handler.Create)
		categories.PATCH("/:categoryId", middleware.RequireAuth(), handler.Update)
		categories.DELETE("/:categoryId", middleware.RequireAuth(), handler.Delete)
	}
}
