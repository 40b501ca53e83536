package course

import (
	"github.com/gin-gonic/gin"

	"github.com/academyhq/academy-server-go/internal/middleware"
)

// RegisterRoutes attaches course endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler) {
	courses := router.Group("/courses")
	{
		courses.GET("", middleware.OptionalAuth(), handler.List)
		courses.GET("/:courseId", middleware.OptionalAuth(), handler.GetByID)

		courses.POST("", middleware.RequireAuth(), handler.Create)
		courses.PATCH("/:courseId", middleware.RequireAuth(), handler.Update)
		courses.DELETE("/:courseId", middleware.RequireAuth(), handler.Delete)
	}
}
